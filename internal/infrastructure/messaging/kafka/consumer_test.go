package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
)

// fakeReader replays a fixed message sequence, then returns io.EOF.
type fakeReader struct {
	messages  []kafkago.Message
	next      int
	committed []int64
	commitErr error
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafkago.Message{}, err
	}
	if r.next >= len(r.messages) {
		return kafkago.Message{}, io.EOF
	}
	msg := r.messages[r.next]
	r.next++
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	if r.commitErr != nil {
		return r.commitErr
	}
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func envelopeMessage(t *testing.T, eventType string, payload interface{}, offset int64) kafkago.Message {
	t.Helper()
	env, err := NewEventEnvelope(eventType, "test", payload)
	if err != nil {
		t.Fatalf("NewEventEnvelope: %v", err)
	}
	value, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return kafkago.Message{Topic: eventType, Offset: offset, Value: value}
}

func TestConsumerDispatchAndCommit(t *testing.T) {
	reader := &fakeReader{messages: []kafkago.Message{
		envelopeMessage(t, TopicDocumentUploaded, DocumentUploadedPayload{AnalysisID: "a1"}, 1),
		envelopeMessage(t, TopicDocumentUploaded, DocumentUploadedPayload{AnalysisID: "a2"}, 2),
	}}
	c := NewConsumerWithReader(reader, logging.NewNopLogger())

	var seen []string
	c.Register(TopicDocumentUploaded, func(_ context.Context, env *EventEnvelope) error {
		var p DocumentUploadedPayload
		if err := env.DecodePayload(&p); err != nil {
			return err
		}
		seen = append(seen, p.AnalysisID)
		return nil
	})

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(seen) != 2 || seen[0] != "a1" || seen[1] != "a2" {
		t.Errorf("handled = %v, want [a1 a2]", seen)
	}
	if len(reader.committed) != 2 {
		t.Errorf("committed %d offsets, want 2", len(reader.committed))
	}
	if c.Processed() != 2 {
		t.Errorf("processed = %d, want 2", c.Processed())
	}
}

func TestConsumerHandlerErrorLeavesUncommitted(t *testing.T) {
	reader := &fakeReader{messages: []kafkago.Message{
		envelopeMessage(t, TopicDocumentAnalyzed, DocumentAnalyzedPayload{AnalysisID: "a1"}, 7),
	}}
	c := NewConsumerWithReader(reader, logging.NewNopLogger())
	c.Register(TopicDocumentAnalyzed, func(context.Context, *EventEnvelope) error {
		return errors.New("transient failure")
	})

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(reader.committed) != 0 {
		t.Errorf("committed %v, want none", reader.committed)
	}
	if c.Errored() != 1 {
		t.Errorf("errored = %d, want 1", c.Errored())
	}
}

func TestConsumerSkipsUnparseable(t *testing.T) {
	reader := &fakeReader{messages: []kafkago.Message{
		{Topic: TopicDocumentUploaded, Offset: 3, Value: []byte("not json")},
		envelopeMessage(t, TopicDocumentUploaded, DocumentUploadedPayload{AnalysisID: "ok"}, 4),
	}}
	c := NewConsumerWithReader(reader, logging.NewNopLogger())

	var handled int
	c.Register(TopicDocumentUploaded, func(context.Context, *EventEnvelope) error {
		handled++
		return nil
	})

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if handled != 1 {
		t.Errorf("handled = %d, want 1", handled)
	}
	// Both the garbage message and the good one get committed.
	if len(reader.committed) != 2 {
		t.Errorf("committed %v, want 2 offsets", reader.committed)
	}
}

func TestConsumerSkipsUnregisteredEventType(t *testing.T) {
	reader := &fakeReader{messages: []kafkago.Message{
		envelopeMessage(t, TopicDocumentAnalysisFailed, DocumentAnalysisFailedPayload{AnalysisID: "a1"}, 9),
	}}
	c := NewConsumerWithReader(reader, logging.NewNopLogger())

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(reader.committed) != 1 {
		t.Errorf("committed %v, want the skipped offset", reader.committed)
	}
	if c.Processed() != 0 {
		t.Errorf("processed = %d, want 0", c.Processed())
	}
}

func TestConsumerContextCancel(t *testing.T) {
	reader := &fakeReader{}
	c := NewConsumerWithReader(reader, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run after cancel: %v", err)
	}
}

func TestConsumerClose(t *testing.T) {
	reader := &fakeReader{}
	c := NewConsumerWithReader(reader, logging.NewNopLogger())

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !reader.closed {
		t.Error("reader not closed")
	}
	if err := c.Run(context.Background()); !errors.Is(err, ErrConsumerClosed) {
		t.Fatalf("expected ErrConsumerClosed, got %v", err)
	}
}
