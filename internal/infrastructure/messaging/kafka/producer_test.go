package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

type fakeWriter struct {
	messages []kafkago.Message
	writeErr error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerPublish(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	env, err := NewEventEnvelope(TopicDocumentUploaded, "apiserver", DocumentUploadedPayload{
		AnalysisID: "a1",
		FileName:   "nda.pdf",
		ObjectKey:  "documents/a1/nda.pdf",
		Size:       2048,
		UploadedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("NewEventEnvelope: %v", err)
	}

	if err := p.Publish(context.Background(), TopicDocumentUploaded, "a1", env); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(w.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.messages))
	}
	msg := w.messages[0]
	if msg.Topic != TopicDocumentUploaded {
		t.Errorf("topic = %q, want %q", msg.Topic, TopicDocumentUploaded)
	}
	if string(msg.Key) != "a1" {
		t.Errorf("key = %q, want %q", msg.Key, "a1")
	}

	var got EventEnvelope
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if got.EventType != TopicDocumentUploaded {
		t.Errorf("event type = %q, want %q", got.EventType, TopicDocumentUploaded)
	}
	var payload DocumentUploadedPayload
	if err := got.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if payload.ObjectKey != "documents/a1/nda.pdf" {
		t.Errorf("object key = %q", payload.ObjectKey)
	}

	if p.Sent() != 1 {
		t.Errorf("sent = %d, want 1", p.Sent())
	}
}

func TestProducerPublishHeaders(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	env, _ := NewEventEnvelope(TopicDocumentAnalyzed, "worker", DocumentAnalyzedPayload{AnalysisID: "a2"})
	if err := p.Publish(context.Background(), TopicDocumentAnalyzed, "a2", env); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	headers := map[string]string{}
	for _, h := range w.messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	want := map[string]string{
		"event_type":     TopicDocumentAnalyzed,
		"source_service": "worker",
		"schema_version": "v1",
	}
	for k, v := range want {
		if headers[k] != v {
			t.Errorf("header %q = %q, want %q", k, headers[k], v)
		}
	}
}

func TestProducerPublishWriteError(t *testing.T) {
	w := &fakeWriter{writeErr: errors.New("broker down")}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	env, _ := NewEventEnvelope(TopicDocumentAnalysisFailed, "worker", DocumentAnalysisFailedPayload{AnalysisID: "a3"})
	err := p.Publish(context.Background(), TopicDocumentAnalysisFailed, "a3", env)
	if !apperrors.IsCode(err, apperrors.ErrCodeMessageQueueError) {
		t.Fatalf("expected message queue error, got %v", err)
	}
	if p.Failed() != 1 {
		t.Errorf("failed = %d, want 1", p.Failed())
	}
}

func TestProducerPublishEmptyTopic(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, logging.NewNopLogger())
	env, _ := NewEventEnvelope(TopicDocumentUploaded, "apiserver", DocumentUploadedPayload{})
	err := p.Publish(context.Background(), "", "k", env)
	if !apperrors.IsCode(err, apperrors.ErrCodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProducerClosed(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !w.closed {
		t.Error("writer not closed")
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	env, _ := NewEventEnvelope(TopicDocumentUploaded, "apiserver", DocumentUploadedPayload{})
	if err := p.Publish(context.Background(), TopicDocumentUploaded, "k", env); !errors.Is(err, ErrProducerClosed) {
		t.Fatalf("expected ErrProducerClosed, got %v", err)
	}
}
