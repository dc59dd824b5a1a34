package kafka

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

var ErrConsumerClosed = apperrors.New(apperrors.ErrCodeMessageQueueError, "consumer closed")

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one decoded event envelope. A non-nil error leaves the
// message uncommitted so the group redelivers it.
type Handler func(ctx context.Context, env *EventEnvelope) error

// Consumer reads envelopes from a consumer group and dispatches them to
// handlers registered per event type.
type Consumer struct {
	reader   ReaderInterface
	logger   logging.Logger
	handlers map[string]Handler
	running  atomic.Bool
	closed   atomic.Bool

	processed atomic.Int64
	errored   atomic.Int64
}

// NewConsumer builds a consumer-group reader over the given topics.
func NewConsumer(cfg config.KafkaConfig, topics []string, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.GroupID == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "kafka group id required")
	}
	if len(topics) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "at least one topic required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    topics,
		StartOffset:    startOffset,
		MinBytes:       1,
		MaxBytes:       10 << 20,
		CommitInterval: 0, // explicit commits only
		MaxWait:        time.Second,
	})

	return &Consumer{
		reader:   reader,
		logger:   log.Named("consumer"),
		handlers: make(map[string]Handler),
	}, nil
}

// NewConsumerWithReader wraps an existing reader, used by tests.
func NewConsumerWithReader(r ReaderInterface, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Consumer{
		reader:   r,
		logger:   log.Named("consumer"),
		handlers: make(map[string]Handler),
	}
}

// Register installs the handler for an event type. Must be called before Run.
func (c *Consumer) Register(eventType string, h Handler) {
	c.handlers[eventType] = h
}

// Run fetches and dispatches messages until ctx is cancelled or the consumer
// is closed. Messages are committed only after their handler returns nil;
// envelopes that cannot be parsed or have no handler are committed and
// skipped so they do not wedge the partition.
func (c *Consumer) Run(ctx context.Context) error {
	if c.closed.Load() {
		return ErrConsumerClosed
	}
	if !c.running.CompareAndSwap(false, true) {
		return apperrors.New(apperrors.ErrCodeConflict, "consumer already running")
	}
	defer c.running.Store(false)

	c.logger.Info("Kafka consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				c.logger.Info("Kafka consumer stopping", logging.Int64("processed", c.processed.Load()))
				return nil
			}
			if c.closed.Load() {
				return nil
			}
			return apperrors.Wrap(err, apperrors.ErrCodeMessageQueueError, "fetch failed")
		}

		c.handleMessage(ctx, msg)
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message) {
	env, err := ParseEnvelope(msg.Value)
	if err != nil {
		c.errored.Add(1)
		c.logger.Warn("Dropping unparseable event",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err),
		)
		c.commit(ctx, msg)
		return
	}

	handler, ok := c.handlers[env.EventType]
	if !ok {
		c.logger.Debug("No handler for event type, skipping",
			logging.String("event_type", env.EventType),
			logging.String("topic", msg.Topic),
		)
		c.commit(ctx, msg)
		return
	}

	if err := handler(ctx, env); err != nil {
		c.errored.Add(1)
		c.logger.Error("Event handler failed, message left uncommitted",
			logging.String("event_type", env.EventType),
			logging.String("event_id", env.EventID),
			logging.Int64("offset", msg.Offset),
			logging.Err(err),
		)
		return
	}

	c.processed.Add(1)
	c.commit(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit offset",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err),
		)
	}
}

// Processed reports the number of successfully handled messages.
func (c *Consumer) Processed() int64 { return c.processed.Load() }

// Errored reports the number of handler or parse failures.
func (c *Consumer) Errored() int64 { return c.errored.Load() }

// Close stops the consumer and releases the group membership.
func (c *Consumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.reader.Close()
}
