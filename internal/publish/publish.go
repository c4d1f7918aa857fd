// Package publish streams generated events to Kafka.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/thurmanmarka/astrocal/internal/config"
	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// Header keys set on every message.
const (
	HeaderRunID = "run_id"
	HeaderKind  = "kind"
)

// Writer is the subset of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes one message per event.
type Publisher struct {
	w   Writer
	log *slog.Logger
}

// NewWriter returns a synchronous hash-balanced writer for cfg.
func NewWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: cfg.BatchTimeout,
		Async:        false,
	}
}

// New wraps w. A nil logger means slog.Default().
func New(w Writer, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{w: w, log: log.With(slog.String("component", "publisher"))}
}

// Key is the partition key of e: "<kind>:<date>".
func Key(e event.Event) string {
	return fmt.Sprintf("%s:%s", e.Kind(), timeutil.FormatISO(e.When()))
}

// Message encodes e for run.
func Message(run uuid.UUID, e event.Event) (kafka.Message, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s event: %w", e.Kind(), err)
	}
	return kafka.Message{
		Key:   []byte(Key(e)),
		Value: b,
		Time:  e.When(),
		Headers: []kafka.Header{
			{Key: HeaderRunID, Value: []byte(run.String())},
			{Key: HeaderKind, Value: []byte(e.Kind())},
		},
	}, nil
}

// Publish writes events in order as a single batch.
func (p *Publisher) Publish(ctx context.Context, run uuid.UUID, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		m, err := Message(run, e)
		if err != nil {
			return err
		}
		msgs = append(msgs, m)
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		p.log.Error("kafka write failed", "err", err, "run", run, "events", len(msgs))
		return fmt.Errorf("publish run %s: %w", run, err)
	}
	p.log.Info("published", "run", run, "events", len(msgs))
	return nil
}

// Close closes the underlying writer.
func (p *Publisher) Close() error { return p.w.Close() }
