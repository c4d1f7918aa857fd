package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thurmanmarka/astrocal/internal/config"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
)

type fakeWriter struct {
	msgs   []kafka.Message
	calls  int
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

var run = uuid.MustParse("6f1c2d0e-8a4b-4c3d-9e2f-1a2b3c4d5e6f")

func TestPublish_MessagePerEvent(t *testing.T) {
	at := time.Date(2025, time.March, 29, 10, 57, 30, 0, time.UTC)
	events := []event.Event{
		event.NewPhase(at, "new", 9, 9, 0.002),
		event.NewIngress(at.Add(24*time.Hour), ephemeris.Neptune, 11, 0, false, 0.00001),
	}

	w := &fakeWriter{}
	p := New(w, nil)
	require.NoError(t, p.Publish(context.Background(), run, events))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, 1, w.calls)

	first := w.msgs[0]
	assert.Equal(t, "moon_phase:2025-03-29T10:57:30Z", string(first.Key))
	assert.Equal(t, run.String(), header(first, HeaderRunID))
	assert.Equal(t, "moon_phase", header(first, HeaderKind))
	assert.True(t, first.Time.Equal(at))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &body))
	assert.Equal(t, "ingress", body["type"])
	assert.Equal(t, "Neptune", body["planet"])
	assert.Equal(t, "ingress:2025-03-30T10:57:30Z", string(w.msgs[1].Key))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublish_EmptyWritesNothing(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, New(w, nil).Publish(context.Background(), run, nil))
	assert.Zero(t, w.calls)
}

func TestPublish_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	w := &fakeWriter{err: boom}
	ev := []event.Event{event.NewPhase(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "full", 0, 180, 0)}

	err := New(w, nil).Publish(context.Background(), run, ev)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), run.String())
}

func TestNewWriter(t *testing.T) {
	cfg := config.Default().Kafka
	cfg.Brokers = []string{"k1:9092", "k2:9092"}

	w := NewWriter(cfg)
	assert.Equal(t, "astrocal.events", w.Topic)
	assert.Equal(t, "tcp,tcp", w.Addr.Network())
	assert.Equal(t, "k1:9092,k2:9092", w.Addr.String())
	assert.Equal(t, 50*time.Millisecond, w.BatchTimeout)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
