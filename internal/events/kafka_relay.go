package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaRelay mirrors local events to a topic and replays events from other
// gateway instances onto the local bus.
type KafkaRelay struct {
	local    *Local
	instance string
	writer   *kafka.Writer
	reader   *kafka.Reader
	log      *slog.Logger
}

func NewKafkaRelay(local *Local, log *slog.Logger, topic string, brokers ...string) *KafkaRelay {
	instance := uuid.NewString()
	log = log.With("component", "kafka_relay", "instance", instance)
	// Publish runs on request paths, so writes are queued and flushed in the
	// background. Delivery failures only reach the log.
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		WriteBackoffMax:        250 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error("failed to relay events", "count", len(messages), "error", err)
			}
		},
	}
	// every instance needs every event, so each one reads with its own group
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     "storefront-gateway-" + instance,
		StartOffset: kafka.LastOffset,
		MaxBytes:    10e6, // 10MB
	})
	return &KafkaRelay{
		local:    local,
		instance: instance,
		writer:   w,
		reader:   reader,
		log:      log,
	}
}

func (r *KafkaRelay) Instance() string { return r.instance }

// Publish delivers e locally and queues it for the other instances. It does
// not wait for the broker.
func (r *KafkaRelay) Publish(e Event) {
	e.Origin = r.instance
	r.local.Publish(e)

	if err := r.publishToKafka(context.Background(), e); err != nil {
		r.log.Error("failed to relay event", "kind", e.Kind, "session_id", e.SessionID, "error", err)
	}
}

func (r *KafkaRelay) Subscribe(h Handler) func() {
	return r.local.Subscribe(h)
}

func (r *KafkaRelay) publishToKafka(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.SessionID), // per-session ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Kind)},
		},
	}
	return r.writer.WriteMessages(ctx, msg)
}

// Run consumes the topic until ctx is cancelled.
func (r *KafkaRelay) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		r.consumeOne(ctx)
	}
}

func (r *KafkaRelay) consumeOne(ctx context.Context) {
	m, err := r.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.log.Warn("error reading message", "error", err)
		}
		return
	}

	var e Event
	if err := json.Unmarshal(m.Value, &e); err != nil {
		r.log.Warn("error parsing message", "offset", m.Offset, "error", err)
		return
	}
	if e.Origin == r.instance {
		return
	}
	r.local.Publish(e)
}

func (r *KafkaRelay) Close() error {
	return errors.Join(r.writer.Close(), r.reader.Close())
}
