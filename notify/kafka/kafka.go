// Package kafka provides a Kafka notifier for committed case events.
// Envelopes are written to a single topic, keyed by case ID so all events
// of one case land on the same partition in order.
package kafka

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/caseflow/caseflow"
	kafkago "github.com/segmentio/kafka-go"
)

// Ensure Notifier implements the caseflow.Notifier interface.
var _ caseflow.Notifier = (*Notifier)(nil)

// Notifier writes committed events to a Kafka topic.
type Notifier struct {
	topic        string
	source       string
	brokers      []string
	balancer     kafkago.Balancer
	batchTimeout time.Duration
	codec        caseflow.EnvelopeCodec

	mu     sync.Mutex
	writer *kafkago.Writer
}

// Option configures a Kafka Notifier.
type Option func(*Notifier)

// WithBrokers sets the Kafka broker addresses.
func WithBrokers(brokers ...string) Option {
	return func(n *Notifier) {
		n.brokers = brokers
	}
}

// WithBalancer sets the message balancer (partitioner).
func WithBalancer(balancer kafkago.Balancer) Option {
	return func(n *Notifier) {
		n.balancer = balancer
	}
}

// WithBatchTimeout sets the batch timeout for the writer.
func WithBatchTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		n.batchTimeout = d
	}
}

// WithCodec sets the envelope codec.
func WithCodec(codec caseflow.EnvelopeCodec) Option {
	return func(n *Notifier) {
		n.codec = codec
	}
}

// WithSource sets the envelope source identifier.
func WithSource(source string) Option {
	return func(n *Notifier) {
		n.source = source
	}
}

// New creates a new Kafka Notifier writing to the given topic.
func New(topic string, opts ...Option) *Notifier {
	n := &Notifier{
		topic:        topic,
		source:       "caseflow",
		brokers:      []string{"localhost:9092"},
		balancer:     &kafkago.Hash{},
		batchTimeout: 10 * time.Millisecond,
		codec:        &caseflow.JSONEnvelopeCodec{},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Name identifies the notifier in engine logs.
func (n *Notifier) Name() string {
	return "kafka"
}

// Notify writes the committed event's envelope to the topic, keyed by case ID.
func (n *Notifier) Notify(ctx context.Context, snapshot caseflow.Snapshot) error {
	envelope, err := caseflow.NewEnvelope(n.source, snapshot.Event, snapshot.Version)
	if err != nil {
		return fmt.Errorf("kafka: failed to build envelope: %w", err)
	}

	value, err := n.codec.Encode(envelope)
	if err != nil {
		return fmt.Errorf("kafka: failed to encode envelope: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(snapshot.Event.CaseID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(snapshot.Event.Type)},
			{Key: "case-version", Value: []byte(strconv.FormatInt(snapshot.Version, 10))},
			{Key: "content-type", Value: []byte(n.codec.ContentType())},
		},
	}

	if err := n.getWriter().WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: failed to write to topic %s: %w", n.topic, err)
	}
	return nil
}

// Close closes the Kafka writer.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.writer == nil {
		return nil
	}
	err := n.writer.Close()
	n.writer = nil
	return err
}

// getWriter returns or lazily creates the Kafka writer.
func (n *Notifier) getWriter() *kafkago.Writer {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.writer == nil {
		n.writer = &kafkago.Writer{
			Addr:                   kafkago.TCP(n.brokers...),
			Topic:                  n.topic,
			Balancer:               n.balancer,
			BatchTimeout:           n.batchTimeout,
			AllowAutoTopicCreation: true,
		}
	}
	return n.writer
}
