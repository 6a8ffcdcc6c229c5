// Package sns provides an AWS SNS notifier for committed case events.
package sns

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/caseflow/caseflow"
)

// SNSClient defines the subset of the SNS API used by the notifier.
type SNSClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Ensure Notifier implements the caseflow.Notifier interface.
var _ caseflow.Notifier = (*Notifier)(nil)

// Notifier publishes committed events to an AWS SNS topic. On FIFO topics
// the case ID is used as the message group, preserving per-case ordering.
type Notifier struct {
	topicARN string
	source   string
	client   SNSClient
	codec    caseflow.EnvelopeCodec
	fifo     bool
}

// Option configures an SNS Notifier.
type Option func(*Notifier)

// WithSNSClient sets the SNS client.
func WithSNSClient(client SNSClient) Option {
	return func(n *Notifier) {
		n.client = client
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

// WithFIFO marks the topic as FIFO, enabling per-case message groups.
func WithFIFO() Option {
	return func(n *Notifier) {
		n.fifo = true
	}
}

// New creates a new SNS Notifier publishing to the given topic ARN.
func New(topicARN string, opts ...Option) *Notifier {
	n := &Notifier{
		topicARN: topicARN,
		source:   "caseflow",
		codec:    &caseflow.JSONEnvelopeCodec{},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Name identifies the notifier in engine logs.
func (n *Notifier) Name() string {
	return "sns"
}

// Notify publishes the committed event's envelope to the topic.
func (n *Notifier) Notify(ctx context.Context, snapshot caseflow.Snapshot) error {
	if n.client == nil {
		return fmt.Errorf("sns: client not configured")
	}

	envelope, err := caseflow.NewEnvelope(n.source, snapshot.Event, snapshot.Version)
	if err != nil {
		return fmt.Errorf("sns: failed to build envelope: %w", err)
	}

	body, err := n.codec.Encode(envelope)
	if err != nil {
		return fmt.Errorf("sns: failed to encode envelope: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: &n.topicARN,
		Message:  stringPtr(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    stringPtr("String"),
				StringValue: stringPtr(string(snapshot.Event.Type)),
			},
			"caseId": {
				DataType:    stringPtr("String"),
				StringValue: stringPtr(snapshot.Event.CaseID),
			},
			"caseVersion": {
				DataType:    stringPtr("Number"),
				StringValue: stringPtr(strconv.FormatInt(snapshot.Version, 10)),
			},
		},
	}

	if n.fifo {
		groupID := snapshot.Event.CaseID
		dedupID := snapshot.Event.ID
		input.MessageGroupId = &groupID
		input.MessageDeduplicationId = &dedupID
	}

	if _, err := n.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("sns: failed to publish to %s: %w", n.topicARN, err)
	}

	return nil
}

func stringPtr(s string) *string {
	return &s
}
