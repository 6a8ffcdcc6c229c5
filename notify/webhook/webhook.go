// Package webhook provides a webhook notifier for committed case events.
// It sends an HTTP POST with the event envelope to a configured endpoint
// after every successful write.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/caseflow/caseflow"
)

// Ensure Notifier implements the caseflow.Notifier interface.
var _ caseflow.Notifier = (*Notifier)(nil)

// Notifier delivers committed events as HTTP POST requests.
type Notifier struct {
	url            string
	source         string
	client         *http.Client
	codec          caseflow.EnvelopeCodec
	defaultHeaders map[string]string
}

// Option configures a webhook Notifier.
type Option func(*Notifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(n *Notifier) {
		n.client = client
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		n.client.Timeout = d
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

// WithDefaultHeaders sets default headers added to all requests.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(n *Notifier) {
		for k, v := range headers {
			n.defaultHeaders[k] = v
		}
	}
}

// New creates a new webhook Notifier posting to the given URL.
func New(url string, opts ...Option) *Notifier {
	n := &Notifier{
		url:    url,
		source: "caseflow",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		codec:          &caseflow.JSONEnvelopeCodec{},
		defaultHeaders: map[string]string{},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Name identifies the notifier in engine logs.
func (n *Notifier) Name() string {
	return "webhook"
}

// Notify posts the committed event's envelope to the configured endpoint.
// Any response below 400 counts as delivered.
func (n *Notifier) Notify(ctx context.Context, snapshot caseflow.Snapshot) error {
	envelope, err := caseflow.NewEnvelope(n.source, snapshot.Event, snapshot.Version)
	if err != nil {
		return fmt.Errorf("webhook: failed to build envelope: %w", err)
	}

	body, err := n.codec.Encode(envelope)
	if err != nil {
		return fmt.Errorf("webhook: failed to encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	for k, v := range n.defaultHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", n.codec.ContentType())
	req.Header.Set("X-Caseflow-Event-Type", string(snapshot.Event.Type))
	req.Header.Set("X-Caseflow-Case-Id", snapshot.Event.CaseID)
	req.Header.Set("X-Caseflow-Version", strconv.FormatInt(snapshot.Version, 10))

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed for %s: %w", n.url, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("webhook: server error %d from %s", resp.StatusCode, n.url)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: client error %d from %s", resp.StatusCode, n.url)
	}

	return nil
}
