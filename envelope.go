package caseflow

import (
	"encoding/json"
	"fmt"
	"time"
)

// EnvelopeSpecVersion is the envelope format version written by this library.
const EnvelopeSpecVersion = "1.0"

// Envelope is the wire representation of a committed event, structured after
// the CloudEvents attribute set. It is deliberately decoupled from the
// in-memory Event so the storage and projection code can evolve without
// breaking integrators reading the feed.
type Envelope struct {
	// SpecVersion is the envelope format version.
	SpecVersion string `json:"specversion"`

	// ID is the unique event identifier.
	ID string `json:"id"`

	// Source identifies the producing engine instance.
	Source string `json:"source"`

	// Type is the event type identifier.
	Type string `json:"type"`

	// Subject is the case the event belongs to.
	Subject string `json:"subject"`

	// Time is when the event occurred, in RFC 3339.
	Time time.Time `json:"time"`

	// DataContentType is the media type of Data.
	DataContentType string `json:"datacontenttype"`

	// Data is the serialized event payload.
	Data json.RawMessage `json:"data"`

	// Actor is the identity of the emitting party.
	Actor string `json:"actor"`

	// ActorRole is the emitting party's role.
	ActorRole string `json:"actorrole"`

	// Reference optionally points at an earlier event ID.
	Reference string `json:"reference,omitempty"`

	// CaseVersion is the case version the event was committed at.
	CaseVersion int64 `json:"caseversion"`

	// Comment is the event's free-text remark, if any.
	Comment string `json:"comment,omitempty"`
}

// NewEnvelope wraps a committed event for the wire.
func NewEnvelope(source string, event Event, version int64) (Envelope, error) {
	data, err := EncodePayload(event.Payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		SpecVersion:     EnvelopeSpecVersion,
		ID:              event.ID,
		Source:          source,
		Type:            string(event.Type),
		Subject:         event.CaseID,
		Time:            event.Timestamp.UTC(),
		DataContentType: "application/json",
		Data:            data,
		Actor:           event.Actor,
		ActorRole:       string(event.Role),
		Reference:       event.ReferencedEventID,
		CaseVersion:     version,
	}, nil
}

// Event decodes the envelope back into a typed event. Decoding is fail-fast:
// an unknown type, a malformed payload or an invalid role is an error, never
// a partially filled event.
func (e Envelope) Event() (Event, error) {
	if e.SpecVersion != EnvelopeSpecVersion {
		return Event{}, NewMalformedEventError(e.Type,
			fmt.Errorf("unsupported envelope spec version %q", e.SpecVersion))
	}

	eventType := EventType(e.Type)
	payload, err := DecodePayload(eventType, e.Data)
	if err != nil {
		return Event{}, err
	}

	ev := Event{
		ID:                e.ID,
		CaseID:            e.Subject,
		Type:              eventType,
		Timestamp:         e.Time,
		Actor:             e.Actor,
		Role:              Role(e.ActorRole),
		Comment:           e.Comment,
		ReferencedEventID: e.Reference,
		Payload:           payload,
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// EnvelopeCodec serializes envelopes for a transport or feed. Implementations
// must round-trip: Decode(Encode(e)) yields an envelope equal to e.
type EnvelopeCodec interface {
	// Encode serializes an envelope.
	Encode(envelope Envelope) ([]byte, error)

	// Decode deserializes an envelope.
	Decode(data []byte) (Envelope, error)

	// ContentType returns the media type produced by Encode.
	ContentType() string
}

// JSONEnvelopeCodec encodes envelopes as JSON. It is the default codec.
type JSONEnvelopeCodec struct{}

var _ EnvelopeCodec = (*JSONEnvelopeCodec)(nil)

// Encode serializes an envelope as JSON.
func (c *JSONEnvelopeCodec) Encode(envelope Envelope) ([]byte, error) {
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("caseflow: failed to encode envelope: %w", err)
	}
	return data, nil
}

// Decode deserializes a JSON envelope.
func (c *JSONEnvelopeCodec) Decode(data []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("caseflow: failed to decode envelope: %w", err)
	}
	return envelope, nil
}

// ContentType returns the JSON media type.
func (c *JSONEnvelopeCodec) ContentType() string {
	return "application/json"
}
