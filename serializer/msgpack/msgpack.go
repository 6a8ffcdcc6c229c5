// Package msgpack provides a MessagePack envelope codec for caseflow.
//
// MessagePack is a binary serialization format that produces smaller payloads
// than JSON while maintaining similar flexibility. It is useful for
// high-volume notification feeds where envelope size matters.
//
// Basic usage:
//
//	codec := msgpack.NewCodec()
//	data, err := codec.Encode(envelope)
//	envelope, err := codec.Decode(data)
package msgpack

import (
	"fmt"

	"github.com/caseflow/caseflow"
	"github.com/vmihailenco/msgpack/v5"
)

// Ensure Codec implements the caseflow.EnvelopeCodec interface.
var _ caseflow.EnvelopeCodec = (*Codec)(nil)

// Codec is a MessagePack implementation of caseflow.EnvelopeCodec.
type Codec struct{}

// NewCodec creates a new MessagePack envelope codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encode converts an envelope to MessagePack bytes.
func (c *Codec) Encode(envelope caseflow.Envelope) ([]byte, error) {
	data, err := msgpack.Marshal(envelope)
	if err != nil {
		return nil, &SerializationError{
			EventType: envelope.Type,
			Operation: "encode",
			Err:       err,
		}
	}
	return data, nil
}

// Decode converts MessagePack bytes back to an envelope.
func (c *Codec) Decode(data []byte) (caseflow.Envelope, error) {
	if len(data) == 0 {
		return caseflow.Envelope{}, &SerializationError{
			Operation: "decode",
			Err:       fmt.Errorf("data cannot be empty"),
		}
	}

	var envelope caseflow.Envelope
	if err := msgpack.Unmarshal(data, &envelope); err != nil {
		return caseflow.Envelope{}, &SerializationError{
			Operation: "decode",
			Err:       err,
		}
	}
	return envelope, nil
}

// ContentType returns the MessagePack media type.
func (c *Codec) ContentType() string {
	return "application/msgpack"
}

// SerializationError represents an encoding or decoding error.
type SerializationError struct {
	EventType string
	Operation string // "encode" or "decode"
	Err       error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	if e.EventType == "" {
		return fmt.Sprintf("caseflow/msgpack: failed to %s envelope: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("caseflow/msgpack: failed to %s envelope for %s: %v", e.Operation, e.EventType, e.Err)
}

// Unwrap returns the underlying error.
func (e *SerializationError) Unwrap() error {
	return e.Err
}
