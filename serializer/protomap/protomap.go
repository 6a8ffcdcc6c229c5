// Package protomap provides a Protocol Buffers envelope codec for caseflow.
//
// Envelopes are carried as google.protobuf.Struct messages, so consumers in
// any protobuf-capable language can read the feed without a caseflow schema.
// This trades some payload size against the zero-schema interoperability the
// notification feed needs.
//
// Basic usage:
//
//	codec := protomap.NewCodec()
//	data, err := codec.Encode(envelope)
//	envelope, err := codec.Decode(data)
package protomap

import (
	"encoding/json"
	"fmt"

	"github.com/caseflow/caseflow"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Ensure Codec implements the caseflow.EnvelopeCodec interface.
var _ caseflow.EnvelopeCodec = (*Codec)(nil)

// Codec is a protobuf Struct implementation of caseflow.EnvelopeCodec.
type Codec struct{}

// NewCodec creates a new protobuf envelope codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encode converts an envelope to a serialized google.protobuf.Struct.
func (c *Codec) Encode(envelope caseflow.Envelope) ([]byte, error) {
	// Bridge through JSON so the struct fields keep their wire names.
	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, &SerializationError{EventType: envelope.Type, Operation: "encode", Err: err}
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &SerializationError{EventType: envelope.Type, Operation: "encode", Err: err}
	}

	message, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, &SerializationError{EventType: envelope.Type, Operation: "encode", Err: err}
	}

	data, err := proto.Marshal(message)
	if err != nil {
		return nil, &SerializationError{EventType: envelope.Type, Operation: "encode", Err: err}
	}
	return data, nil
}

// Decode converts a serialized google.protobuf.Struct back to an envelope.
func (c *Codec) Decode(data []byte) (caseflow.Envelope, error) {
	if len(data) == 0 {
		return caseflow.Envelope{}, &SerializationError{
			Operation: "decode",
			Err:       fmt.Errorf("data cannot be empty"),
		}
	}

	var message structpb.Struct
	if err := proto.Unmarshal(data, &message); err != nil {
		return caseflow.Envelope{}, &SerializationError{Operation: "decode", Err: err}
	}

	raw, err := json.Marshal(message.AsMap())
	if err != nil {
		return caseflow.Envelope{}, &SerializationError{Operation: "decode", Err: err}
	}

	var envelope caseflow.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return caseflow.Envelope{}, &SerializationError{Operation: "decode", Err: err}
	}
	return envelope, nil
}

// ContentType returns the protobuf media type.
func (c *Codec) ContentType() string {
	return "application/protobuf"
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
		return fmt.Sprintf("caseflow/protomap: failed to %s envelope: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("caseflow/protomap: failed to %s envelope for %s: %v", e.Operation, e.EventType, e.Err)
}

// Unwrap returns the underlying error.
func (e *SerializationError) Unwrap() error {
	return e.Err
}
