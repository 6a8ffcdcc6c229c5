package protomap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/caseflow/caseflow"
)

func testEvent() caseflow.Event {
	return caseflow.Event{
		ID:        "11111111-2222-3333-4444-555555555555",
		CaseID:    "case-1",
		Type:      caseflow.EventGroundsSubmitted,
		Timestamp: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Actor:     "contractor-a",
		Role:      caseflow.RoleClaimant,
		Payload:   caseflow.GroundsClaimPayload{Justification: "Changed ground conditions"},
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec()

	envelope, err := caseflow.NewEnvelope("claims-service", testEvent(), 2)
	require.NoError(t, err)

	data, err := codec.Encode(envelope)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, envelope.SpecVersion, decoded.SpecVersion)
	assert.Equal(t, envelope.Subject, decoded.Subject)
	assert.Equal(t, envelope.CaseVersion, decoded.CaseVersion)
	assert.True(t, envelope.Time.Equal(decoded.Time))

	event, err := decoded.Event()
	require.NoError(t, err)
	assert.Equal(t, testEvent(), event)
}

func TestCodec_ReadableWithoutSchema(t *testing.T) {
	codec := NewCodec()

	envelope, err := caseflow.NewEnvelope("claims-service", testEvent(), 2)
	require.NoError(t, err)

	data, err := codec.Encode(envelope)
	require.NoError(t, err)

	// A consumer with only the well-known types can read the fields.
	var message structpb.Struct
	require.NoError(t, proto.Unmarshal(data, &message))

	fields := message.AsMap()
	assert.Equal(t, "case-1", fields["subject"])
	assert.Equal(t, string(caseflow.EventGroundsSubmitted), fields["type"])
	assert.Equal(t, float64(2), fields["caseversion"])
}

func TestCodec_Decode(t *testing.T) {
	codec := NewCodec()

	t.Run("rejects empty data", func(t *testing.T) {
		_, err := codec.Decode(nil)
		require.Error(t, err)

		var serr *SerializationError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "decode", serr.Operation)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := codec.Decode([]byte("not protobuf"))
		assert.Error(t, err)
	})
}

func TestCodec_ContentType(t *testing.T) {
	assert.Equal(t, "application/protobuf", NewCodec().ContentType())
}
