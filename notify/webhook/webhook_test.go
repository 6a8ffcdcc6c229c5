package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/serializer/msgpack"
)

func testSnapshot() caseflow.Snapshot {
	return caseflow.Snapshot{
		Version: 3,
		State: caseflow.CaseState{
			CaseID:  "case-1",
			Created: true,
			Title:   "Delayed site access",
		},
		Event: caseflow.Event{
			ID:        "11111111-2222-3333-4444-555555555555",
			CaseID:    "case-1",
			Type:      caseflow.EventGroundsSubmitted,
			Timestamp: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
			Actor:     "contractor-a",
			Role:      caseflow.RoleClaimant,
			Payload:   caseflow.GroundsClaimPayload{Justification: "Changed ground conditions"},
		},
	}
}

func TestNotifier_Notify(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the envelope with delivery headers", func(t *testing.T) {
		var received *http.Request
		var body []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received = r
			body, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		n := New(server.URL,
			WithSource("claims-service"),
			WithDefaultHeaders(map[string]string{"Authorization": "Bearer token"}),
		)
		require.NoError(t, n.Notify(ctx, testSnapshot()))

		require.NotNil(t, received)
		assert.Equal(t, http.MethodPost, received.Method)
		assert.Equal(t, "application/json", received.Header.Get("Content-Type"))
		assert.Equal(t, string(caseflow.EventGroundsSubmitted), received.Header.Get("X-Caseflow-Event-Type"))
		assert.Equal(t, "case-1", received.Header.Get("X-Caseflow-Case-Id"))
		assert.Equal(t, "3", received.Header.Get("X-Caseflow-Version"))
		assert.Equal(t, "Bearer token", received.Header.Get("Authorization"))

		codec := &caseflow.JSONEnvelopeCodec{}
		envelope, err := codec.Decode(body)
		require.NoError(t, err)
		assert.Equal(t, "claims-service", envelope.Source)
		assert.Equal(t, int64(3), envelope.CaseVersion)

		decoded, err := envelope.Event()
		require.NoError(t, err)
		assert.Equal(t, caseflow.EventGroundsSubmitted, decoded.Type)
	})

	t.Run("uses the configured codec", func(t *testing.T) {
		codec := msgpack.NewCodec()
		var contentType string
		var body []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType = r.Header.Get("Content-Type")
			body, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		n := New(server.URL, WithCodec(codec))
		require.NoError(t, n.Notify(ctx, testSnapshot()))

		assert.Equal(t, codec.ContentType(), contentType)

		envelope, err := codec.Decode(body)
		require.NoError(t, err)
		assert.Equal(t, "case-1", envelope.Subject)
	})

	t.Run("client errors fail delivery", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		err := New(server.URL).Notify(ctx, testSnapshot())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client error 403")
	})

	t.Run("server errors fail delivery", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		err := New(server.URL).Notify(ctx, testSnapshot())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server error 502")
	})

	t.Run("any response below 400 counts as delivered", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		assert.NoError(t, New(server.URL).Notify(ctx, testSnapshot()))
	})

	t.Run("unreachable endpoints fail delivery", func(t *testing.T) {
		n := New("http://127.0.0.1:1", WithTimeout(100*time.Millisecond))
		assert.Error(t, n.Notify(ctx, testSnapshot()))
	})
}

func TestNotifier_Name(t *testing.T) {
	assert.Equal(t, "webhook", New("http://localhost").Name())
}
