package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/caseflow/adapters"
	"github.com/caseflow/caseflow/testing/casetest"
)

func TestNewAdapter_Options(t *testing.T) {
	t.Run("defaults to the caseflow schema", func(t *testing.T) {
		adapter, err := NewAdapter("postgres://localhost:5432/caseflow")
		require.NoError(t, err)
		defer adapter.Close()

		assert.Equal(t, "caseflow", adapter.Schema())
	})

	t.Run("custom schema", func(t *testing.T) {
		adapter, err := NewAdapter("postgres://localhost:5432/caseflow", WithSchema("claims"))
		require.NoError(t, err)
		defer adapter.Close()

		assert.Equal(t, "claims", adapter.Schema())
	})

	t.Run("connection pool options", func(t *testing.T) {
		adapter, err := NewAdapter("postgres://localhost:5432/caseflow",
			WithMaxConnections(10),
			WithMaxIdleConnections(5),
			WithConnectionMaxLifetime(time.Minute),
		)
		require.NoError(t, err)
		defer adapter.Close()

		assert.NotNil(t, adapter.DB())
	})
}

func TestPostgresAdapter_Closed(t *testing.T) {
	ctx := context.Background()

	adapter, err := NewAdapter("postgres://localhost:5432/caseflow")
	require.NoError(t, err)
	require.NoError(t, adapter.Close())

	_, err = adapter.Append(ctx, "case-1", []adapters.EventRecord{{Type: "CaseCreated", Data: []byte(`{}`)}}, adapters.NoCase)
	assert.ErrorIs(t, err, ErrAdapterClosed)

	_, _, err = adapter.Load(ctx, "case-1")
	assert.ErrorIs(t, err, ErrAdapterClosed)

	_, err = adapter.GetCaseInfo(ctx, "case-1")
	assert.ErrorIs(t, err, ErrAdapterClosed)

	_, err = adapter.ListCases(ctx, 0)
	assert.ErrorIs(t, err, ErrAdapterClosed)

	assert.ErrorIs(t, adapter.Ping(ctx), ErrAdapterClosed)
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("pgx driver errors", func(t *testing.T) {
		assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
		assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	})

	t.Run("lib/pq driver errors", func(t *testing.T) {
		assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
		assert.False(t, isUniqueViolation(&pq.Error{Code: "40001"}))
	})

	t.Run("wrapped errors are unwrapped", func(t *testing.T) {
		err := fmt.Errorf("insert failed: %w", &pgconn.PgError{Code: "23505"})
		assert.True(t, isUniqueViolation(err))
	})

	t.Run("unrelated errors", func(t *testing.T) {
		assert.False(t, isUniqueViolation(assert.AnError))
		assert.False(t, isUniqueViolation(nil))
	})
}

// integrationAdapter connects to the test database, skipping the test when no
// database is reachable. Each call gets a throwaway schema.
func integrationAdapter(t *testing.T) *PostgresAdapter {
	t.Helper()
	ctx := context.Background()

	db, err := casetest.PostgresDB(ctx, casetest.PostgresURL())
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}

	schema := casetest.UniqueSchema("caseflow_test")
	adapter := NewAdapterWithDB(db, WithSchema(schema))
	require.NoError(t, adapter.Initialize(ctx))

	t.Cleanup(func() {
		_ = casetest.CleanupSchema(ctx, db, schema)
		_ = adapter.Close()
	})
	return adapter
}

func record(eventType string) adapters.EventRecord {
	return adapters.EventRecord{
		Type:  eventType,
		Data:  []byte(`{"title":"Delayed site access"}`),
		Actor: "contractor-a",
		Role:  "claimant",
	}
}

func TestPostgresAdapter_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	t.Run("append and load round trip", func(t *testing.T) {
		adapter := integrationAdapter(t)

		stored, err := adapter.Append(ctx, "case-1", []adapters.EventRecord{
			record("CaseCreated"),
			record("GroundsSubmitted"),
		}, adapters.NoCase)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, int64(1), stored[0].Version)
		assert.Equal(t, int64(2), stored[1].Version)

		events, version, err := adapter.Load(ctx, "case-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)
		require.Len(t, events, 2)
		assert.Equal(t, "CaseCreated", events[0].Type)
		assert.JSONEq(t, `{"title":"Delayed site access"}`, string(events[0].Data))
	})

	t.Run("unknown case loads empty", func(t *testing.T) {
		adapter := integrationAdapter(t)

		events, version, err := adapter.Load(ctx, "nope")
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Equal(t, int64(0), version)
	})

	t.Run("version conflicts", func(t *testing.T) {
		adapter := integrationAdapter(t)

		_, err := adapter.Append(ctx, "case-1", []adapters.EventRecord{record("CaseCreated")}, adapters.NoCase)
		require.NoError(t, err)

		_, err = adapter.Append(ctx, "case-1", []adapters.EventRecord{record("CaseCreated")}, adapters.NoCase)
		assert.ErrorIs(t, err, ErrConcurrencyConflict)

		_, err = adapter.Append(ctx, "case-1", []adapters.EventRecord{record("GroundsSubmitted")}, 7)
		require.Error(t, err)

		var cerr *adapters.ConcurrencyError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, int64(7), cerr.ExpectedVersion)
		assert.Equal(t, int64(1), cerr.ActualVersion)
	})

	t.Run("concurrent creators of one case", func(t *testing.T) {
		adapter := integrationAdapter(t)

		// With no case row yet there is nothing for FOR UPDATE to serialize
		// on; the race falls through to the cases primary key and the loser
		// must still surface a concurrency conflict.
		const writers = 4
		errs := make([]error, writers)
		var wg sync.WaitGroup
		wg.Add(writers)
		for i := 0; i < writers; i++ {
			go func(i int) {
				defer wg.Done()
				_, errs[i] = adapter.Append(ctx, "case-1",
					[]adapters.EventRecord{record("CaseCreated")}, adapters.NoCase)
			}(i)
		}
		wg.Wait()

		won := 0
		for _, err := range errs {
			if err == nil {
				won++
				continue
			}
			assert.ErrorIs(t, err, ErrConcurrencyConflict)
		}
		assert.Equal(t, 1, won)

		_, version, err := adapter.Load(ctx, "case-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)
	})

	t.Run("case info and listing", func(t *testing.T) {
		adapter := integrationAdapter(t)

		_, err := adapter.Append(ctx, "case-1", []adapters.EventRecord{record("CaseCreated")}, adapters.NoCase)
		require.NoError(t, err)
		_, err = adapter.Append(ctx, "case-2", []adapters.EventRecord{record("CaseCreated")}, adapters.NoCase)
		require.NoError(t, err)

		info, err := adapter.GetCaseInfo(ctx, "case-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), info.Version)

		_, err = adapter.GetCaseInfo(ctx, "nope")
		assert.ErrorIs(t, err, ErrCaseNotFound)

		summaries, err := adapter.ListCases(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, summaries, 2)
		assert.Equal(t, "CaseCreated", summaries[0].LastEventType)

		limited, err := adapter.ListCases(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})
}
