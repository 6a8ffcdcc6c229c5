package casetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/caseflow"
)

func TestSettledCase(t *testing.T) {
	engine, adapter := SettledCase(t, "case-1")

	_, state, err := engine.GetState(context.Background(), "case-1")
	require.NoError(t, err)

	assert.True(t, state.Created)
	AssertTrackStatus(t, state, caseflow.TrackGrounds, caseflow.StatusApproved)
	AssertTrackStatus(t, state, caseflow.TrackCompensation, caseflow.StatusPartiallyApproved)
	AssertLocked(t, state, caseflow.TrackCompensation, true)
	assert.Equal(t, int64(350000), state.SumApproved)
	assert.Equal(t, 6, adapter.EventCount())
}

func TestMustSubmit(t *testing.T) {
	engine, adapter := NewEngine()

	version, state := MustSubmit(t, engine,
		CreateCase("case-1", "test case"),
		SubmitGrounds("case-1", "unforeseen conditions"),
		SubmitTimeExtension("case-1", 14),
		RespondTimeExtension("case-1", caseflow.ResultPartiallyApproved, Int64(7)),
	)

	assert.Equal(t, int64(4), version)
	AssertTrackStatus(t, state, caseflow.TrackTimeExtension, caseflow.StatusPartiallyApproved)
	assert.Equal(t, 4, adapter.EventCount())
}

func TestReplay(t *testing.T) {
	state := Replay(t,
		CreateCase("case-1", "test case"),
		SubmitGrounds("case-1", "unforeseen conditions"),
		Withdraw("case-1", caseflow.TrackGrounds),
	)

	assert.True(t, state.Created)
	AssertTrackStatus(t, state, caseflow.TrackGrounds, caseflow.StatusWithdrawn)
}

func TestRecordingNotifier(t *testing.T) {
	notifier := &RecordingNotifier{}
	engine, _ := NewEngine(caseflow.WithNotifier(notifier))

	MustSubmit(t, engine, CreateCase("case-1", "test case"))

	snapshots := notifier.Snapshots()
	require.Len(t, snapshots, 1)
	assert.Equal(t, int64(1), snapshots[0].Version)
	assert.Equal(t, caseflow.EventCaseCreated, snapshots[0].Event.Type)
	assert.Equal(t, "recording", notifier.Name())
}

func TestRecordingIndex(t *testing.T) {
	index := &RecordingIndex{}
	engine, _ := NewEngine(caseflow.WithIndex(index))

	MustSubmit(t, engine,
		CreateCase("case-1", "first case"),
		CreateCase("case-2", "second case"),
	)

	updates := index.Updates()
	require.Len(t, updates, 2)

	entry, ok := index.Get(context.Background(), "case-2")
	require.True(t, ok)
	assert.Equal(t, "second case", entry.Title)

	listed, err := index.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestInt64(t *testing.T) {
	p := Int64(42)
	require.NotNil(t, p)
	assert.Equal(t, int64(42), *p)
}
