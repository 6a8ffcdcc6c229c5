package caseflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimantEvent(eventType EventType, payload Payload) Event {
	return Event{
		CaseID:  "case-1",
		Type:    eventType,
		Actor:   "contractor-a",
		Role:    RoleClaimant,
		Payload: payload,
	}
}

func ownerEvent(eventType EventType, payload Payload) Event {
	return Event{
		CaseID:  "case-1",
		Type:    eventType,
		Actor:   "owner-dept",
		Role:    RoleOwner,
		Payload: payload,
	}
}

func mustCompute(t *testing.T, events []Event) CaseState {
	t.Helper()
	state, err := ComputeState(events)
	require.NoError(t, err)
	return state
}

func TestComputeState_Empty(t *testing.T) {
	state := mustCompute(t, nil)

	assert.False(t, state.Created)
	assert.Equal(t, int64(0), state.Revision)
	assert.Equal(t, OverallOpen, state.OverallStatus)
	assert.Equal(t, StatusNotApplicable, state.Grounds.Status)

	require.NotNil(t, state.NextAction)
	assert.Equal(t, ActionCreateCase, state.NextAction.Action)
	assert.Equal(t, RoleClaimant, state.NextAction.Role)
}

func TestComputeState_Deterministic(t *testing.T) {
	events := []Event{
		claimantEvent(EventCaseCreated, CaseCreatedPayload{Title: "Delay claim"}),
		claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "rock"}),
		ownerEvent(EventGroundsResponded, GroundsResponsePayload{Result: ResultApproved}),
		claimantEvent(EventCompensationSubmitted, CompensationClaimPayload{Amount: 500000}),
	}

	first := mustCompute(t, events)
	second := mustCompute(t, events)
	assert.Equal(t, first, second)
}

func TestComputeState_CaseCreated(t *testing.T) {
	state := mustCompute(t, []Event{
		claimantEvent(EventCaseCreated, CaseCreatedPayload{Title: "Delay claim", Project: "E6"}),
	})

	assert.True(t, state.Created)
	assert.Equal(t, "case-1", state.CaseID)
	assert.Equal(t, "Delay claim", state.Title)
	assert.Equal(t, int64(1), state.Revision)
	assert.Equal(t, OverallOpen, state.OverallStatus)
}

func TestComputeState_GroundsApprovalLocksTrack(t *testing.T) {
	state := mustCompute(t, []Event{
		claimantEvent(EventCaseCreated, CaseCreatedPayload{Title: "T"}),
		claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "rock"}),
		ownerEvent(EventGroundsResponded, GroundsResponsePayload{Result: ResultApproved}),
	})

	assert.Equal(t, StatusApproved, state.Grounds.Status)
	assert.True(t, state.Grounds.Locked)
	assert.Equal(t, ResultApproved, state.Grounds.Response)
	assert.Nil(t, state.Grounds.ClaimedValue)
}

func TestComputeState_PartialApproval(t *testing.T) {
	events := []Event{
		claimantEvent(EventCaseCreated, CaseCreatedPayload{Title: "T"}),
		claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "rock"}),
		ownerEvent(EventGroundsResponded, GroundsResponsePayload{Result: ResultApproved}),
		claimantEvent(EventCompensationSubmitted, CompensationClaimPayload{Amount: 500000, Currency: "NOK"}),
		ownerEvent(EventCompensationResponded, CompensationResponsePayload{
			Result:         ResultPartiallyApproved,
			ApprovedAmount: int64p(350000),
		}),
	}

	t.Run("records the granted value without locking", func(t *testing.T) {
		state := mustCompute(t, events)

		assert.Equal(t, StatusPartiallyApproved, state.Compensation.Status)
		assert.False(t, state.Compensation.Locked)
		require.NotNil(t, state.Compensation.ApprovedValue)
		assert.Equal(t, int64(350000), *state.Compensation.ApprovedValue)

		v := state.Compensation.Variance()
		require.NotNil(t, v)
		assert.Equal(t, int64(-150000), *v)

		p := state.Compensation.ApprovalPercentage()
		require.NotNil(t, p)
		assert.InDelta(t, 70.0, *p, 0.0001)

		assert.Equal(t, int64(500000), state.SumClaimed)
		assert.Equal(t, int64(350000), state.SumApproved)
	})

	t.Run("acceptance locks the track at the approved value", func(t *testing.T) {
		state := mustCompute(t, append(events,
			claimantEvent(EventCompensationAccepted, AcceptancePayload{}),
		))

		assert.True(t, state.Compensation.Locked)
		assert.Equal(t, StatusPartiallyApproved, state.Compensation.Status)
		assert.Equal(t, int64(350000), *state.Compensation.ApprovedValue)
		assert.Equal(t, OverallAgreed, state.OverallStatus)

		require.NotNil(t, state.NextAction)
		assert.Equal(t, ActionClose, state.NextAction.Action)
		assert.Equal(t, RoleOwner, state.NextAction.Role)
	})

	t.Run("revision reopens negotiation", func(t *testing.T) {
		state := mustCompute(t, append(events,
			claimantEvent(EventCompensationUpdated, CompensationClaimPayload{Amount: 420000}),
		))

		assert.Equal(t, StatusUnderNegotiation, state.Compensation.Status)
		assert.Equal(t, int64(420000), *state.Compensation.ClaimedValue)
		assert.Equal(t, 2, state.Compensation.RevisionCount)
	})
}

func TestComputeState_FullApprovalRecordsClaimedValue(t *testing.T) {
	state := mustCompute(t, []Event{
		claimantEvent(EventCaseCreated, CaseCreatedPayload{Title: "T"}),
		claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "rock"}),
		ownerEvent(EventGroundsResponded, GroundsResponsePayload{Result: ResultApproved}),
		claimantEvent(EventCompensationSubmitted, CompensationClaimPayload{Amount: 500000}),
		ownerEvent(EventCompensationResponded, CompensationResponsePayload{Result: ResultApproved}),
	})

	assert.Equal(t, StatusApproved, state.Compensation.Status)
	assert.True(t, state.Compensation.Locked)
	require.NotNil(t, state.Compensation.ApprovedValue)
	assert.Equal(t, int64(500000), *state.Compensation.ApprovedValue)
	assert.Equal(t, int64(500000), state.SumApproved)
}

func TestComputeState_ResubmissionClearsResponse(t *testing.T) {
	state := mustCompute(t, []Event{
		claimantEvent(EventCaseCreated, CaseCreatedPayload{Title: "T"}),
		claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "rock"}),
		ownerEvent(EventGroundsResponded, GroundsResponsePayload{Result: ResultRejectedDisagree}),
		claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "supplementary survey"}),
	})

	assert.Equal(t, StatusSent, state.Grounds.Status)
	assert.Empty(t, state.Grounds.Response)
	assert.Nil(t, state.Grounds.ApprovedValue)
	assert.Equal(t, 2, state.Grounds.RevisionCount)
	assert.Equal(t, OverallAwaitingResponse, state.OverallStatus)
}

func TestComputeState_UnspecifiedResultHasNoTransition(t *testing.T) {
	state := mustCompute(t, []Event{
		claimantEvent(EventCaseCreated, CaseCreatedPayload{Title: "T"}),
		claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "rock"}),
		ownerEvent(EventGroundsResponded, GroundsResponsePayload{Result: ResultUnspecified}),
	})

	// The verdict is recorded but the status stays where it was.
	assert.Equal(t, ResultUnspecified, state.Grounds.Response)
	assert.Equal(t, StatusSent, state.Grounds.Status)
	assert.False(t, state.Grounds.Locked)
}

func TestComputeState_Withdrawal(t *testing.T) {
	state := mustCompute(t, []Event{
		claimantEvent(EventCaseCreated, CaseCreatedPayload{Title: "T"}),
		claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "rock"}),
		claimantEvent(EventGroundsWithdrawn, WithdrawalPayload{Reason: "settled on site"}),
	})

	assert.Equal(t, StatusWithdrawn, state.Grounds.Status)
	assert.True(t, state.Grounds.Immutable())
	assert.Equal(t, OverallWithdrawn, state.OverallStatus)
}

func TestComputeState_TimeExtension(t *testing.T) {
	state := mustCompute(t, []Event{
		claimantEvent(EventCaseCreated, CaseCreatedPayload{Title: "T"}),
		claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "rock"}),
		ownerEvent(EventGroundsResponded, GroundsResponsePayload{Result: ResultApproved}),
		claimantEvent(EventTimeExtensionSubmitted, TimeExtensionClaimPayload{Days: 14}),
		ownerEvent(EventTimeExtensionResponded, TimeExtensionResponsePayload{
			Result:       ResultPartiallyApproved,
			ApprovedDays: int64p(10),
		}),
	})

	require.NotNil(t, state.TimeExtension.ClaimedValue)
	assert.Equal(t, int64(14), *state.TimeExtension.ClaimedValue)
	require.NotNil(t, state.TimeExtension.ApprovedValue)
	assert.Equal(t, int64(10), *state.TimeExtension.ApprovedValue)

	// Day values never enter the monetary sums.
	assert.Equal(t, int64(0), state.SumClaimed)
	assert.Equal(t, int64(0), state.SumApproved)
}

func TestComputeState_Closing(t *testing.T) {
	state := mustCompute(t, []Event{
		claimantEvent(EventCaseCreated, CaseCreatedPayload{Title: "T"}),
		claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "rock"}),
		ownerEvent(EventGroundsResponded, GroundsResponsePayload{Result: ResultApproved}),
		ownerEvent(EventCaseClosed, CaseClosedPayload{}),
	})

	assert.Equal(t, OverallClosed, state.OverallStatus)
	assert.True(t, state.Closed())
	assert.Nil(t, state.NextAction)
}

func TestComputeState_NextAction(t *testing.T) {
	base := []Event{
		claimantEvent(EventCaseCreated, CaseCreatedPayload{Title: "T"}),
	}

	t.Run("fresh case asks the claimant to submit grounds", func(t *testing.T) {
		state := mustCompute(t, base)
		require.NotNil(t, state.NextAction)
		assert.Equal(t, RoleClaimant, state.NextAction.Role)
		assert.Equal(t, TrackGrounds, state.NextAction.Track)
		assert.Equal(t, ActionSubmitClaim, state.NextAction.Action)
	})

	t.Run("sent claim waits on the owner", func(t *testing.T) {
		state := mustCompute(t, append(base,
			claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "rock"}),
		))
		require.NotNil(t, state.NextAction)
		assert.Equal(t, RoleOwner, state.NextAction.Role)
		assert.Equal(t, ActionRespond, state.NextAction.Action)
	})

	t.Run("partial approval waits on the claimant", func(t *testing.T) {
		state := mustCompute(t, append(base,
			claimantEvent(EventGroundsSubmitted, GroundsClaimPayload{Justification: "rock"}),
			ownerEvent(EventGroundsResponded, GroundsResponsePayload{Result: ResultPartiallyApproved}),
		))
		require.NotNil(t, state.NextAction)
		assert.Equal(t, RoleClaimant, state.NextAction.Role)
		assert.Equal(t, ActionSettle, state.NextAction.Action)
	})

	t.Run("draft asks the claimant to submit", func(t *testing.T) {
		state := mustCompute(t, append(base,
			claimantEvent(EventGroundsDrafted, GroundsClaimPayload{Justification: "rock"}),
		))
		require.NotNil(t, state.NextAction)
		assert.Equal(t, RoleClaimant, state.NextAction.Role)
		assert.Equal(t, TrackGrounds, state.NextAction.Track)
		assert.Equal(t, ActionSubmitClaim, state.NextAction.Action)
	})
}

func TestComputeState_RejectsMismatchedPayload(t *testing.T) {
	_, err := ComputeState([]Event{
		claimantEvent(EventCaseCreated, GroundsClaimPayload{Justification: "wrong shape"}),
	})
	assert.ErrorIs(t, err, ErrMalformedEvent)
}
