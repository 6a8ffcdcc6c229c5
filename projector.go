package caseflow

import "fmt"

// trackOrder fixes the evaluation order of tracks wherever derivation must be
// deterministic.
var trackOrder = []Track{TrackGrounds, TrackCompensation, TrackTimeExtension}

// ComputeState folds an ordered event sequence into the current case state.
// It is a pure left-fold: an empty state is seeded, then each event is applied
// by the reducer dedicated to its event type. An event type outside the known
// closed set is a fatal error, never silently ignored. For any fixed event
// sequence the result is deterministic.
func ComputeState(events []Event) (CaseState, error) {
	state := newCaseState()
	for i, ev := range events {
		if err := applyEvent(&state, ev); err != nil {
			return CaseState{}, fmt.Errorf("caseflow: replay failed at event %d: %w", i, err)
		}
		state.Revision++
	}
	deriveCaseFields(&state)
	return state, nil
}

// applyEvent mutates exactly one track or one case-level field of the working
// copy. Derived fields are recomputed afterwards by deriveCaseFields.
func applyEvent(state *CaseState, ev Event) error {
	if err := checkPayloadShape(ev.Type, ev.Payload); err != nil {
		return err
	}

	switch ev.Type {
	case EventCaseCreated:
		p := ev.Payload.(CaseCreatedPayload)
		state.CaseID = ev.CaseID
		state.Title = p.Title
		state.Created = true
		return nil

	case EventCaseClosed:
		state.OverallStatus = OverallClosed
		return nil
	}

	track, ok := ev.Type.TrackOf()
	if !ok {
		return NewMalformedEventError(string(ev.Type), fmt.Errorf("unknown event type"))
	}
	ts := state.Track(track)
	ts.LastUpdated = ev.Timestamp

	switch ev.Type {
	case EventGroundsDrafted, EventCompensationDrafted, EventTimeExtensionDrafted:
		applyClaim(ts, ev.Payload)
		ts.Status = StatusDraft

	case EventGroundsSubmitted, EventCompensationSubmitted, EventTimeExtensionSubmitted:
		applyClaim(ts, ev.Payload)
		ts.Status = StatusSent
		ts.Response = ""
		ts.ApprovedValue = nil

	case EventGroundsUpdated, EventCompensationUpdated, EventTimeExtensionUpdated:
		prev := ts.Status
		applyClaim(ts, ev.Payload)
		// Updating a responded claim reopens negotiation; a draft or sent
		// claim is revised in place.
		if prev.Responded() {
			ts.Status = StatusUnderNegotiation
		}

	case EventGroundsWithdrawn, EventCompensationWithdrawn, EventTimeExtensionWithdrawn:
		ts.Status = StatusWithdrawn

	case EventGroundsResponded, EventCompensationResponded, EventTimeExtensionResponded:
		applyResponse(ts, ev.Payload)

	case EventGroundsAccepted, EventCompensationAccepted, EventTimeExtensionAccepted:
		ts.Locked = true

	default:
		return NewMalformedEventError(string(ev.Type), fmt.Errorf("unknown event type"))
	}
	return nil
}

// applyClaim copies the claim fields of a drafted, submitted or updated claim
// payload onto the track and counts the revision.
func applyClaim(ts *TrackState, p Payload) {
	switch c := p.(type) {
	case GroundsClaimPayload:
		ts.Justification = c.Justification
		ts.ClaimMethod = c.ClaimMethod
		ts.RevisionCount++
	case CompensationClaimPayload:
		amount := c.Amount
		ts.ClaimedValue = &amount
		ts.Justification = c.Justification
		ts.ClaimMethod = c.ClaimMethod
		ts.RevisionCount++
	case TimeExtensionClaimPayload:
		days := c.Days
		ts.ClaimedValue = &days
		ts.Justification = c.Justification
		ts.ClaimMethod = c.ClaimMethod
		ts.RevisionCount++
	}
}

// applyResponse records the owner's verdict. A full approval locks the track
// at the claimed value. A partial approval records the granted value and
// leaves the claimant to accept or renegotiate. ResultUnspecified records the
// verdict without a status transition: the source legal framework leaves the
// consequence undefined, and the projector refuses to guess.
func applyResponse(ts *TrackState, p Payload) {
	var result ResponseResult
	var value *int64

	switch r := p.(type) {
	case GroundsResponsePayload:
		result = r.Result
	case CompensationResponsePayload:
		result = r.Result
		value = r.ApprovedAmount
	case TimeExtensionResponsePayload:
		result = r.Result
		value = r.ApprovedDays
	}

	ts.Response = result

	switch result {
	case ResultApproved:
		ts.Status = StatusApproved
		ts.Locked = true
		if ts.ClaimedValue != nil {
			v := *ts.ClaimedValue
			ts.ApprovedValue = &v
		}
	case ResultPartiallyApproved:
		ts.Status = StatusPartiallyApproved
		if value != nil {
			v := *value
			ts.ApprovedValue = &v
		}
	case ResultRejectedDisagree:
		ts.Status = StatusRejectedDisagree
	case ResultRejectedLate:
		ts.Status = StatusRejectedLate
	case ResultUnspecified:
		// No transition. See the validator's unspecified-outcome note.
	}
}

// deriveCaseFields recomputes the derived case-level fields from the three
// track states. The derivation is a deterministic function of those statuses.
func deriveCaseFields(state *CaseState) {
	state.SumClaimed = 0
	state.SumApproved = 0
	if state.Compensation.ClaimedValue != nil {
		state.SumClaimed = *state.Compensation.ClaimedValue
	}
	if state.Compensation.ApprovedValue != nil {
		state.SumApproved = *state.Compensation.ApprovedValue
	}

	if state.OverallStatus != OverallClosed {
		state.OverallStatus = deriveOverallStatus(state)
	}
	state.NextAction = deriveNextAction(state)
}

func deriveOverallStatus(state *CaseState) OverallStatus {
	active := 0
	settled := 0
	approved := 0
	withdrawn := 0
	anySent := false
	anyNegotiating := false

	for _, track := range trackOrder {
		ts := state.Track(track)
		if !ts.Status.Active() {
			continue
		}
		active++
		if ts.Settled() {
			settled++
		}
		if ts.ApprovedTerminal() {
			approved++
		}
		if ts.Status == StatusWithdrawn {
			withdrawn++
		}
		if ts.Status == StatusSent {
			anySent = true
		}
		if (ts.Status.Responded() && !ts.Locked) || ts.Status == StatusUnderNegotiation {
			anyNegotiating = true
		}
	}

	switch {
	case active == 0:
		return OverallOpen
	case active == settled && withdrawn == active:
		return OverallWithdrawn
	case active == settled && approved > 0:
		return OverallAgreed
	case anySent:
		return OverallAwaitingResponse
	case anyNegotiating:
		return OverallUnderNegotiation
	default:
		return OverallOpen
	}
}

func deriveNextAction(state *CaseState) *NextRequiredAction {
	if state.OverallStatus == OverallClosed {
		return nil
	}
	if !state.Created {
		return &NextRequiredAction{Role: RoleClaimant, Action: ActionCreateCase}
	}

	switch state.OverallStatus {
	case OverallAgreed, OverallWithdrawn:
		return &NextRequiredAction{Role: RoleOwner, Action: ActionClose}
	}

	// Owner responses take priority over claimant work: a sent claim is
	// waiting on the other party.
	for _, track := range trackOrder {
		if state.Track(track).Status == StatusSent {
			return &NextRequiredAction{Role: RoleOwner, Track: track, Action: ActionRespond}
		}
	}
	for _, track := range trackOrder {
		ts := state.Track(track)
		if (ts.Status.Responded() && !ts.Locked) || ts.Status == StatusUnderNegotiation {
			return &NextRequiredAction{Role: RoleClaimant, Track: track, Action: ActionSettle}
		}
	}
	for _, track := range trackOrder {
		if state.Track(track).Status == StatusDraft {
			return &NextRequiredAction{Role: RoleClaimant, Track: track, Action: ActionSubmitClaim}
		}
	}
	return &NextRequiredAction{Role: RoleClaimant, Track: TrackGrounds, Action: ActionSubmitClaim}
}
