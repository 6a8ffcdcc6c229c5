package caseflow

import "fmt"

// Rule names a business rule checked by the validator. Rule names are part of
// the external contract: clients receive them verbatim in validation errors.
type Rule string

// Business rules, grouped by family. Families are evaluated in a fixed order
// per event type (role gating, case lifecycle, track preconditions, closing
// precondition) and the first violation short-circuits, so error reporting is
// reproducible for a given event and state.
const (
	// RuleRoleRequired: every event type is restricted to exactly one actor role.
	RuleRoleRequired Rule = "ROLE_REQUIRED"

	// RuleCaseRequired: all events except creation require an existing case.
	RuleCaseRequired Rule = "CASE_REQUIRED"

	// RuleCaseExists: the creation event requires the case to not exist.
	RuleCaseExists Rule = "CASE_EXISTS"

	// RuleCaseClosed: no event is accepted once the case is closed.
	RuleCaseClosed Rule = "CASE_CLOSED"

	// RuleGroundsRequired: compensation and time extension claims are only
	// admissible once the grounds claim has been sent.
	RuleGroundsRequired Rule = "GROUNDS_REQUIRED"

	// RuleNotLocked: a locked or withdrawn track accepts no further mutation.
	RuleNotLocked Rule = "NOT_LOCKED"

	// RuleActiveClaimRequired: updates and withdrawals require an active claim.
	RuleActiveClaimRequired Rule = "ACTIVE_CLAIM_REQUIRED"

	// RuleTrackNotSent: responses require the target claim to have been
	// sent; drafts and absent claims are never responded to.
	RuleTrackNotSent Rule = "TRACK_NOT_SENT"

	// RuleNotResponded: accepting requires a pending partial approval;
	// rejections and absent verdicts cannot be accepted.
	RuleNotResponded Rule = "NOT_RESPONDED"

	// RuleTracksNotSettled: closing requires every active track to be settled.
	RuleTracksNotSettled Rule = "TRACKS_NOT_SETTLED"
)

// ValidationResult is the outcome of checking a proposed event against the
// current case state.
type ValidationResult struct {
	// Valid is true when no rule was violated.
	Valid bool

	// Rule names the violated rule when Valid is false.
	Rule Rule

	// Message is a human-readable description of the violation.
	Message string
}

// Err converts an invalid result into a ValidationError, or nil for a valid one.
func (r ValidationResult) Err(eventType EventType) error {
	if r.Valid {
		return nil
	}
	return NewValidationError(eventType, r.Rule, r.Message)
}

func valid() ValidationResult {
	return ValidationResult{Valid: true}
}

func violation(rule Rule, format string, args ...interface{}) ValidationResult {
	return ValidationResult{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// Validate checks a proposed event against the current case state. It is a
// pure function: no I/O, no side effects, fully unit-testable with
// handcrafted states. Validation always precedes persistence.
func Validate(event Event, state CaseState) ValidationResult {
	// Family 1: role gating.
	if required := event.Type.RequiredRole(); event.Role != required {
		return violation(RuleRoleRequired,
			"event %s requires the %s role, got %s", event.Type, required, event.Role)
	}

	// Family 2: case lifecycle gating.
	if event.Type == EventCaseCreated {
		if state.Created {
			return violation(RuleCaseExists, "case %s already exists", event.CaseID)
		}
		return valid()
	}
	if !state.Created {
		return violation(RuleCaseRequired, "case %s does not exist", event.CaseID)
	}
	if state.Closed() {
		return violation(RuleCaseClosed, "case %s is closed", event.CaseID)
	}

	// Family 4 is reached directly for the closing event; everything else
	// passes through the track precondition family first.
	if event.Type == EventCaseClosed {
		return validateClosing(state)
	}

	track, ok := event.Type.TrackOf()
	if !ok {
		// Unreachable for the closed event set; kept for parity with the
		// projector's fail-fast stance.
		return violation(RuleCaseRequired, "event %s targets no track", event.Type)
	}
	return validateTrackEvent(event.Type, track, state)
}

// validateTrackEvent applies family 3, the track precondition gates, in a
// fixed order per event kind.
func validateTrackEvent(eventType EventType, track Track, state CaseState) ValidationResult {
	ts := state.Track(track)

	switch eventType {
	case EventGroundsDrafted, EventGroundsSubmitted,
		EventCompensationDrafted, EventCompensationSubmitted,
		EventTimeExtensionDrafted, EventTimeExtensionSubmitted:
		if track != TrackGrounds && !state.Grounds.Status.AtLeastSent() {
			return violation(RuleGroundsRequired,
				"%s claims require the grounds claim to be sent first (grounds status: %s)",
				track, state.Grounds.Status)
		}
		if ts.Immutable() {
			return violation(RuleNotLocked, "%s track is %s and accepts no further claims",
				track, immutableReason(ts))
		}

	case EventGroundsUpdated, EventCompensationUpdated, EventTimeExtensionUpdated:
		if track != TrackGrounds && !state.Grounds.Status.AtLeastSent() {
			return violation(RuleGroundsRequired,
				"%s claims require the grounds claim to be sent first (grounds status: %s)",
				track, state.Grounds.Status)
		}
		if ts.Immutable() {
			return violation(RuleNotLocked, "%s track is %s and accepts no further updates",
				track, immutableReason(ts))
		}
		if !ts.Status.Active() {
			return violation(RuleActiveClaimRequired, "%s track has no claim to update", track)
		}

	case EventGroundsWithdrawn, EventCompensationWithdrawn, EventTimeExtensionWithdrawn:
		if ts.Immutable() {
			return violation(RuleNotLocked, "%s track is %s and cannot be withdrawn",
				track, immutableReason(ts))
		}
		if !ts.Status.Active() {
			return violation(RuleActiveClaimRequired, "%s track has no claim to withdraw", track)
		}

	case EventGroundsResponded, EventCompensationResponded, EventTimeExtensionResponded:
		if ts.Immutable() {
			return violation(RuleNotLocked, "%s track is %s and accepts no further responses",
				track, immutableReason(ts))
		}
		if !ts.Status.AtLeastSent() {
			return violation(RuleTrackNotSent,
				"%s track has not been sent (status: %s); drafts are never responded to",
				track, ts.Status)
		}

	case EventGroundsAccepted, EventCompensationAccepted, EventTimeExtensionAccepted:
		if ts.Immutable() {
			return violation(RuleNotLocked, "%s track is already %s", track, immutableReason(ts))
		}
		// Only a partial approval is open for acceptance. A full approval is
		// already locked, and a rejection offers nothing to accept; the
		// claimant's moves there are update or withdrawal.
		if ts.Status != StatusPartiallyApproved {
			return violation(RuleNotResponded,
				"%s track has no acceptable owner response (status: %s)", track, ts.Status)
		}
	}

	return valid()
}

// validateClosing applies family 4: a case closes only when every active
// track is settled.
func validateClosing(state CaseState) ValidationResult {
	for _, track := range trackOrder {
		ts := state.Track(track)
		if ts.Status.Active() && !ts.Settled() {
			return violation(RuleTracksNotSettled,
				"%s track is not settled (status: %s, locked: %t)", track, ts.Status, ts.Locked)
		}
	}
	return valid()
}

func immutableReason(ts *TrackState) string {
	if ts.Locked {
		return "locked"
	}
	return string(ts.Status)
}
