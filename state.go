package caseflow

import "time"

// TrackStatus is a member of the per-track status state machine:
//
//	NotApplicable → Draft → Sent → {Approved | PartiallyApproved |
//	                                RejectedDisagree | RejectedLate}
//
// Approved and PartiallyApproved either lock (terminal, immutable) or enter
// UnderNegotiation for a further revision cycle back to Sent. Any non-terminal
// status may transition to Withdrawn (terminal).
type TrackStatus string

// Track statuses.
const (
	StatusNotApplicable     TrackStatus = "not_applicable"
	StatusDraft             TrackStatus = "draft"
	StatusSent              TrackStatus = "sent"
	StatusApproved          TrackStatus = "approved"
	StatusPartiallyApproved TrackStatus = "partially_approved"
	StatusRejectedDisagree  TrackStatus = "rejected_disagree"
	StatusRejectedLate      TrackStatus = "rejected_late"
	StatusUnderNegotiation  TrackStatus = "under_negotiation"
	StatusWithdrawn         TrackStatus = "withdrawn"
)

// Active reports whether the track carries a claim at all.
func (s TrackStatus) Active() bool {
	return s != StatusNotApplicable
}

// AtLeastSent reports whether the claim has left the claimant's drawer: it
// has been sent, responded to, or is under renegotiation.
func (s TrackStatus) AtLeastSent() bool {
	switch s {
	case StatusSent, StatusApproved, StatusPartiallyApproved,
		StatusRejectedDisagree, StatusRejectedLate, StatusUnderNegotiation:
		return true
	}
	return false
}

// Responded reports whether the status records an owner verdict.
func (s TrackStatus) Responded() bool {
	switch s {
	case StatusApproved, StatusPartiallyApproved, StatusRejectedDisagree, StatusRejectedLate:
		return true
	}
	return false
}

// TrackState is the projected state of a single negotiation track.
type TrackState struct {
	// Status is the current position in the track state machine.
	Status TrackStatus `json:"status"`

	// ClaimedValue is the claimed amount (minor units for compensation,
	// days for time extension). Nil for the grounds track and for tracks
	// without a claim.
	ClaimedValue *int64 `json:"claimedValue,omitempty"`

	// ClaimMethod is the calculation or substantiation method named by the claimant.
	ClaimMethod string `json:"claimMethod,omitempty"`

	// Justification is the claimant's substantiation.
	Justification string `json:"justification,omitempty"`

	// Response is the responding party's latest verdict, if any.
	Response ResponseResult `json:"response,omitempty"`

	// ApprovedValue is the value granted by the owner. Nil until a response
	// carrying a value has been recorded.
	ApprovedValue *int64 `json:"approvedValue,omitempty"`

	// Locked is true once the track is terminally settled. No event type
	// may mutate a locked track.
	Locked bool `json:"locked"`

	// RevisionCount is the number of claim revisions (drafts, submissions
	// and updates) recorded for this track.
	RevisionCount int `json:"revisionCount"`

	// LastUpdated is the timestamp of the last event touching this track.
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// Variance returns approved minus claimed value, or nil when either side is
// not yet known. Computed at read time from stored fields; never cached.
func (t TrackState) Variance() *int64 {
	if t.ClaimedValue == nil || t.ApprovedValue == nil {
		return nil
	}
	v := *t.ApprovedValue - *t.ClaimedValue
	return &v
}

// ApprovalPercentage returns approved/claimed as a percentage, or nil when
// the claimed value is zero or either side is unknown, to avoid
// division-by-zero ambiguity.
func (t TrackState) ApprovalPercentage() *float64 {
	if t.ClaimedValue == nil || t.ApprovedValue == nil || *t.ClaimedValue == 0 {
		return nil
	}
	p := float64(*t.ApprovedValue) / float64(*t.ClaimedValue) * 100
	return &p
}

// Immutable reports whether the track accepts no further mutation events.
func (t TrackState) Immutable() bool {
	return t.Locked || t.Status == StatusWithdrawn
}

// ApprovedTerminal reports whether the track is locked with an approving
// verdict.
func (t TrackState) ApprovedTerminal() bool {
	return t.Locked && (t.Status == StatusApproved || t.Status == StatusPartiallyApproved)
}

// Settled reports whether the track no longer blocks case closing: it is
// inactive, approved and locked, or withdrawn.
func (t TrackState) Settled() bool {
	return t.Status == StatusNotApplicable || t.Status == StatusWithdrawn || t.ApprovedTerminal()
}

// OverallStatus is the derived case-level status, a deterministic function of
// the three track statuses plus the closing event.
type OverallStatus string

// Overall case statuses.
const (
	OverallOpen             OverallStatus = "open"
	OverallAwaitingResponse OverallStatus = "awaiting_response"
	OverallUnderNegotiation OverallStatus = "under_negotiation"
	OverallAgreed           OverallStatus = "agreed"
	OverallWithdrawn        OverallStatus = "withdrawn"
	OverallClosed           OverallStatus = "closed"
)

// Terminal reports whether the case accepts no further events.
func (s OverallStatus) Terminal() bool {
	return s == OverallClosed
}

// Action names for NextRequiredAction.
const (
	ActionCreateCase  = "create_case"
	ActionSubmitClaim = "submit_claim"
	ActionRespond     = "respond"
	ActionSettle      = "accept_or_revise"
	ActionClose       = "close_case"
)

// NextRequiredAction names the role and track that must act next so
// integrators can drive workflow UI without re-deriving the rules.
type NextRequiredAction struct {
	// Role is the party that must act.
	Role Role `json:"role"`

	// Track is the track requiring action; empty for case-level actions.
	Track Track `json:"track,omitempty"`

	// Action is the kind of action required.
	Action string `json:"action"`
}

// CaseState is the projection of a case's ordered event log. It is always
// derivable by replay and never the sole source of truth; no field is mutated
// outside of re-folding.
type CaseState struct {
	// CaseID identifies the case.
	CaseID string `json:"caseId"`

	// Title is the case title from the creation event.
	Title string `json:"title"`

	// Created is true once the creation event has been applied.
	Created bool `json:"created"`

	// Grounds is the liability track.
	Grounds TrackState `json:"grounds"`

	// Compensation is the monetary track.
	Compensation TrackState `json:"compensation"`

	// TimeExtension is the schedule track.
	TimeExtension TrackState `json:"timeExtension"`

	// OverallStatus is the derived case-level status.
	OverallStatus OverallStatus `json:"overallStatus"`

	// NextAction is the derived next required action; nil once the case is closed.
	NextAction *NextRequiredAction `json:"nextAction,omitempty"`

	// SumClaimed is the total claimed monetary value in minor units.
	SumClaimed int64 `json:"sumClaimed"`

	// SumApproved is the total approved monetary value in minor units.
	SumApproved int64 `json:"sumApproved"`

	// Revision is the number of events folded into this state; it equals
	// the case version.
	Revision int64 `json:"revision"`
}

// Track returns a pointer to the state of the named track, or nil for an
// unknown track.
func (s *CaseState) Track(t Track) *TrackState {
	switch t {
	case TrackGrounds:
		return &s.Grounds
	case TrackCompensation:
		return &s.Compensation
	case TrackTimeExtension:
		return &s.TimeExtension
	}
	return nil
}

// Tracks returns the three track states keyed by track, for iteration.
func (s *CaseState) Tracks() map[Track]*TrackState {
	return map[Track]*TrackState{
		TrackGrounds:       &s.Grounds,
		TrackCompensation:  &s.Compensation,
		TrackTimeExtension: &s.TimeExtension,
	}
}

// Closed reports whether the case has been terminally closed.
func (s *CaseState) Closed() bool {
	return s.OverallStatus == OverallClosed
}

// newCaseState seeds the initial empty projection.
func newCaseState() CaseState {
	return CaseState{
		Grounds:       TrackState{Status: StatusNotApplicable},
		Compensation:  TrackState{Status: StatusNotApplicable},
		TimeExtension: TrackState{Status: StatusNotApplicable},
		OverallStatus: OverallOpen,
	}
}
