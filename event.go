package caseflow

import (
	"encoding/json"
	"fmt"
	"time"
)

// Track identifies one of the three independently negotiated claim dimensions.
// Tracks never share state directly; they interact only through case-level
// preconditions enforced by the validator.
type Track string

// The three negotiation tracks of a case.
const (
	TrackGrounds       Track = "grounds"
	TrackCompensation  Track = "compensation"
	TrackTimeExtension Track = "time_extension"
)

// Valid reports whether the track is a member of the known set.
func (t Track) Valid() bool {
	switch t {
	case TrackGrounds, TrackCompensation, TrackTimeExtension:
		return true
	}
	return false
}

// Role identifies the party emitting an event. The two roles are mutually
// exclusive: claim-side events require the claimant, response and closing
// events require the owner.
type Role string

// Actor roles.
const (
	RoleClaimant Role = "claimant"
	RoleOwner    Role = "owner"
)

// Valid reports whether the role is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleClaimant || r == RoleOwner
}

// EventType identifies a member of the closed, finite event set.
// The payload shape of an event is determined exclusively by its type.
type EventType string

// Case-level event types.
const (
	EventCaseCreated EventType = "CaseCreated"
	EventCaseClosed  EventType = "CaseClosed"
)

// Grounds track event types.
const (
	EventGroundsDrafted   EventType = "GroundsDrafted"
	EventGroundsSubmitted EventType = "GroundsSubmitted"
	EventGroundsUpdated   EventType = "GroundsUpdated"
	EventGroundsWithdrawn EventType = "GroundsWithdrawn"
	EventGroundsResponded EventType = "GroundsResponded"
	EventGroundsAccepted  EventType = "GroundsAccepted"
)

// Compensation track event types.
const (
	EventCompensationDrafted   EventType = "CompensationDrafted"
	EventCompensationSubmitted EventType = "CompensationSubmitted"
	EventCompensationUpdated   EventType = "CompensationUpdated"
	EventCompensationWithdrawn EventType = "CompensationWithdrawn"
	EventCompensationResponded EventType = "CompensationResponded"
	EventCompensationAccepted  EventType = "CompensationAccepted"
)

// Time extension track event types.
const (
	EventTimeExtensionDrafted   EventType = "TimeExtensionDrafted"
	EventTimeExtensionSubmitted EventType = "TimeExtensionSubmitted"
	EventTimeExtensionUpdated   EventType = "TimeExtensionUpdated"
	EventTimeExtensionWithdrawn EventType = "TimeExtensionWithdrawn"
	EventTimeExtensionResponded EventType = "TimeExtensionResponded"
	EventTimeExtensionAccepted  EventType = "TimeExtensionAccepted"
)

// KnownEventTypes returns every member of the closed event type set, in a
// stable order.
func KnownEventTypes() []EventType {
	return []EventType{
		EventCaseCreated, EventCaseClosed,
		EventGroundsDrafted, EventGroundsSubmitted, EventGroundsUpdated,
		EventGroundsWithdrawn, EventGroundsResponded, EventGroundsAccepted,
		EventCompensationDrafted, EventCompensationSubmitted, EventCompensationUpdated,
		EventCompensationWithdrawn, EventCompensationResponded, EventCompensationAccepted,
		EventTimeExtensionDrafted, EventTimeExtensionSubmitted, EventTimeExtensionUpdated,
		EventTimeExtensionWithdrawn, EventTimeExtensionResponded, EventTimeExtensionAccepted,
	}
}

// Valid reports whether the event type is a member of the closed set.
func (t EventType) Valid() bool {
	switch t {
	case EventCaseCreated, EventCaseClosed,
		EventGroundsDrafted, EventGroundsSubmitted, EventGroundsUpdated,
		EventGroundsWithdrawn, EventGroundsResponded, EventGroundsAccepted,
		EventCompensationDrafted, EventCompensationSubmitted, EventCompensationUpdated,
		EventCompensationWithdrawn, EventCompensationResponded, EventCompensationAccepted,
		EventTimeExtensionDrafted, EventTimeExtensionSubmitted, EventTimeExtensionUpdated,
		EventTimeExtensionWithdrawn, EventTimeExtensionResponded, EventTimeExtensionAccepted:
		return true
	}
	return false
}

// TrackOf returns the track an event type mutates, and false for case-level
// event types.
func (t EventType) TrackOf() (Track, bool) {
	switch t {
	case EventGroundsDrafted, EventGroundsSubmitted, EventGroundsUpdated,
		EventGroundsWithdrawn, EventGroundsResponded, EventGroundsAccepted:
		return TrackGrounds, true
	case EventCompensationDrafted, EventCompensationSubmitted, EventCompensationUpdated,
		EventCompensationWithdrawn, EventCompensationResponded, EventCompensationAccepted:
		return TrackCompensation, true
	case EventTimeExtensionDrafted, EventTimeExtensionSubmitted, EventTimeExtensionUpdated,
		EventTimeExtensionWithdrawn, EventTimeExtensionResponded, EventTimeExtensionAccepted:
		return TrackTimeExtension, true
	}
	return "", false
}

// RequiredRole returns the single actor role allowed to emit this event type.
func (t EventType) RequiredRole() Role {
	switch t {
	case EventCaseClosed,
		EventGroundsResponded, EventCompensationResponded, EventTimeExtensionResponded:
		return RoleOwner
	default:
		return RoleClaimant
	}
}

// ResponseResult is the responding party's verdict on a sent claim.
type ResponseResult string

// Response results. ResultUnspecified records the source-domain scenarios
// whose legal consequence is undefined; it is deliberately not mapped to a
// status transition.
const (
	ResultApproved          ResponseResult = "approved"
	ResultPartiallyApproved ResponseResult = "partially_approved"
	ResultRejectedDisagree  ResponseResult = "rejected_disagree"
	ResultRejectedLate      ResponseResult = "rejected_late"
	ResultUnspecified       ResponseResult = "unspecified"
)

// Valid reports whether the result is a member of the known set.
func (r ResponseResult) Valid() bool {
	switch r {
	case ResultApproved, ResultPartiallyApproved, ResultRejectedDisagree,
		ResultRejectedLate, ResultUnspecified:
		return true
	}
	return false
}

// Payload is the closed union of event payload shapes. Exactly one concrete
// payload type is admissible per event type; DecodePayload rejects anything
// else.
type Payload interface {
	isPayload()
}

// CaseCreatedPayload opens a new case.
type CaseCreatedPayload struct {
	// Title is the human-readable case title (e.g., "Rock blasting delay, section 4").
	Title string `json:"title"`

	// Project optionally names the construction project.
	Project string `json:"project,omitempty"`

	// ContractRef optionally references the governing contract clause.
	ContractRef string `json:"contractRef,omitempty"`
}

// CaseClosedPayload terminates a case whose active tracks are all settled.
type CaseClosedPayload struct {
	// Note optionally records the closing remark.
	Note string `json:"note,omitempty"`
}

// GroundsClaimPayload carries the liability basis of the claim. Shared by the
// drafted, submitted and updated grounds events.
type GroundsClaimPayload struct {
	// Justification is the factual and legal basis for the claim.
	Justification string `json:"justification"`

	// ClaimMethod names how the claim basis was established (e.g., "global", "itemized").
	ClaimMethod string `json:"claimMethod,omitempty"`
}

// CompensationClaimPayload carries a monetary claim in minor currency units.
// Shared by the drafted, submitted and updated compensation events.
type CompensationClaimPayload struct {
	// Amount is the claimed compensation in minor units (e.g., øre, cents).
	Amount int64 `json:"amount"`

	// Currency is the ISO 4217 currency code.
	Currency string `json:"currency,omitempty"`

	// ClaimMethod names the calculation method.
	ClaimMethod string `json:"claimMethod,omitempty"`

	// Justification substantiates the amount.
	Justification string `json:"justification,omitempty"`
}

// TimeExtensionClaimPayload carries a deadline extension claim in whole days.
// Shared by the drafted, submitted and updated time extension events.
type TimeExtensionClaimPayload struct {
	// Days is the number of calendar days claimed.
	Days int64 `json:"days"`

	// ClaimMethod names the scheduling method used.
	ClaimMethod string `json:"claimMethod,omitempty"`

	// Justification substantiates the extension.
	Justification string `json:"justification,omitempty"`
}

// GroundsResponsePayload is the owner's verdict on the grounds track.
type GroundsResponsePayload struct {
	// Result is the response verdict.
	Result ResponseResult `json:"result"`

	// Note optionally explains the verdict.
	Note string `json:"note,omitempty"`
}

// CompensationResponsePayload is the owner's verdict on the compensation track.
type CompensationResponsePayload struct {
	// Result is the response verdict.
	Result ResponseResult `json:"result"`

	// ApprovedAmount is the amount granted in minor units. Required for
	// partial approvals, ignored otherwise.
	ApprovedAmount *int64 `json:"approvedAmount,omitempty"`

	// Note optionally explains the verdict.
	Note string `json:"note,omitempty"`
}

// TimeExtensionResponsePayload is the owner's verdict on the time extension track.
type TimeExtensionResponsePayload struct {
	// Result is the response verdict.
	Result ResponseResult `json:"result"`

	// ApprovedDays is the number of days granted. Required for partial
	// approvals, ignored otherwise.
	ApprovedDays *int64 `json:"approvedDays,omitempty"`

	// Note optionally explains the verdict.
	Note string `json:"note,omitempty"`
}

// WithdrawalPayload withdraws a non-terminal claim. Shared by the withdrawn
// events of all three tracks.
type WithdrawalPayload struct {
	// Reason optionally explains the withdrawal.
	Reason string `json:"reason,omitempty"`
}

// AcceptancePayload is the claimant's acceptance of a partial approval,
// locking the track at the approved value. Shared by the accepted events of
// all three tracks.
type AcceptancePayload struct {
	// Note optionally records the acceptance remark.
	Note string `json:"note,omitempty"`
}

func (CaseCreatedPayload) isPayload()           {}
func (CaseClosedPayload) isPayload()            {}
func (GroundsClaimPayload) isPayload()          {}
func (CompensationClaimPayload) isPayload()     {}
func (TimeExtensionClaimPayload) isPayload()    {}
func (GroundsResponsePayload) isPayload()       {}
func (CompensationResponsePayload) isPayload()  {}
func (TimeExtensionResponsePayload) isPayload() {}
func (WithdrawalPayload) isPayload()            {}
func (AcceptancePayload) isPayload()            {}

// Event is the immutable unit of the per-case append-only log. Events are
// created once and never edited or deleted; corrections are modeled as new
// events referencing the same case.
type Event struct {
	// ID is the globally unique event identifier. The engine assigns one
	// when left empty.
	ID string

	// CaseID identifies the case this event belongs to.
	CaseID string

	// Type is the event type, a member of the closed set.
	Type EventType

	// Timestamp is when the event occurred. The engine fills it with the
	// current time when zero.
	Timestamp time.Time

	// Actor is the identity of the person or system emitting the event.
	Actor string

	// Role is the actor's party role.
	Role Role

	// Comment is an optional free-text remark carried alongside the payload.
	Comment string

	// ReferencedEventID optionally points at an earlier event this one
	// corrects or responds to.
	ReferencedEventID string

	// Payload is the typed payload; its concrete type must match Type.
	Payload Payload
}

// Validate checks structural well-formedness of the event. Business rules are
// the validator's concern; this only rejects events that could never be valid.
func (e Event) Validate() error {
	if e.CaseID == "" {
		return NewMalformedEventError(string(e.Type), fmt.Errorf("case ID is required"))
	}
	if !e.Type.Valid() {
		return NewMalformedEventError(string(e.Type), fmt.Errorf("unknown event type"))
	}
	if e.Actor == "" {
		return NewMalformedEventError(string(e.Type), fmt.Errorf("actor is required"))
	}
	if !e.Role.Valid() {
		return NewMalformedEventError(string(e.Type), fmt.Errorf("unknown actor role %q", e.Role))
	}
	if e.Payload == nil {
		return NewMalformedEventError(string(e.Type), fmt.Errorf("payload is required"))
	}
	if err := checkPayloadShape(e.Type, e.Payload); err != nil {
		return err
	}
	return nil
}

// checkPayloadShape verifies that the concrete payload type matches the shape
// dictated by the event type.
func checkPayloadShape(t EventType, p Payload) error {
	ok := false
	switch t {
	case EventCaseCreated:
		_, ok = p.(CaseCreatedPayload)
	case EventCaseClosed:
		_, ok = p.(CaseClosedPayload)
	case EventGroundsDrafted, EventGroundsSubmitted, EventGroundsUpdated:
		_, ok = p.(GroundsClaimPayload)
	case EventCompensationDrafted, EventCompensationSubmitted, EventCompensationUpdated:
		_, ok = p.(CompensationClaimPayload)
	case EventTimeExtensionDrafted, EventTimeExtensionSubmitted, EventTimeExtensionUpdated:
		_, ok = p.(TimeExtensionClaimPayload)
	case EventGroundsResponded:
		_, ok = p.(GroundsResponsePayload)
	case EventCompensationResponded:
		_, ok = p.(CompensationResponsePayload)
	case EventTimeExtensionResponded:
		_, ok = p.(TimeExtensionResponsePayload)
	case EventGroundsWithdrawn, EventCompensationWithdrawn, EventTimeExtensionWithdrawn:
		_, ok = p.(WithdrawalPayload)
	case EventGroundsAccepted, EventCompensationAccepted, EventTimeExtensionAccepted:
		_, ok = p.(AcceptancePayload)
	}
	if !ok {
		return NewMalformedEventError(string(t),
			fmt.Errorf("payload type %T does not match event type", p))
	}
	return nil
}

// EncodePayload serializes a typed payload to its wire representation.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, NewMalformedEventError("", fmt.Errorf("payload is nil"))
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, NewMalformedEventError(fmt.Sprintf("%T", p), err)
	}
	return data, nil
}

// DecodePayload deserializes raw payload bytes into the typed payload
// dictated by the event type. An event type outside the closed set is a fatal
// decode error; it is never coerced into a best-guess shape.
func DecodePayload(t EventType, data []byte) (Payload, error) {
	switch t {
	case EventCaseCreated:
		var p CaseCreatedPayload
		return decodeInto(t, data, &p)
	case EventCaseClosed:
		var p CaseClosedPayload
		return decodeInto(t, data, &p)
	case EventGroundsDrafted, EventGroundsSubmitted, EventGroundsUpdated:
		var p GroundsClaimPayload
		return decodeInto(t, data, &p)
	case EventCompensationDrafted, EventCompensationSubmitted, EventCompensationUpdated:
		var p CompensationClaimPayload
		return decodeInto(t, data, &p)
	case EventTimeExtensionDrafted, EventTimeExtensionSubmitted, EventTimeExtensionUpdated:
		var p TimeExtensionClaimPayload
		return decodeInto(t, data, &p)
	case EventGroundsResponded:
		var p GroundsResponsePayload
		return decodeInto(t, data, &p)
	case EventCompensationResponded:
		var p CompensationResponsePayload
		return decodeInto(t, data, &p)
	case EventTimeExtensionResponded:
		var p TimeExtensionResponsePayload
		return decodeInto(t, data, &p)
	case EventGroundsWithdrawn, EventCompensationWithdrawn, EventTimeExtensionWithdrawn:
		var p WithdrawalPayload
		return decodeInto(t, data, &p)
	case EventGroundsAccepted, EventCompensationAccepted, EventTimeExtensionAccepted:
		var p AcceptancePayload
		return decodeInto(t, data, &p)
	}
	return nil, NewMalformedEventError(string(t), fmt.Errorf("unknown event type"))
}

// decodeInto unmarshals into ptr, which must point at a concrete payload
// struct, and returns the payload value.
func decodeInto[T Payload](t EventType, data []byte, ptr *T) (Payload, error) {
	if len(data) == 0 {
		return nil, NewMalformedEventError(string(t), fmt.Errorf("payload data is empty"))
	}
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, NewMalformedEventError(string(t), err)
	}
	return *ptr, nil
}
