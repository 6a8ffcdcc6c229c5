package caseflow

import "fmt"

// TimelineEntry is a display-ready summary of one event in a case log.
type TimelineEntry struct {
	// Version is the event's position in the log (1-based).
	Version int64 `json:"version"`

	// Type is the raw event type.
	Type EventType `json:"type"`

	// Label is a human-readable description of the event.
	Label string `json:"label"`

	// Detail summarizes the payload, when there is something to say.
	Detail string `json:"detail,omitempty"`

	// Actor is the identity of the emitting party.
	Actor string `json:"actor"`

	// Role is the actor's party role.
	Role Role `json:"role"`

	// Comment is the event's free-text remark, if any.
	Comment string `json:"comment,omitempty"`

	// Timestamp is when the event occurred.
	Timestamp string `json:"timestamp"`
}

// eventLabels maps each event type to its display label.
var eventLabels = map[EventType]string{
	EventCaseCreated:            "Case opened",
	EventCaseClosed:             "Case closed",
	EventGroundsDrafted:         "Grounds claim drafted",
	EventGroundsSubmitted:       "Grounds claim submitted",
	EventGroundsUpdated:         "Grounds claim updated",
	EventGroundsWithdrawn:       "Grounds claim withdrawn",
	EventGroundsResponded:       "Owner responded to grounds claim",
	EventGroundsAccepted:        "Grounds response accepted",
	EventCompensationDrafted:    "Compensation claim drafted",
	EventCompensationSubmitted:  "Compensation claim submitted",
	EventCompensationUpdated:    "Compensation claim updated",
	EventCompensationWithdrawn:  "Compensation claim withdrawn",
	EventCompensationResponded:  "Owner responded to compensation claim",
	EventCompensationAccepted:   "Compensation response accepted",
	EventTimeExtensionDrafted:   "Time extension claim drafted",
	EventTimeExtensionSubmitted: "Time extension claim submitted",
	EventTimeExtensionUpdated:   "Time extension claim updated",
	EventTimeExtensionWithdrawn: "Time extension claim withdrawn",
	EventTimeExtensionResponded: "Owner responded to time extension claim",
	EventTimeExtensionAccepted:  "Time extension response accepted",
}

// EventTypeLabel returns the display label for an event type, falling back to
// the raw type string for unknown types.
func EventTypeLabel(t EventType) string {
	if label, ok := eventLabels[t]; ok {
		return label
	}
	return string(t)
}

// buildTimeline converts a decoded event log into display entries. The entry
// version is the event's 1-based position, which by construction equals the
// stored version.
func buildTimeline(events []Event) []TimelineEntry {
	entries := make([]TimelineEntry, len(events))
	for i, ev := range events {
		entries[i] = TimelineEntry{
			Version:   int64(i + 1),
			Type:      ev.Type,
			Label:     EventTypeLabel(ev.Type),
			Detail:    payloadDetail(ev.Payload),
			Actor:     ev.Actor,
			Role:      ev.Role,
			Comment:   ev.Comment,
			Timestamp: ev.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		}
	}
	return entries
}

// payloadDetail renders the payload fields worth surfacing in a timeline.
func payloadDetail(p Payload) string {
	switch v := p.(type) {
	case CaseCreatedPayload:
		if v.Project != "" {
			return fmt.Sprintf("%s (project %s)", v.Title, v.Project)
		}
		return v.Title
	case CaseClosedPayload:
		return v.Note
	case CompensationClaimPayload:
		return fmt.Sprintf("%d %s claimed (%s)", v.Amount, v.Currency, v.ClaimMethod)
	case TimeExtensionClaimPayload:
		return fmt.Sprintf("%d days claimed (%s)", v.Days, v.ClaimMethod)
	case GroundsClaimPayload:
		return v.ClaimMethod
	case GroundsResponsePayload:
		return string(v.Result)
	case CompensationResponsePayload:
		if v.ApprovedAmount != nil {
			return fmt.Sprintf("%s, %d approved", v.Result, *v.ApprovedAmount)
		}
		return string(v.Result)
	case TimeExtensionResponsePayload:
		if v.ApprovedDays != nil {
			return fmt.Sprintf("%s, %d days approved", v.Result, *v.ApprovedDays)
		}
		return string(v.Result)
	case WithdrawalPayload:
		return v.Reason
	case AcceptancePayload:
		return v.Note
	}
	return ""
}
