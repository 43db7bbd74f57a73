package audit

import "time"

// Kind labels the administrative or attendance action an event records.
type Kind string

const (
	KindLocationCreated     Kind = "location.created"
	KindLocationUpdated     Kind = "location.updated"
	KindLocationDeleted     Kind = "location.deleted"
	KindLocationActivated   Kind = "location.activated"
	KindLocationDeactivated Kind = "location.deactivated"
	KindAttendanceMarked    Kind = "attendance.marked"
	KindAttendanceRejected  Kind = "attendance.rejected"
)

// Event is one entry in the audit trail. Actor is the admin who performed
// the action (empty for member-initiated events); Subject identifies what
// was acted on.
type Event struct {
	ID         int64          `json:"id"`
	Kind       Kind           `json:"kind"`
	Actor      string         `json:"actor,omitempty"`
	Subject    string         `json:"subject,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}
