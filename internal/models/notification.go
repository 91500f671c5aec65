package models

import (
	"encoding/json"
	"time"
)

// NotificationKind tags the structured payload carried by a notification so
// dashboards can render it without joining back to the source record.
type NotificationKind string

const (
	KindRegistrationRequest     NotificationKind = "registration_request"
	KindApprovalConfirmation    NotificationKind = "approval_confirmation"
	KindApplicationConfirmation NotificationKind = "application_confirmation"
	KindGeneric                 NotificationKind = "generic"
)

// Notification is an append-only per-account message.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	AccountID string           `db:"account_id" json:"account_id"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Payload   json.RawMessage  `db:"payload" json:"payload,omitempty"`
	Read      bool             `db:"read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// RegistrationRequestPayload is embedded in the teacher-facing alert so the
// inbox entry is self-describing.
type RegistrationRequestPayload struct {
	RequestID  string `json:"request_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Course     string `json:"course"`
	RollNo     string `json:"roll_no"`
}

// ApprovalConfirmationPayload correlates the student-facing confirmation to
// the approved request.
type ApprovalConfirmationPayload struct {
	RequestID string `json:"request_id"`
}

// ApplicationConfirmationPayload correlates an application confirmation to
// the posting.
type ApplicationConfirmationPayload struct {
	JobID   string `json:"job_id"`
	Company string `json:"company"`
	JobRole string `json:"job_role"`
}

// EncodePayload marshals a typed payload for storage. A nil payload yields a
// nil raw message.
func EncodePayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
