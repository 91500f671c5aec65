package models

import "time"

// RequestStatus is the registration request lifecycle state. Pending is the
// only non-terminal state; Approved and Rejected admit no further transition.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// CanTransition guards the state machine: only Pending may move, and only
// into a terminal state.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	return s == RequestPending && to.Terminal()
}

// RegistrationRequest is a staged student signup awaiting teacher action.
// The password is hashed at submission time and carried verbatim into the
// account on approval.
type RegistrationRequest struct {
	ID           string        `db:"id" json:"id"`
	FullName     string        `db:"full_name" json:"full_name"`
	Email        string        `db:"email" json:"email"`
	Phone        string        `db:"phone" json:"phone"`
	PasswordHash string        `db:"password_hash" json:"-"`
	Role         AccountRole   `db:"role" json:"role"`
	DOB          string        `db:"dob" json:"dob"`
	Gender       string        `db:"gender" json:"gender"`
	College      string        `db:"college" json:"college"`
	Department   string        `db:"department" json:"department"`
	Course       string        `db:"course" json:"course"`
	Semester     string        `db:"semester" json:"semester"`
	RollNo       string        `db:"roll_no" json:"roll_no"`
	Status       RequestStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// RegistrationFilter narrows ledger listings.
type RegistrationFilter struct {
	Status     *RequestStatus
	Department string
	Page       int
	PageSize   int
}
