package models

import "time"

// AccountRole represents the portal roles.
type AccountRole string

const (
	RoleStudent          AccountRole = "student"
	RoleTeacher          AccountRole = "teacher"
	RolePlacementOfficer AccountRole = "placement_officer"
)

// Valid reports whether the role is one of the known portal roles.
func (r AccountRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RolePlacementOfficer:
		return true
	}
	return false
}

// Account represents a registered portal user. Phone is the primary login
// identifier; phone and email are globally unique.
type Account struct {
	ID           string      `db:"id" json:"id"`
	Phone        string      `db:"phone" json:"phone"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	FullName     string      `db:"full_name" json:"full_name"`
	Role         AccountRole `db:"role" json:"role"`
	Active       bool        `db:"active" json:"active"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// TeacherProfile holds teacher-specific fields; department drives the
// registration-request fan-out.
type TeacherProfile struct {
	ID            string    `db:"id" json:"id"`
	AccountID     string    `db:"account_id" json:"account_id"`
	Designation   string    `db:"designation" json:"designation"`
	Qualification string    `db:"qualification" json:"qualification"`
	Department    string    `db:"department" json:"department"`
	Experience    string    `db:"experience" json:"experience"`
	Position      string    `db:"position" json:"position"`
	Image         string    `db:"image" json:"image,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// OfficerProfile holds placement officer fields.
type OfficerProfile struct {
	ID          string    `db:"id" json:"id"`
	AccountID   string    `db:"account_id" json:"account_id"`
	Designation string    `db:"designation" json:"designation"`
	OfficeRole  string    `db:"office_role" json:"office_role"`
	Experience  string    `db:"experience" json:"experience"`
	College     string    `db:"college" json:"college"`
	Image       string    `db:"image" json:"image,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AccountFilter captures filtering criteria for listing accounts.
type AccountFilter struct {
	Role      *AccountRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
