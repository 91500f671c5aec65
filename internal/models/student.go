package models

import "time"

// StudentProfile is the one-to-one academic profile attached to a student
// account. OverallCGPA, TotalBacklogs and ProfileCompletion are derived from
// the recorded semester results and are never written directly by callers.
type StudentProfile struct {
	ID                string    `db:"id" json:"id"`
	AccountID         string    `db:"account_id" json:"account_id"`
	DOB               string    `db:"dob" json:"dob"`
	Gender            string    `db:"gender" json:"gender"`
	College           string    `db:"college" json:"college"`
	Department        string    `db:"department" json:"department"`
	Course            string    `db:"course" json:"course"`
	Semester          string    `db:"semester" json:"semester"`
	RollNo            string    `db:"roll_no" json:"roll_no"`
	Image             string    `db:"image" json:"image,omitempty"`
	Skills            string    `db:"skills" json:"skills,omitempty"`
	Resume            string    `db:"resume" json:"resume,omitempty"`
	OverallCGPA       float64   `db:"overall_cgpa" json:"overall_cgpa"`
	TotalBacklogs     int       `db:"total_backlogs" json:"total_backlogs"`
	ProfileCompletion int       `db:"profile_completion" json:"profile_completion"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// SemesterResult stores one semester's academic outcome for a profile.
// The (profile_id, semester) pair is unique; recording the same semester
// twice updates the existing row.
type SemesterResult struct {
	ID        string    `db:"id" json:"id"`
	ProfileID string    `db:"profile_id" json:"profile_id"`
	Semester  string    `db:"semester" json:"semester"`
	GPA       float64   `db:"gpa" json:"gpa"`
	Credits   int       `db:"credits" json:"credits"`
	Backlogs  int       `db:"backlogs" json:"backlogs"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AcademicAggregates is the derived rollup persisted back onto the profile.
type AcademicAggregates struct {
	OverallCGPA   float64
	TotalBacklogs int
}

// StudentDetail joins the profile with its owning account for read paths.
type StudentDetail struct {
	StudentProfile
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Phone    string `db:"phone" json:"phone"`
}
