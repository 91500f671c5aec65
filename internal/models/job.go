package models

import "time"

// JobType enumerates posting types.
type JobType string

const (
	JobFullTime   JobType = "Full Time"
	JobInternship JobType = "Internship"
	JobPartTime   JobType = "Part Time"
)

// Valid reports whether the job type is known.
func (t JobType) Valid() bool {
	switch t {
	case JobFullTime, JobInternship, JobPartTime:
		return true
	}
	return false
}

// JobPosting describes an open position with eligibility thresholds.
// AllowedDepartments is comma-separated free text matched case-insensitively
// against the student's department.
type JobPosting struct {
	ID                 string    `db:"id" json:"id"`
	Company            string    `db:"company" json:"company"`
	Role               string    `db:"role" json:"role"`
	Location           string    `db:"location" json:"location"`
	Type               JobType   `db:"job_type" json:"job_type"`
	Salary             string    `db:"salary" json:"salary"`
	Description        string    `db:"description" json:"description"`
	Skills             string    `db:"skills" json:"skills"`
	MinCGPA            float64   `db:"min_cgpa" json:"min_cgpa"`
	MaxBacklogs        int       `db:"max_backlogs" json:"max_backlogs"`
	AllowedDepartments string    `db:"allowed_departments" json:"allowed_departments"`
	Deadline           time.Time `db:"deadline" json:"deadline"`
	PostedOn           time.Time `db:"posted_on" json:"posted_on"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ApplicationStatus tracks an application through the pipeline.
type ApplicationStatus string

const (
	ApplicationApplied     ApplicationStatus = "Applied"
	ApplicationUnderReview ApplicationStatus = "Under Review"
	ApplicationShortlisted ApplicationStatus = "Shortlisted"
	ApplicationSelected    ApplicationStatus = "Selected"
	ApplicationRejected    ApplicationStatus = "Rejected"
)

// Valid reports whether the status is known.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationApplied, ApplicationUnderReview, ApplicationShortlisted, ApplicationSelected, ApplicationRejected:
		return true
	}
	return false
}

// JobApplication links a student profile to a posting. The (profile, job)
// pair is unique.
type JobApplication struct {
	ID        string            `db:"id" json:"id"`
	ProfileID string            `db:"profile_id" json:"profile_id"`
	JobID     string            `db:"job_id" json:"job_id"`
	Status    ApplicationStatus `db:"status" json:"status"`
	AppliedOn time.Time         `db:"applied_on" json:"applied_on"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// ApplicationDetail joins an application with posting and student fields for
// listings and exports.
type ApplicationDetail struct {
	JobApplication
	Company       string  `db:"company" json:"company"`
	JobRole       string  `db:"job_role" json:"job_role"`
	StudentName   string  `db:"student_name" json:"student_name"`
	StudentEmail  string  `db:"student_email" json:"student_email"`
	StudentPhone  string  `db:"student_phone" json:"student_phone"`
	Department    string  `db:"department" json:"department"`
	RollNo        string  `db:"roll_no" json:"roll_no"`
	OverallCGPA   float64 `db:"overall_cgpa" json:"overall_cgpa"`
	TotalBacklogs int     `db:"total_backlogs" json:"total_backlogs"`
}

// JobFilter narrows posting listings.
type JobFilter struct {
	Type     *JobType
	Company  string
	Page     int
	PageSize int
}
