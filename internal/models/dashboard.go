package models

// StudentDashboard is the student home summary. It is cached per account and
// invalidated whenever the academic rollup changes.
type StudentDashboard struct {
	Profile          StudentDetail    `json:"profile"`
	Results          []SemesterResult `json:"results"`
	EligibleJobs     []JobPosting     `json:"eligible_jobs"`
	ApplicationCount int              `json:"application_count"`
}

// TeacherDashboard summarises pending work for reviewers. Department comes
// from the teacher's own profile.
type TeacherDashboard struct {
	Department       string `json:"department,omitempty"`
	PendingRequests  int    `json:"pending_requests"`
	ApprovedRequests int    `json:"approved_requests"`
	RejectedRequests int    `json:"rejected_requests"`
	StudentCount     int    `json:"student_count"`
}

// OfficerDashboard summarises the placement pipeline.
type OfficerDashboard struct {
	JobCount         int `json:"job_count"`
	ApplicationCount int `json:"application_count"`
	SelectedCount    int `json:"selected_count"`
	StudentCount     int `json:"student_count"`
	TeacherCount     int `json:"teacher_count"`
}
