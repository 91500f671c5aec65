package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-cell-api/internal/models"
)

// ApplicationRepository manages persistence for job applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application. The (profile_id, job_id) unique
// constraint is the storage-level duplicate guard; violations surface as
// ErrDuplicate.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.JobApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.AppliedOn.IsZero() {
		app.AppliedOn = now
	}
	app.UpdatedAt = now
	const query = `INSERT INTO job_applications (id, profile_id, job_id, status, applied_on, updated_at)
        VALUES (:id, :profile_id, :job_id, :status, :applied_on, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return translateUnique(err)
	}
	return nil
}

// Exists reports whether the student already applied to the job.
func (r *ApplicationRepository) Exists(ctx context.Context, profileID, jobID string) (bool, error) {
	const query = `SELECT 1 FROM job_applications WHERE profile_id = $1 AND job_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, profileID, jobID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check application: %w", err)
	}
	return true, nil
}

// FindByID fetches an application.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.JobApplication, error) {
	const query = `SELECT id, profile_id, job_id, status, applied_on, updated_at FROM job_applications WHERE id = $1 LIMIT 1`
	var app models.JobApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application by id: %w", err)
	}
	return &app, nil
}

// ListByProfile returns a student's applications with posting details,
// newest first.
func (r *ApplicationRepository) ListByProfile(ctx context.Context, profileID string) ([]models.ApplicationDetail, error) {
	const query = `SELECT ap.id, ap.profile_id, ap.job_id, ap.status, ap.applied_on, ap.updated_at,
        j.company, j.role AS job_role,
        a.full_name AS student_name, a.email AS student_email, a.phone AS student_phone,
        p.department, p.roll_no, p.overall_cgpa, p.total_backlogs
        FROM job_applications ap
        JOIN job_postings j ON j.id = ap.job_id
        JOIN student_profiles p ON p.id = ap.profile_id
        JOIN accounts a ON a.id = p.account_id
        WHERE ap.profile_id = $1
        ORDER BY ap.applied_on DESC`
	var apps []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &apps, query, profileID); err != nil {
		return nil, fmt.Errorf("list applications by profile: %w", err)
	}
	return apps, nil
}

// ListByJob returns applicants for a posting with student details, newest
// first.
func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID string) ([]models.ApplicationDetail, error) {
	const query = `SELECT ap.id, ap.profile_id, ap.job_id, ap.status, ap.applied_on, ap.updated_at,
        j.company, j.role AS job_role,
        a.full_name AS student_name, a.email AS student_email, a.phone AS student_phone,
        p.department, p.roll_no, p.overall_cgpa, p.total_backlogs
        FROM job_applications ap
        JOIN job_postings j ON j.id = ap.job_id
        JOIN student_profiles p ON p.id = ap.profile_id
        JOIN accounts a ON a.id = p.account_id
        WHERE ap.job_id = $1
        ORDER BY ap.applied_on DESC`
	var apps []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &apps, query, jobID); err != nil {
		return nil, fmt.Errorf("list applications by job: %w", err)
	}
	return apps, nil
}

// UpdateStatus moves an application through the review pipeline.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	const query = `UPDATE job_applications SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	return nil
}

// CountByProfile returns the number of applications a student has made.
func (r *ApplicationRepository) CountByProfile(ctx context.Context, profileID string) (int, error) {
	const query = `SELECT COUNT(*) FROM job_applications WHERE profile_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, profileID); err != nil {
		return 0, fmt.Errorf("count applications by profile: %w", err)
	}
	return total, nil
}

// CountByStatus returns the number of applications in a pipeline state.
func (r *ApplicationRepository) CountByStatus(ctx context.Context, status models.ApplicationStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM job_applications WHERE status = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, status); err != nil {
		return 0, fmt.Errorf("count applications by status: %w", err)
	}
	return total, nil
}

// Count returns the total number of applications.
func (r *ApplicationRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM job_applications`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return total, nil
}
