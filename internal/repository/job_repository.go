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

// JobRepository manages persistence for job postings.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs a JobRepository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, company, role, location, job_type, salary, description, skills, min_cgpa, max_backlogs, allowed_departments, deadline, posted_on, updated_at`

// Create inserts a new posting.
func (r *JobRepository) Create(ctx context.Context, job *models.JobPosting) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.PostedOn.IsZero() {
		job.PostedOn = now
	}
	job.UpdatedAt = now
	const query = `INSERT INTO job_postings (id, company, role, location, job_type, salary, description, skills, min_cgpa, max_backlogs, allowed_departments, deadline, posted_on, updated_at)
        VALUES (:id, :company, :role, :location, :job_type, :salary, :description, :skills, :min_cgpa, :max_backlogs, :allowed_departments, :deadline, :posted_on, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Update modifies an existing posting.
func (r *JobRepository) Update(ctx context.Context, job *models.JobPosting) error {
	job.UpdatedAt = time.Now().UTC()
	const query = `UPDATE job_postings SET company = :company, role = :role, location = :location, job_type = :job_type,
        salary = :salary, description = :description, skills = :skills, min_cgpa = :min_cgpa, max_backlogs = :max_backlogs,
        allowed_departments = :allowed_departments, deadline = :deadline, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// Delete removes a posting.
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM job_postings WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// FindByID fetches a posting.
func (r *JobRepository) FindByID(ctx context.Context, id string) (*models.JobPosting, error) {
	query := fmt.Sprintf(`SELECT %s FROM job_postings WHERE id = $1 LIMIT 1`, jobColumns)
	var job models.JobPosting
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	return &job, nil
}

// List returns postings newest first.
func (r *JobRepository) List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, int, error) {
	base := `FROM job_postings WHERE 1=1`
	var args []interface{}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		base += fmt.Sprintf(" AND job_type = $%d", len(args))
	}
	if filter.Company != "" {
		args = append(args, "%"+filter.Company+"%")
		base += fmt.Sprintf(" AND company ILIKE $%d", len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY posted_on DESC LIMIT %d OFFSET %d`, jobColumns, base, size, offset)
	var jobs []models.JobPosting
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}
	return jobs, total, nil
}

// ListEligible returns postings whose thresholds admit the given academic
// profile, newest first. Department matching is a case-insensitive substring
// search over the allowed-departments text.
func (r *JobRepository) ListEligible(ctx context.Context, cgpa float64, backlogs int, department string, limit int) ([]models.JobPosting, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM job_postings
        WHERE min_cgpa <= $1 AND max_backlogs >= $2 AND allowed_departments ILIKE '%%' || $3 || '%%'
        ORDER BY posted_on DESC LIMIT %d`, jobColumns, limit)
	var jobs []models.JobPosting
	if err := r.db.SelectContext(ctx, &jobs, query, cgpa, backlogs, department); err != nil {
		return nil, fmt.Errorf("list eligible jobs: %w", err)
	}
	return jobs, nil
}

// Count returns the total number of postings.
func (r *JobRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM job_postings`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return total, nil
}
