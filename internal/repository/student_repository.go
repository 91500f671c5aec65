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

// StudentRepository manages persistence for student profiles and their
// semester results.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const profileColumns = `id, account_id, dob, gender, college, department, course, semester, roll_no, image, skills, resume, overall_cgpa, total_backlogs, profile_completion, created_at, updated_at`

// FindProfileByID fetches a student profile by its identifier.
func (r *StudentRepository) FindProfileByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_profiles WHERE id = $1 LIMIT 1`, profileColumns)
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return &profile, nil
}

// FindProfileByAccountID fetches a student profile by its owning account.
func (r *StudentRepository) FindProfileByAccountID(ctx context.Context, accountID string) (*models.StudentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_profiles WHERE account_id = $1 LIMIT 1`, profileColumns)
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, accountID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by account: %w", err)
	}
	return &profile, nil
}

// FindDetailByAccountID joins the profile with account fields.
func (r *StudentRepository) FindDetailByAccountID(ctx context.Context, accountID string) (*models.StudentDetail, error) {
	const query = `SELECT p.id, p.account_id, p.dob, p.gender, p.college, p.department, p.course, p.semester, p.roll_no,
        p.image, p.skills, p.resume, p.overall_cgpa, p.total_backlogs, p.profile_completion, p.created_at, p.updated_at,
        a.full_name, a.email, a.phone
        FROM student_profiles p
        JOIN accounts a ON a.id = p.account_id
        WHERE p.account_id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, accountID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student detail: %w", err)
	}
	return &detail, nil
}

// UpdateProfile persists the editable demographic/enrollment fields.
func (r *StudentRepository) UpdateProfile(ctx context.Context, profile *models.StudentProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_profiles SET dob = :dob, gender = :gender, college = :college, department = :department,
        course = :course, semester = :semester, roll_no = :roll_no, image = :image, skills = :skills, resume = :resume,
        profile_completion = :profile_completion, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdateAggregates writes the derived rollup fields for a profile. These
// columns change only through this method.
func (r *StudentRepository) UpdateAggregates(ctx context.Context, profileID string, cgpa float64, backlogs, completion int) error {
	const query = `UPDATE student_profiles SET overall_cgpa = $2, total_backlogs = $3, profile_completion = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, profileID, cgpa, backlogs, completion, time.Now().UTC()); err != nil {
		return fmt.Errorf("update aggregates: %w", err)
	}
	return nil
}

// UpsertResult inserts or updates the semester result keyed by
// (profile_id, semester).
func (r *StudentRepository) UpsertResult(ctx context.Context, result *models.SemesterResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now
	const query = `INSERT INTO semester_results (id, profile_id, semester, gpa, credits, backlogs, created_at, updated_at)
        VALUES (:id, :profile_id, :semester, :gpa, :credits, :backlogs, :created_at, :updated_at)
        ON CONFLICT (profile_id, semester)
        DO UPDATE SET gpa = EXCLUDED.gpa, credits = EXCLUDED.credits, backlogs = EXCLUDED.backlogs, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

// ListResultsByProfile returns every recorded result for a profile ordered
// by semester label.
func (r *StudentRepository) ListResultsByProfile(ctx context.Context, profileID string) ([]models.SemesterResult, error) {
	const query = `SELECT id, profile_id, semester, gpa, credits, backlogs, created_at, updated_at
        FROM semester_results WHERE profile_id = $1 ORDER BY semester`
	var results []models.SemesterResult
	if err := r.db.SelectContext(ctx, &results, query, profileID); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// CountProfiles returns the number of student profiles.
func (r *StudentRepository) CountProfiles(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM student_profiles`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return total, nil
}
