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

// RegistrationRepository persists the signup ledger and owns the
// transactional promotion of a pending request into a real account.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const requestColumns = `id, full_name, email, phone, password_hash, role, dob, gender, college, department, course, semester, roll_no, status, created_at, updated_at`

// Create inserts a new pending registration request.
func (r *RegistrationRepository) Create(ctx context.Context, request *models.RegistrationRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	const query = `INSERT INTO registration_requests (id, full_name, email, phone, password_hash, role, dob, gender, college, department, course, semester, roll_no, status, created_at, updated_at)
        VALUES (:id, :full_name, :email, :phone, :password_hash, :role, :dob, :gender, :college, :department, :course, :semester, :roll_no, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return translateUnique(err)
	}
	return nil
}

// FindByID fetches a registration request.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.RegistrationRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM registration_requests WHERE id = $1 LIMIT 1`, requestColumns)
	var request models.RegistrationRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find request by id: %w", err)
	}
	return &request, nil
}

// List returns ledger entries, newest first.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationRequest, int, error) {
	base := `FROM registration_requests WHERE 1=1`
	var args []interface{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		base += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		base += fmt.Sprintf(" AND LOWER(department) = LOWER($%d)", len(args))
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, requestColumns, base, size, offset)
	var requests []models.RegistrationRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}
	return requests, total, nil
}

// CountByStatus returns the number of ledger entries in a status.
func (r *RegistrationRepository) CountByStatus(ctx context.Context, status models.RequestStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM registration_requests WHERE status = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, status); err != nil {
		return 0, fmt.Errorf("count requests by status: %w", err)
	}
	return total, nil
}

// Approve promotes a pending request inside a single transaction: the
// conditional status flip is the serialization point, then the account and
// profile are created, the teacher alerts referencing the request are
// retracted and the confirmation notification is written. Returns
// sql.ErrNoRows when the request is no longer pending and ErrDuplicate when
// the account insert trips the phone/email unique constraints.
func (r *RegistrationRepository) Approve(ctx context.Context, requestID string, account *models.Account, profile *models.StudentProfile, confirmation *models.Notification) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx,
		`UPDATE registration_requests SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		requestID, models.RequestApproved, now, models.RequestPending)
	if err != nil {
		return fmt.Errorf("mark request approved: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("approve rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO accounts (id, phone, email, password_hash, full_name, role, active, created_at, updated_at)
         VALUES (:id, :phone, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`,
		account); err != nil {
		return translateUnique(err)
	}

	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.AccountID = account.ID
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO student_profiles (id, account_id, dob, gender, college, department, course, semester, roll_no, image, skills, resume, overall_cgpa, total_backlogs, profile_completion, created_at, updated_at)
         VALUES (:id, :account_id, :dob, :gender, :college, :department, :course, :semester, :roll_no, :image, :skills, :resume, :overall_cgpa, :total_backlogs, :profile_completion, :created_at, :updated_at)`,
		profile); err != nil {
		return fmt.Errorf("create student profile: %w", err)
	}

	if err := deletePendingAlerts(ctx, tx, requestID); err != nil {
		return err
	}

	if confirmation.ID == "" {
		confirmation.ID = uuid.NewString()
	}
	confirmation.AccountID = account.ID
	confirmation.CreatedAt = now
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO notifications (id, account_id, kind, title, message, payload, read, created_at)
         VALUES (:id, :account_id, :kind, :title, :message, :payload, :read, :created_at)`,
		confirmation); err != nil {
		return fmt.Errorf("create approval notification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approve: %w", err)
	}
	return nil
}

// Reject marks a pending request terminal and retracts the teacher alerts.
// Returns sql.ErrNoRows when the request is no longer pending.
func (r *RegistrationRepository) Reject(ctx context.Context, requestID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reject: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE registration_requests SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		requestID, models.RequestRejected, time.Now().UTC(), models.RequestPending)
	if err != nil {
		return fmt.Errorf("mark request rejected: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reject rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := deletePendingAlerts(ctx, tx, requestID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reject: %w", err)
	}
	return nil
}

func deletePendingAlerts(ctx context.Context, tx *sqlx.Tx, requestID string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM notifications WHERE kind = $1 AND payload->>'request_id' = $2`,
		models.KindRegistrationRequest, requestID); err != nil {
		return fmt.Errorf("retract pending alerts: %w", err)
	}
	return nil
}
