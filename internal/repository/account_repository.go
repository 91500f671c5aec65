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

// AccountRepository provides database access for portal accounts and the
// staff profiles attached to them.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, phone, email, password_hash, full_name, role, active, created_at, updated_at`

// FindByPhone returns an account by its phone number.
func (r *AccountRepository) FindByPhone(ctx context.Context, phone string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE phone = $1 LIMIT 1`, accountColumns)
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, phone); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by phone: %w", err)
	}
	return &account, nil
}

// FindByID returns an account by identifier.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1 LIMIT 1`, accountColumns)
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &account, nil
}

// ExistsByPhoneOrEmail reports whether any account already holds the given
// phone or email (case-insensitive on email).
func (r *AccountRepository) ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error) {
	const query = `SELECT 1 FROM accounts WHERE phone = $1 OR LOWER(email) = LOWER($2) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, phone, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check account identity: %w", err)
	}
	return true, nil
}

// ListTeachersByDepartment returns active teacher accounts whose department
// matches case-insensitively. Used for registration-request fan-out.
func (r *AccountRepository) ListTeachersByDepartment(ctx context.Context, department string) ([]models.Account, error) {
	const query = `SELECT a.id, a.phone, a.email, a.password_hash, a.full_name, a.role, a.active, a.created_at, a.updated_at
        FROM accounts a
        JOIN teacher_profiles tp ON tp.account_id = a.id
        WHERE a.role = $1 AND a.active = TRUE AND LOWER(tp.department) = LOWER($2)`
	var teachers []models.Account
	if err := r.db.SelectContext(ctx, &teachers, query, models.RoleTeacher, department); err != nil {
		return nil, fmt.Errorf("list teachers by department: %w", err)
	}
	return teachers, nil
}

// CreateTeacher atomically inserts a teacher account with its profile.
func (r *AccountRepository) CreateTeacher(ctx context.Context, account *models.Account, profile *models.TeacherProfile) error {
	return r.createStaff(ctx, account, func(tx *sqlx.Tx) error {
		if profile.ID == "" {
			profile.ID = uuid.NewString()
		}
		profile.AccountID = account.ID
		profile.CreatedAt = account.CreatedAt
		profile.UpdatedAt = account.UpdatedAt
		const query = `INSERT INTO teacher_profiles (id, account_id, designation, qualification, department, experience, position, image, created_at, updated_at)
            VALUES (:id, :account_id, :designation, :qualification, :department, :experience, :position, :image, :created_at, :updated_at)`
		_, err := tx.NamedExecContext(ctx, query, profile)
		return err
	})
}

// CreateOfficer atomically inserts a placement officer account with its profile.
func (r *AccountRepository) CreateOfficer(ctx context.Context, account *models.Account, profile *models.OfficerProfile) error {
	return r.createStaff(ctx, account, func(tx *sqlx.Tx) error {
		if profile.ID == "" {
			profile.ID = uuid.NewString()
		}
		profile.AccountID = account.ID
		profile.CreatedAt = account.CreatedAt
		profile.UpdatedAt = account.UpdatedAt
		const query = `INSERT INTO officer_profiles (id, account_id, designation, office_role, experience, college, image, created_at, updated_at)
            VALUES (:id, :account_id, :designation, :office_role, :experience, :college, :image, :created_at, :updated_at)`
		_, err := tx.NamedExecContext(ctx, query, profile)
		return err
	})
}

func (r *AccountRepository) createStaff(ctx context.Context, account *models.Account, insertProfile func(tx *sqlx.Tx) error) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin staff create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO accounts (id, phone, email, password_hash, full_name, role, active, created_at, updated_at)
        VALUES (:id, :phone, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, account); err != nil {
		return translateUnique(err)
	}
	if err := insertProfile(tx); err != nil {
		return fmt.Errorf("create staff profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit staff create: %w", err)
	}
	return nil
}

// CountByRole returns the number of active accounts holding a role.
func (r *AccountRepository) CountByRole(ctx context.Context, role models.AccountRole) (int, error) {
	const query = `SELECT COUNT(*) FROM accounts WHERE role = $1 AND active = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, role); err != nil {
		return 0, fmt.Errorf("count accounts by role: %w", err)
	}
	return total, nil
}

// FindTeacherProfile returns the teacher profile attached to an account.
func (r *AccountRepository) FindTeacherProfile(ctx context.Context, accountID string) (*models.TeacherProfile, error) {
	const query = `SELECT id, account_id, designation, qualification, department, experience, position, image, created_at, updated_at
        FROM teacher_profiles WHERE account_id = $1 LIMIT 1`
	var profile models.TeacherProfile
	if err := r.db.GetContext(ctx, &profile, query, accountID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher profile: %w", err)
	}
	return &profile, nil
}
