package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/placement-cell-api/internal/models"
	"github.com/noah-isme/placement-cell-api/internal/repository"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
)

type registrationLedger interface {
	Create(ctx context.Context, request *models.RegistrationRequest) error
	FindByID(ctx context.Context, id string) (*models.RegistrationRequest, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationRequest, int, error)
	Approve(ctx context.Context, requestID string, account *models.Account, profile *models.StudentProfile, confirmation *models.Notification) error
	Reject(ctx context.Context, requestID string) error
}

type registrationAccounts interface {
	ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error)
	ListTeachersByDepartment(ctx context.Context, department string) ([]models.Account, error)
	CreateTeacher(ctx context.Context, account *models.Account, profile *models.TeacherProfile) error
	CreateOfficer(ctx context.Context, account *models.Account, profile *models.OfficerProfile) error
}

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

// SubmitRegistrationRequest is a prospective student's signup payload.
type SubmitRegistrationRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Password   string `json:"password" validate:"required"`
	DOB        string `json:"dob" validate:"required"`
	Gender     string `json:"gender" validate:"required"`
	College    string `json:"college" validate:"required"`
	Department string `json:"department" validate:"required"`
	Course     string `json:"course" validate:"required"`
	Semester   string `json:"semester" validate:"required"`
	RollNo     string `json:"roll_no" validate:"required"`
}

// RegisterTeacherRequest creates a teacher account directly; teachers do not
// pass through the approval ledger.
type RegisterTeacherRequest struct {
	FullName      string `json:"full_name" validate:"required"`
	Email         string `json:"email" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	Password      string `json:"password" validate:"required"`
	Designation   string `json:"designation" validate:"required"`
	Qualification string `json:"qualification" validate:"required"`
	Department    string `json:"department" validate:"required"`
	Experience    string `json:"experience"`
	Position      string `json:"position"`
}

// RegisterOfficerRequest creates a placement officer account directly.
type RegisterOfficerRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	Email       string `json:"email" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Password    string `json:"password" validate:"required"`
	Designation string `json:"designation" validate:"required"`
	OfficeRole  string `json:"office_role"`
	Experience  string `json:"experience"`
	College     string `json:"college" validate:"required"`
}

// RegistrationService runs the signup ledger and the approval state machine.
type RegistrationService struct {
	ledger        registrationLedger
	accounts      registrationAccounts
	notifications notificationWriter
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(ledger registrationLedger, accounts registrationAccounts, notifications notificationWriter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		ledger:        ledger,
		accounts:      accounts,
		notifications: notifications,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// Submit validates a signup, stages it in the ledger as Pending and alerts
// every teacher in the matching department. The request is committed before
// fan-out begins, so a notification failure never loses the submission.
func (s *RegistrationService) Submit(ctx context.Context, req SubmitRegistrationRequest) (*models.RegistrationRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	fullName, err := validateIdentity(req.FullName, req.Email, req.Phone, req.Password)
	if err != nil {
		return nil, err
	}
	if !isDigits(req.RollNo) || len(req.RollNo) != 10 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roll number must be exactly 10 digits")
	}

	taken, err := s.accounts.ExistsByPhoneOrEmail(ctx, req.Phone, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check account identity")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this phone or email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	request := &models.RegistrationRequest{
		FullName:     fullName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		DOB:          req.DOB,
		Gender:       req.Gender,
		College:      req.College,
		Department:   req.Department,
		Course:       req.Course,
		Semester:     req.Semester,
		RollNo:       req.RollNo,
		Status:       models.RequestPending,
	}
	if err := s.ledger.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a registration with this phone or email is already pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage registration")
	}

	if err := s.notifyTeachers(ctx, request); err != nil {
		return nil, err
	}

	s.metrics.RecordWorkflowOutcome("submit", "staged")
	return request, nil
}

func (s *RegistrationService) notifyTeachers(ctx context.Context, request *models.RegistrationRequest) error {
	teachers, err := s.accounts.ListTeachersByDepartment(ctx, request.Department)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list department teachers")
	}

	payload, err := models.EncodePayload(models.RegistrationRequestPayload{
		RequestID:  request.ID,
		FullName:   request.FullName,
		Email:      request.Email,
		Phone:      request.Phone,
		Department: request.Department,
		Course:     request.Course,
		RollNo:     request.RollNo,
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request payload")
	}

	for _, teacher := range teachers {
		notification := &models.Notification{
			AccountID: teacher.ID,
			Kind:      models.KindRegistrationRequest,
			Title:     "New Registration Request",
			Message:   fmt.Sprintf("%s has requested to join %s as a student.", request.FullName, request.Department),
			Payload:   payload,
		}
		if err := s.notifications.Create(ctx, notification); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify teachers")
		}
	}

	s.logger.Info("registration staged",
		zap.String("request_id", request.ID),
		zap.String("department", request.Department),
		zap.Int("teachers_notified", len(teachers)),
	)
	return nil
}

// Approve promotes a pending request into an active student account. Acting
// twice on the same id fails with NotFound; a concurrent identity clash
// fails with Conflict. All writes happen in one transaction, so a failure
// leaves the request Pending with no account created.
func (s *RegistrationService) Approve(ctx context.Context, requestID string) (*models.Account, error) {
	request, err := s.ledger.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration request")
	}
	if !request.Status.CanTransition(models.RequestApproved) {
		s.metrics.RecordWorkflowOutcome("approve", "already_processed")
		return nil, appErrors.Clone(appErrors.ErrNotFound, "registration request already processed")
	}

	taken, err := s.accounts.ExistsByPhoneOrEmail(ctx, request.Phone, request.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check account identity")
	}
	if taken {
		s.metrics.RecordWorkflowOutcome("approve", "conflict")
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this phone or email already exists")
	}

	// The ledger hash is carried over verbatim; the password was hashed
	// exactly once, at submission time.
	account := &models.Account{
		Phone:        request.Phone,
		Email:        request.Email,
		PasswordHash: request.PasswordHash,
		FullName:     request.FullName,
		Role:         models.RoleStudent,
		Active:       true,
	}
	profile := &models.StudentProfile{
		DOB:        request.DOB,
		Gender:     request.Gender,
		College:    request.College,
		Department: request.Department,
		Course:     request.Course,
		Semester:   request.Semester,
		RollNo:     request.RollNo,
	}
	profile.ProfileCompletion = CompletionScore(profile, false)

	payload, err := models.EncodePayload(models.ApprovalConfirmationPayload{RequestID: request.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode approval payload")
	}
	confirmation := &models.Notification{
		Kind:    models.KindApprovalConfirmation,
		Title:   "Account Approved",
		Message: "Your registration has been approved. You can now sign in to the placement portal.",
		Payload: payload,
	}

	if err := s.ledger.Approve(ctx, request.ID, account, profile, confirmation); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			s.metrics.RecordWorkflowOutcome("approve", "already_processed")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration request already processed")
		case errors.Is(err, repository.ErrDuplicate):
			s.metrics.RecordWorkflowOutcome("approve", "conflict")
			return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this phone or email already exists")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve registration")
		}
	}

	s.metrics.RecordWorkflowOutcome("approve", "approved")
	s.logger.Info("registration approved",
		zap.String("request_id", request.ID),
		zap.String("account_id", account.ID),
	)
	return account, nil
}

// Reject marks a pending request terminal. No account is ever created for a
// rejected request, and the teacher alerts are retracted.
func (s *RegistrationService) Reject(ctx context.Context, requestID string) error {
	request, err := s.ledger.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration request")
	}
	if !request.Status.CanTransition(models.RequestRejected) {
		s.metrics.RecordWorkflowOutcome("reject", "already_processed")
		return appErrors.Clone(appErrors.ErrNotFound, "registration request already processed")
	}

	if err := s.ledger.Reject(ctx, request.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordWorkflowOutcome("reject", "already_processed")
			return appErrors.Clone(appErrors.ErrNotFound, "registration request already processed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject registration")
	}

	s.metrics.RecordWorkflowOutcome("reject", "rejected")
	s.logger.Info("registration rejected", zap.String("request_id", request.ID))
	return nil
}

// List returns ledger entries for review dashboards.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationRequest, *models.Pagination, error) {
	requests, total, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return requests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches a single ledger entry.
func (s *RegistrationService) Get(ctx context.Context, requestID string) (*models.RegistrationRequest, error) {
	request, err := s.ledger.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration request")
	}
	return request, nil
}

// RegisterTeacher creates a teacher account directly, bypassing the ledger.
func (s *RegistrationService) RegisterTeacher(ctx context.Context, req RegisterTeacherRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	account, err := s.buildStaffAccount(ctx, req.FullName, req.Email, req.Phone, req.Password, models.RoleTeacher)
	if err != nil {
		return nil, err
	}
	profile := &models.TeacherProfile{
		Designation:   req.Designation,
		Qualification: req.Qualification,
		Department:    req.Department,
		Experience:    req.Experience,
		Position:      req.Position,
	}
	if err := s.accounts.CreateTeacher(ctx, account, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this phone or email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher account")
	}
	return account, nil
}

// RegisterOfficer creates a placement officer account directly.
func (s *RegistrationService) RegisterOfficer(ctx context.Context, req RegisterOfficerRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid officer payload")
	}
	account, err := s.buildStaffAccount(ctx, req.FullName, req.Email, req.Phone, req.Password, models.RolePlacementOfficer)
	if err != nil {
		return nil, err
	}
	profile := &models.OfficerProfile{
		Designation: req.Designation,
		OfficeRole:  req.OfficeRole,
		Experience:  req.Experience,
		College:     req.College,
	}
	if err := s.accounts.CreateOfficer(ctx, account, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this phone or email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create officer account")
	}
	return account, nil
}

func (s *RegistrationService) buildStaffAccount(ctx context.Context, fullName, email, phone, password string, role models.AccountRole) (*models.Account, error) {
	trimmedName, err := validateIdentity(fullName, email, phone, password)
	if err != nil {
		return nil, err
	}
	taken, err := s.accounts.ExistsByPhoneOrEmail(ctx, phone, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check account identity")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this phone or email already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return &models.Account{
		Phone:        phone,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     trimmedName,
		Role:         role,
		Active:       true,
	}, nil
}

// validateIdentity applies the shared signup rules and returns the trimmed
// full name.
func validateIdentity(fullName, email, phone, password string) (string, error) {
	trimmed := strings.TrimSpace(fullName)
	if trimmed == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "full name cannot be empty")
	}
	if !isDigits(phone) || len(phone) != 10 {
		return "", appErrors.Clone(appErrors.ErrValidation, "phone number must be exactly 10 digits")
	}
	if !strings.HasSuffix(strings.ToLower(email), "@gmail.com") {
		return "", appErrors.Clone(appErrors.ErrValidation, "only Gmail addresses (@gmail.com) are allowed")
	}
	if len(password) < 8 {
		return "", appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters long")
	}
	return trimmed, nil
}
