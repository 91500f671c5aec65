package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/placement-cell-api/internal/models"
	"github.com/noah-isme/placement-cell-api/internal/repository"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
)

type mockLedger struct {
	requests   map[string]*models.RegistrationRequest
	accounts   *mockAccountRepo
	approveErr error
}

func newMockLedger(accounts *mockAccountRepo) *mockLedger {
	return &mockLedger{requests: make(map[string]*models.RegistrationRequest), accounts: accounts}
}

func (m *mockLedger) Create(ctx context.Context, request *models.RegistrationRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	copy := *request
	m.requests[request.ID] = &copy
	return nil
}

func (m *mockLedger) FindByID(ctx context.Context, id string) (*models.RegistrationRequest, error) {
	if r, ok := m.requests[id]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLedger) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationRequest, int, error) {
	var out []models.RegistrationRequest
	for _, r := range m.requests {
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (m *mockLedger) Approve(ctx context.Context, requestID string, account *models.Account, profile *models.StudentProfile, confirmation *models.Notification) error {
	if m.approveErr != nil {
		return m.approveErr
	}
	request, ok := m.requests[requestID]
	if !ok || request.Status != models.RequestPending {
		return sql.ErrNoRows
	}
	request.Status = models.RequestApproved
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	m.accounts.add(account)
	return nil
}

func (m *mockLedger) Reject(ctx context.Context, requestID string) error {
	request, ok := m.requests[requestID]
	if !ok || request.Status != models.RequestPending {
		return sql.ErrNoRows
	}
	request.Status = models.RequestRejected
	return nil
}

type mockAccountRepo struct {
	accounts map[string]*models.Account
	teachers []models.Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[string]*models.Account)}
}

func (m *mockAccountRepo) add(account *models.Account) {
	copy := *account
	m.accounts[account.ID] = &copy
}

func (m *mockAccountRepo) ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error) {
	for _, a := range m.accounts {
		if a.Phone == phone || a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountRepo) ListTeachersByDepartment(ctx context.Context, department string) ([]models.Account, error) {
	return m.teachers, nil
}

func (m *mockAccountRepo) CreateTeacher(ctx context.Context, account *models.Account, profile *models.TeacherProfile) error {
	if exists, _ := m.ExistsByPhoneOrEmail(ctx, account.Phone, account.Email); exists {
		return repository.ErrDuplicate
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	m.add(account)
	return nil
}

func (m *mockAccountRepo) CreateOfficer(ctx context.Context, account *models.Account, profile *models.OfficerProfile) error {
	return m.CreateTeacher(ctx, account, &models.TeacherProfile{})
}

type mockNotifier struct {
	created []models.Notification
}

func (m *mockNotifier) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	m.created = append(m.created, *n)
	return nil
}

func validSubmission() SubmitRegistrationRequest {
	return SubmitRegistrationRequest{
		FullName:   "Asha Verma",
		Email:      "asha.verma@gmail.com",
		Phone:      "9876543210",
		Password:   "supersecret",
		DOB:        "2003-04-12",
		Gender:     "F",
		College:    "NIT",
		Department: "CSE",
		Course:     "B.Tech",
		Semester:   "6",
		RollNo:     "2021000042",
	}
}

func newRegistrationFixture() (*RegistrationService, *mockLedger, *mockAccountRepo, *mockNotifier) {
	accounts := newMockAccountRepo()
	ledger := newMockLedger(accounts)
	notifier := &mockNotifier{}
	svc := NewRegistrationService(ledger, accounts, notifier, nil, nil, nil)
	return svc, ledger, accounts, notifier
}

func TestSubmitStagesPendingRequest(t *testing.T) {
	svc, ledger, _, _ := newRegistrationFixture()

	request, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, request.Status)
	assert.Equal(t, models.RoleStudent, request.Role)
	assert.NotEmpty(t, request.ID)
	assert.Len(t, ledger.requests, 1)

	// The stored hash must verify against the submitted password.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(request.PasswordHash), []byte("supersecret")))
}

func TestSubmitFansOutToDepartmentTeachers(t *testing.T) {
	svc, _, accounts, notifier := newRegistrationFixture()
	accounts.teachers = []models.Account{{ID: "t1"}, {ID: "t2"}}

	request, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	require.Len(t, notifier.created, 2)
	for _, n := range notifier.created {
		assert.Equal(t, models.KindRegistrationRequest, n.Kind)
		assert.Contains(t, string(n.Payload), request.ID)
	}
	assert.Equal(t, "t1", notifier.created[0].AccountID)
	assert.Equal(t, "t2", notifier.created[1].AccountID)
}

func TestSubmitValidationRules(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture()

	cases := []struct {
		name   string
		mutate func(*SubmitRegistrationRequest)
	}{
		{"short phone", func(r *SubmitRegistrationRequest) { r.Phone = "12345" }},
		{"alpha phone", func(r *SubmitRegistrationRequest) { r.Phone = "98765abc10" }},
		{"non-gmail email", func(r *SubmitRegistrationRequest) { r.Email = "asha@yahoo.com" }},
		{"short password", func(r *SubmitRegistrationRequest) { r.Password = "short" }},
		{"blank name", func(r *SubmitRegistrationRequest) { r.FullName = "   " }},
		{"bad roll no", func(r *SubmitRegistrationRequest) { r.RollNo = "42" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validSubmission()
			tc.mutate(&req)
			_, err := svc.Submit(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestSubmitUppercaseGmailAccepted(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture()
	req := validSubmission()
	req.Email = "Asha.Verma@GMAIL.com"

	_, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
}

func TestSubmitConflictsWithExistingAccount(t *testing.T) {
	svc, _, accounts, _ := newRegistrationFixture()
	accounts.add(&models.Account{ID: "a1", Phone: "9876543210", Email: "other@gmail.com"})

	_, err := svc.Submit(context.Background(), validSubmission())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApproveCreatesStudentAccount(t *testing.T) {
	svc, ledger, accounts, _ := newRegistrationFixture()
	request, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	account, err := svc.Approve(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.True(t, account.Active)
	assert.Equal(t, request.Phone, account.Phone)
	// Hash must be carried over verbatim, not re-hashed.
	assert.Equal(t, ledger.requests[request.ID].PasswordHash, account.PasswordHash)
	assert.Equal(t, models.RequestApproved, ledger.requests[request.ID].Status)
	assert.Len(t, accounts.accounts, 1)
}

func TestApproveTwiceReturnsNotFound(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture()
	request, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), request.ID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), request.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApproveUnknownRequest(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture()

	_, err := svc.Approve(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApproveConflictWhenIdentityTaken(t *testing.T) {
	svc, _, accounts, _ := newRegistrationFixture()
	request, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	accounts.add(&models.Account{ID: "a1", Phone: request.Phone, Email: "other@gmail.com"})

	_, err = svc.Approve(context.Background(), request.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApproveMapsStorageDuplicate(t *testing.T) {
	svc, ledger, _, _ := newRegistrationFixture()
	request, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	ledger.approveErr = repository.ErrDuplicate
	_, err = svc.Approve(context.Background(), request.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRejectNeverCreatesAccount(t *testing.T) {
	svc, ledger, accounts, _ := newRegistrationFixture()
	request, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), request.ID))
	assert.Equal(t, models.RequestRejected, ledger.requests[request.ID].Status)
	assert.Empty(t, accounts.accounts)

	// A rejected request is terminal for both actions.
	err = svc.Reject(context.Background(), request.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	_, err = svc.Approve(context.Background(), request.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegisterTeacherBypassesLedger(t *testing.T) {
	svc, ledger, accounts, _ := newRegistrationFixture()

	account, err := svc.RegisterTeacher(context.Background(), RegisterTeacherRequest{
		FullName:      "Prof Rao",
		Email:         "rao@gmail.com",
		Phone:         "9123456780",
		Password:      "supersecret",
		Designation:   "Professor",
		Qualification: "PhD",
		Department:    "CSE",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, account.Role)
	assert.True(t, account.Active)
	assert.Empty(t, ledger.requests)
	assert.Len(t, accounts.accounts, 1)
}

func TestRegisterOfficerDuplicate(t *testing.T) {
	svc, _, accounts, _ := newRegistrationFixture()
	accounts.add(&models.Account{ID: "a1", Phone: "9123456780", Email: "tpo@gmail.com"})

	_, err := svc.RegisterOfficer(context.Background(), RegisterOfficerRequest{
		FullName:    "TPO",
		Email:       "tpo@gmail.com",
		Phone:       "9123456780",
		Password:    "supersecret",
		Designation: "Placement Officer",
		College:     "NIT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
