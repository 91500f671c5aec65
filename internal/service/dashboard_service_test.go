package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-cell-api/internal/models"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	deletes []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletes = append(m.deletes, pattern)
	delete(m.entries, pattern)
	return nil
}

type countingRegistrations struct {
	byStatus map[models.RequestStatus]int
}

func (c *countingRegistrations) CountByStatus(ctx context.Context, status models.RequestStatus) (int, error) {
	return c.byStatus[status], nil
}

type countingAccounts struct {
	byRole         map[models.AccountRole]int
	teacherProfile *models.TeacherProfile
}

func (c *countingAccounts) CountByRole(ctx context.Context, role models.AccountRole) (int, error) {
	return c.byRole[role], nil
}

func (c *countingAccounts) FindTeacherProfile(ctx context.Context, accountID string) (*models.TeacherProfile, error) {
	if c.teacherProfile == nil {
		return nil, sql.ErrNoRows
	}
	return c.teacherProfile, nil
}

type countingStudents struct {
	*mockStudentRepo
	total int
}

func (c *countingStudents) CountProfiles(ctx context.Context) (int, error) {
	return c.total, nil
}

type countingApplications struct {
	*mockApplicationRepo
	total    int
	byStatus map[models.ApplicationStatus]int
}

func (c *countingApplications) CountByProfile(ctx context.Context, profileID string) (int, error) {
	count := 0
	for _, a := range c.apps {
		if a.ProfileID == profileID {
			count++
		}
	}
	return count, nil
}

func (c *countingApplications) CountByStatus(ctx context.Context, status models.ApplicationStatus) (int, error) {
	return c.byStatus[status], nil
}

func (c *countingApplications) Count(ctx context.Context) (int, error) {
	return c.total, nil
}

func TestStudentDashboardCachesSummary(t *testing.T) {
	students := &countingStudents{mockStudentRepo: newMockStudentRepo(), total: 1}
	students.profiles["p1"] = eligibleProfile()
	students.results["p1"] = []models.SemesterResult{{Semester: "1", GPA: 8.2, Credits: 20}}
	jobs := newMockJobRepo()
	require.NoError(t, jobs.Create(context.Background(), openPosting()))
	apps := &countingApplications{mockApplicationRepo: newMockApplicationRepo()}

	cacheRepo := newMemoryCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewDashboardService(students, jobs, apps, &countingRegistrations{}, &countingAccounts{}, cacheSvc, nil)

	dashboard, err := svc.Student(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "p1", dashboard.Profile.ID)
	assert.Len(t, dashboard.Results, 1)
	assert.Len(t, dashboard.EligibleJobs, 1)
	assert.Contains(t, cacheRepo.entries, "dashboard:student:a1")

	// Second call is served from cache even after the backing data changes.
	students.results["p1"] = nil
	cached, err := svc.Student(context.Background(), "a1")
	require.NoError(t, err)
	assert.Len(t, cached.Results, 1)
}

func TestStudentDashboardUnknownAccount(t *testing.T) {
	students := &countingStudents{mockStudentRepo: newMockStudentRepo()}
	svc := NewDashboardService(students, newMockJobRepo(), &countingApplications{mockApplicationRepo: newMockApplicationRepo()}, &countingRegistrations{}, &countingAccounts{}, nil, nil)

	_, err := svc.Student(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherDashboardCounts(t *testing.T) {
	registrations := &countingRegistrations{byStatus: map[models.RequestStatus]int{
		models.RequestPending:  3,
		models.RequestApproved: 5,
		models.RequestRejected: 1,
	}}
	students := &countingStudents{mockStudentRepo: newMockStudentRepo(), total: 5}
	accounts := &countingAccounts{teacherProfile: &models.TeacherProfile{AccountID: "t1", Department: "CSE"}}
	svc := NewDashboardService(students, newMockJobRepo(), &countingApplications{mockApplicationRepo: newMockApplicationRepo()}, registrations, accounts, nil, nil)

	dashboard, err := svc.Teacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "CSE", dashboard.Department)
	assert.Equal(t, 3, dashboard.PendingRequests)
	assert.Equal(t, 5, dashboard.ApprovedRequests)
	assert.Equal(t, 1, dashboard.RejectedRequests)
	assert.Equal(t, 5, dashboard.StudentCount)
}

func TestOfficerDashboardCounts(t *testing.T) {
	jobs := newMockJobRepo()
	require.NoError(t, jobs.Create(context.Background(), openPosting()))
	apps := &countingApplications{
		mockApplicationRepo: newMockApplicationRepo(),
		total:               7,
		byStatus:            map[models.ApplicationStatus]int{models.ApplicationSelected: 2},
	}
	students := &countingStudents{mockStudentRepo: newMockStudentRepo(), total: 12}
	accounts := &countingAccounts{byRole: map[models.AccountRole]int{models.RoleTeacher: 4}}
	svc := NewDashboardService(students, jobs, apps, &countingRegistrations{}, accounts, nil, nil)

	dashboard, err := svc.Officer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, dashboard.JobCount)
	assert.Equal(t, 7, dashboard.ApplicationCount)
	assert.Equal(t, 2, dashboard.SelectedCount)
	assert.Equal(t, 12, dashboard.StudentCount)
	assert.Equal(t, 4, dashboard.TeacherCount)
}
