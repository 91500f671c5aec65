package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-cell-api/internal/models"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
)

type mockStudentRepo struct {
	profiles map[string]*models.StudentProfile
	results  map[string][]models.SemesterResult
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{
		profiles: make(map[string]*models.StudentProfile),
		results:  make(map[string][]models.SemesterResult),
	}
}

func (m *mockStudentRepo) FindProfileByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	if p, ok := m.profiles[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindProfileByAccountID(ctx context.Context, accountID string) (*models.StudentProfile, error) {
	for _, p := range m.profiles {
		if p.AccountID == accountID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindDetailByAccountID(ctx context.Context, accountID string) (*models.StudentDetail, error) {
	profile, err := m.FindProfileByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &models.StudentDetail{StudentProfile: *profile}, nil
}

func (m *mockStudentRepo) UpdateProfile(ctx context.Context, profile *models.StudentProfile) error {
	copy := *profile
	m.profiles[profile.ID] = &copy
	return nil
}

func (m *mockStudentRepo) UpdateAggregates(ctx context.Context, profileID string, cgpa float64, backlogs, completion int) error {
	p, ok := m.profiles[profileID]
	if !ok {
		return sql.ErrNoRows
	}
	p.OverallCGPA = cgpa
	p.TotalBacklogs = backlogs
	p.ProfileCompletion = completion
	return nil
}

func (m *mockStudentRepo) UpsertResult(ctx context.Context, result *models.SemesterResult) error {
	existing := m.results[result.ProfileID]
	for i, r := range existing {
		if r.Semester == result.Semester {
			existing[i] = *result
			return nil
		}
	}
	m.results[result.ProfileID] = append(existing, *result)
	return nil
}

func (m *mockStudentRepo) ListResultsByProfile(ctx context.Context, profileID string) ([]models.SemesterResult, error) {
	return m.results[profileID], nil
}

func TestComputeAggregatesWeightedAverage(t *testing.T) {
	results := []models.SemesterResult{
		{Semester: "1", GPA: 8.0, Credits: 20, Backlogs: 1},
		{Semester: "2", GPA: 9.0, Credits: 20, Backlogs: 0},
	}
	agg := ComputeAggregates(results)
	assert.Equal(t, 8.5, agg.OverallCGPA)
	assert.Equal(t, 1, agg.TotalBacklogs)
}

func TestComputeAggregatesOrderIndependent(t *testing.T) {
	a := []models.SemesterResult{
		{Semester: "1", GPA: 7.25, Credits: 18, Backlogs: 2},
		{Semester: "2", GPA: 8.75, Credits: 22, Backlogs: 0},
		{Semester: "3", GPA: 6.5, Credits: 20, Backlogs: 1},
	}
	b := []models.SemesterResult{a[2], a[0], a[1]}
	assert.Equal(t, ComputeAggregates(a), ComputeAggregates(b))
}

func TestComputeAggregatesRounding(t *testing.T) {
	results := []models.SemesterResult{
		{Semester: "1", GPA: 7.0, Credits: 3},
		{Semester: "2", GPA: 8.0, Credits: 3},
		{Semester: "3", GPA: 8.0, Credits: 3},
	}
	// 23/3 = 7.666... rounds to 7.67
	agg := ComputeAggregates(results)
	assert.Equal(t, 7.67, agg.OverallCGPA)
}

func TestComputeAggregatesZeroCredits(t *testing.T) {
	results := []models.SemesterResult{
		{Semester: "1", GPA: 9.0, Credits: 0, Backlogs: 3},
	}
	agg := ComputeAggregates(results)
	assert.Equal(t, 0.0, agg.OverallCGPA)
	assert.Equal(t, 3, agg.TotalBacklogs)
}

func TestComputeAggregatesEmpty(t *testing.T) {
	assert.Equal(t, models.AcademicAggregates{}, ComputeAggregates(nil))
}

func TestCompletionScoreSteps(t *testing.T) {
	profile := &models.StudentProfile{}
	assert.Equal(t, 0, CompletionScore(profile, false))

	profile.DOB = "2003-05-01"
	assert.Equal(t, 9, CompletionScore(profile, false)) // 1/11 floored

	profile.Gender = "F"
	profile.College = "NIT"
	profile.Department = "CSE"
	profile.Course = "B.Tech"
	profile.Semester = "6"
	profile.RollNo = "2021000042"
	profile.Image = "photo.png"
	profile.Skills = "go,sql"
	profile.Resume = "resume.pdf"
	assert.Equal(t, 90, CompletionScore(profile, false)) // 10/11 floored
	assert.Equal(t, 100, CompletionScore(profile, true))
}

func TestCompletionScoreIgnoresBlankFields(t *testing.T) {
	profile := &models.StudentProfile{DOB: "   ", Gender: "M"}
	assert.Equal(t, 9, CompletionScore(profile, false))
}

func TestRecordResultRecomputesAggregates(t *testing.T) {
	repo := newMockStudentRepo()
	repo.profiles["p1"] = &models.StudentProfile{ID: "p1", AccountID: "a1", Department: "CSE"}
	svc := NewAcademicService(repo, nil, nil, nil)

	profile, err := svc.RecordResult(context.Background(), "p1", RecordResultRequest{Semester: "1", GPA: 8.0, Credits: 20, Backlogs: 1})
	require.NoError(t, err)
	assert.Equal(t, 8.0, profile.OverallCGPA)
	assert.Equal(t, 1, profile.TotalBacklogs)

	profile, err = svc.RecordResult(context.Background(), "p1", RecordResultRequest{Semester: "2", GPA: 9.0, Credits: 20, Backlogs: 0})
	require.NoError(t, err)
	assert.Equal(t, 8.5, profile.OverallCGPA)
	assert.Equal(t, 1, profile.TotalBacklogs)
}

func TestRecordResultSameSemesterReplaces(t *testing.T) {
	repo := newMockStudentRepo()
	repo.profiles["p1"] = &models.StudentProfile{ID: "p1", AccountID: "a1"}
	svc := NewAcademicService(repo, nil, nil, nil)

	_, err := svc.RecordResult(context.Background(), "p1", RecordResultRequest{Semester: "1", GPA: 6.0, Credits: 20, Backlogs: 2})
	require.NoError(t, err)
	profile, err := svc.RecordResult(context.Background(), "p1", RecordResultRequest{Semester: "1", GPA: 8.0, Credits: 20, Backlogs: 0})
	require.NoError(t, err)

	assert.Equal(t, 8.0, profile.OverallCGPA)
	assert.Equal(t, 0, profile.TotalBacklogs)
	assert.Len(t, repo.results["p1"], 1)
}

func TestRecordResultUnknownProfile(t *testing.T) {
	svc := NewAcademicService(newMockStudentRepo(), nil, nil, nil)

	_, err := svc.RecordResult(context.Background(), "missing", RecordResultRequest{Semester: "1", GPA: 8.0, Credits: 20})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordResultRejectsInvalidGPA(t *testing.T) {
	repo := newMockStudentRepo()
	repo.profiles["p1"] = &models.StudentProfile{ID: "p1"}
	svc := NewAcademicService(repo, nil, nil, nil)

	_, err := svc.RecordResult(context.Background(), "p1", RecordResultRequest{Semester: "1", GPA: 11, Credits: 20})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateProfileRescoresCompletion(t *testing.T) {
	repo := newMockStudentRepo()
	repo.profiles["p1"] = &models.StudentProfile{ID: "p1", AccountID: "a1", Department: "CSE"}
	svc := NewAcademicService(repo, nil, nil, nil)

	skills := "go,sql"
	profile, err := svc.UpdateProfile(context.Background(), "a1", UpdateProfileRequest{Skills: &skills})
	require.NoError(t, err)
	assert.Equal(t, "go,sql", profile.Skills)
	assert.Equal(t, 18, profile.ProfileCompletion) // department + skills = 2/11
}

func TestUpdateProfileRejectsBadRollNo(t *testing.T) {
	repo := newMockStudentRepo()
	repo.profiles["p1"] = &models.StudentProfile{ID: "p1", AccountID: "a1"}
	svc := NewAcademicService(repo, nil, nil, nil)

	rollNo := "12ab"
	_, err := svc.UpdateProfile(context.Background(), "a1", UpdateProfileRequest{RollNo: &rollNo})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
