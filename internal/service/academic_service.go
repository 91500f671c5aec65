package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-cell-api/internal/models"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
)

// completionChecklistSize is the number of profile fields counted toward the
// completion percentage: dob, gender, college, department, course, semester,
// roll_no, image, skills, resume, and having at least one semester result.
const completionChecklistSize = 11

type academicStudentRepo interface {
	FindProfileByID(ctx context.Context, id string) (*models.StudentProfile, error)
	FindProfileByAccountID(ctx context.Context, accountID string) (*models.StudentProfile, error)
	FindDetailByAccountID(ctx context.Context, accountID string) (*models.StudentDetail, error)
	UpdateProfile(ctx context.Context, profile *models.StudentProfile) error
	UpdateAggregates(ctx context.Context, profileID string, cgpa float64, backlogs, completion int) error
	UpsertResult(ctx context.Context, result *models.SemesterResult) error
	ListResultsByProfile(ctx context.Context, profileID string) ([]models.SemesterResult, error)
}

// RecordResultRequest is a single semester result entry.
type RecordResultRequest struct {
	Semester string  `json:"semester" validate:"required"`
	GPA      float64 `json:"gpa" validate:"gte=0,lte=10"`
	Credits  int     `json:"credits" validate:"gte=0"`
	Backlogs int     `json:"backlogs" validate:"gte=0"`
}

// UpdateProfileRequest patches the editable student profile fields. Nil
// pointers leave the stored value untouched.
type UpdateProfileRequest struct {
	DOB      *string `json:"dob"`
	Gender   *string `json:"gender"`
	College  *string `json:"college"`
	Course   *string `json:"course"`
	Semester *string `json:"semester"`
	RollNo   *string `json:"roll_no"`
	Skills   *string `json:"skills"`
	Image    *string `json:"image"`
	Resume   *string `json:"resume"`
}

// AcademicService maintains semester results and the derived academic
// rollup on the owning profile.
type AcademicService struct {
	students  academicStudentRepo
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicService constructs AcademicService.
func NewAcademicService(students academicStudentRepo, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AcademicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicService{students: students, cache: cache, validator: validate, logger: logger}
}

// RecordResult upserts a semester result keyed by (profile, semester) and
// synchronously recomputes the profile's derived fields.
func (s *AcademicService) RecordResult(ctx context.Context, profileID string, req RecordResultRequest) (*models.StudentProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}
	if strings.TrimSpace(req.Semester) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester label required")
	}

	profile, err := s.students.FindProfileByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	result := &models.SemesterResult{
		ProfileID: profile.ID,
		Semester:  strings.TrimSpace(req.Semester),
		GPA:       req.GPA,
		Credits:   req.Credits,
		Backlogs:  req.Backlogs,
	}
	if err := s.students.UpsertResult(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record result")
	}

	return s.recompute(ctx, profile)
}

// Recompute reloads the result set and rewrites the derived profile fields.
// Exposed for callers that mutate results out of band.
func (s *AcademicService) Recompute(ctx context.Context, profileID string) (*models.StudentProfile, error) {
	profile, err := s.students.FindProfileByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return s.recompute(ctx, profile)
}

func (s *AcademicService) recompute(ctx context.Context, profile *models.StudentProfile) (*models.StudentProfile, error) {
	results, err := s.students.ListResultsByProfile(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}

	aggregates := ComputeAggregates(results)
	completion := CompletionScore(profile, len(results) > 0)

	if err := s.students.UpdateAggregates(ctx, profile.ID, aggregates.OverallCGPA, aggregates.TotalBacklogs, completion); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist aggregates")
	}

	profile.OverallCGPA = aggregates.OverallCGPA
	profile.TotalBacklogs = aggregates.TotalBacklogs
	profile.ProfileCompletion = completion

	s.invalidateDashboard(ctx, profile.AccountID)
	return profile, nil
}

// ListResults returns the recorded results for a profile.
func (s *AcademicService) ListResults(ctx context.Context, profileID string) ([]models.SemesterResult, error) {
	if _, err := s.students.FindProfileByID(ctx, profileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	results, err := s.students.ListResultsByProfile(ctx, profileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}

// GetDetail returns the profile joined with account fields.
func (s *AcademicService) GetDetail(ctx context.Context, accountID string) (*models.StudentDetail, error) {
	detail, err := s.students.FindDetailByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student detail")
	}
	return detail, nil
}

// UpdateProfile patches demographic fields and rescores completion. The
// derived CGPA/backlog columns are untouched; only the checklist changes.
func (s *AcademicService) UpdateProfile(ctx context.Context, accountID string, req UpdateProfileRequest) (*models.StudentProfile, error) {
	profile, err := s.students.FindProfileByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	applyIfSet(&profile.DOB, req.DOB)
	applyIfSet(&profile.Gender, req.Gender)
	applyIfSet(&profile.College, req.College)
	applyIfSet(&profile.Course, req.Course)
	applyIfSet(&profile.Semester, req.Semester)
	applyIfSet(&profile.Skills, req.Skills)
	applyIfSet(&profile.Image, req.Image)
	applyIfSet(&profile.Resume, req.Resume)
	if req.RollNo != nil {
		if !isDigits(*req.RollNo) || len(*req.RollNo) != 10 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "roll number must be exactly 10 digits")
		}
		profile.RollNo = *req.RollNo
	}

	results, err := s.students.ListResultsByProfile(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	profile.ProfileCompletion = CompletionScore(profile, len(results) > 0)

	if err := s.students.UpdateProfile(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	s.invalidateDashboard(ctx, profile.AccountID)
	return profile, nil
}

func (s *AcademicService) invalidateDashboard(ctx context.Context, accountID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCacheKey(accountID)); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

// ComputeAggregates folds the full result set into the derived rollup. The
// fold is commutative, so recomputation is order-independent and idempotent.
func ComputeAggregates(results []models.SemesterResult) models.AcademicAggregates {
	if len(results) == 0 {
		return models.AcademicAggregates{}
	}

	var weighted float64
	var credits, backlogs int
	for _, result := range results {
		weighted += result.GPA * float64(result.Credits)
		credits += result.Credits
		backlogs += result.Backlogs
	}

	var cgpa float64
	if credits > 0 {
		cgpa = math.Round(weighted/float64(credits)*100) / 100
	}
	return models.AcademicAggregates{OverallCGPA: cgpa, TotalBacklogs: backlogs}
}

// CompletionScore counts the non-empty checklist fields and returns the
// floored percentage in [0, 100].
func CompletionScore(profile *models.StudentProfile, hasResults bool) int {
	fields := []string{
		profile.DOB,
		profile.Gender,
		profile.College,
		profile.Department,
		profile.Course,
		profile.Semester,
		profile.RollNo,
		profile.Image,
		profile.Skills,
		profile.Resume,
	}
	filled := 0
	for _, field := range fields {
		if strings.TrimSpace(field) != "" {
			filled++
		}
	}
	if hasResults {
		filled++
	}
	return filled * 100 / completionChecklistSize
}

func applyIfSet(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func dashboardCacheKey(accountID string) string {
	return "dashboard:student:" + accountID
}
