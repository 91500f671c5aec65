package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-cell-api/internal/models"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
)

type dashboardStudents interface {
	FindDetailByAccountID(ctx context.Context, accountID string) (*models.StudentDetail, error)
	ListResultsByProfile(ctx context.Context, profileID string) ([]models.SemesterResult, error)
	CountProfiles(ctx context.Context) (int, error)
}

type dashboardJobs interface {
	ListEligible(ctx context.Context, cgpa float64, backlogs int, department string, limit int) ([]models.JobPosting, error)
	Count(ctx context.Context) (int, error)
}

type dashboardApplications interface {
	CountByProfile(ctx context.Context, profileID string) (int, error)
	CountByStatus(ctx context.Context, status models.ApplicationStatus) (int, error)
	Count(ctx context.Context) (int, error)
}

type dashboardRegistrations interface {
	CountByStatus(ctx context.Context, status models.RequestStatus) (int, error)
}

type dashboardAccounts interface {
	CountByRole(ctx context.Context, role models.AccountRole) (int, error)
	FindTeacherProfile(ctx context.Context, accountID string) (*models.TeacherProfile, error)
}

// eligibleJobsPreview caps the posting list embedded in the student summary.
const eligibleJobsPreview = 10

// DashboardService assembles role-specific home summaries. The student
// summary is cached; teacher and officer summaries are cheap counts and hit
// the database directly.
type DashboardService struct {
	students      dashboardStudents
	jobs          dashboardJobs
	applications  dashboardApplications
	registrations dashboardRegistrations
	accounts      dashboardAccounts
	cache         *CacheService
	logger        *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(students dashboardStudents, jobs dashboardJobs, applications dashboardApplications, registrations dashboardRegistrations, accounts dashboardAccounts, cache *CacheService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:      students,
		jobs:          jobs,
		applications:  applications,
		registrations: registrations,
		accounts:      accounts,
		cache:         cache,
		logger:        logger,
	}
}

// Student builds the student home summary, served from cache when fresh.
func (s *DashboardService) Student(ctx context.Context, accountID string) (*models.StudentDashboard, error) {
	key := dashboardCacheKey(accountID)
	var cached models.StudentDashboard
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	detail, err := s.students.FindDetailByAccountID(ctx, accountID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
	}

	results, err := s.students.ListResultsByProfile(ctx, detail.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	eligible, err := s.jobs.ListEligible(ctx, detail.OverallCGPA, detail.TotalBacklogs, detail.Department, eligibleJobsPreview)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eligible jobs")
	}
	applications, err := s.applications.CountByProfile(ctx, detail.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}

	dashboard := &models.StudentDashboard{
		Profile:          *detail,
		Results:          results,
		EligibleJobs:     eligible,
		ApplicationCount: applications,
	}
	if err := s.cache.Set(ctx, key, dashboard); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return dashboard, nil
}

// Teacher builds the reviewer summary.
func (s *DashboardService) Teacher(ctx context.Context, accountID string) (*models.TeacherDashboard, error) {
	department := ""
	if profile, err := s.accounts.FindTeacherProfile(ctx, accountID); err != nil {
		s.logger.Warn("teacher profile missing for dashboard", zap.String("account_id", accountID), zap.Error(err))
	} else {
		department = profile.Department
	}

	pending, err := s.registrations.CountByStatus(ctx, models.RequestPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending requests")
	}
	approved, err := s.registrations.CountByStatus(ctx, models.RequestApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approved requests")
	}
	rejected, err := s.registrations.CountByStatus(ctx, models.RequestRejected)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rejected requests")
	}
	students, err := s.students.CountProfiles(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	return &models.TeacherDashboard{
		Department:       department,
		PendingRequests:  pending,
		ApprovedRequests: approved,
		RejectedRequests: rejected,
		StudentCount:     students,
	}, nil
}

// Officer builds the placement pipeline summary.
func (s *DashboardService) Officer(ctx context.Context) (*models.OfficerDashboard, error) {
	jobs, err := s.jobs.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count jobs")
	}
	applications, err := s.applications.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}
	selected, err := s.applications.CountByStatus(ctx, models.ApplicationSelected)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count selected applications")
	}
	students, err := s.students.CountProfiles(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	teachers, err := s.accounts.CountByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	return &models.OfficerDashboard{
		JobCount:         jobs,
		ApplicationCount: applications,
		SelectedCount:    selected,
		StudentCount:     students,
		TeacherCount:     teachers,
	}, nil
}
