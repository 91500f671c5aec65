package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-cell-api/internal/models"
	"github.com/noah-isme/placement-cell-api/internal/repository"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
	"github.com/noah-isme/placement-cell-api/pkg/export"
)

type placementJobs interface {
	Create(ctx context.Context, job *models.JobPosting) error
	Update(ctx context.Context, job *models.JobPosting) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.JobPosting, error)
	List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, int, error)
	ListEligible(ctx context.Context, cgpa float64, backlogs int, department string, limit int) ([]models.JobPosting, error)
}

type placementApplications interface {
	Create(ctx context.Context, app *models.JobApplication) error
	Exists(ctx context.Context, profileID, jobID string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.JobApplication, error)
	ListByProfile(ctx context.Context, profileID string) ([]models.ApplicationDetail, error)
	ListByJob(ctx context.Context, jobID string) ([]models.ApplicationDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
}

type placementStudents interface {
	FindProfileByID(ctx context.Context, id string) (*models.StudentProfile, error)
	FindProfileByAccountID(ctx context.Context, accountID string) (*models.StudentProfile, error)
}

// SaveJobRequest carries posting fields for create and update.
type SaveJobRequest struct {
	Company            string    `json:"company" validate:"required"`
	Role               string    `json:"role" validate:"required"`
	Location           string    `json:"location" validate:"required"`
	Type               string    `json:"job_type" validate:"required"`
	Salary             string    `json:"salary"`
	Description        string    `json:"description"`
	Skills             string    `json:"skills"`
	MinCGPA            float64   `json:"min_cgpa" validate:"gte=0,lte=10"`
	MaxBacklogs        int       `json:"max_backlogs" validate:"gte=0"`
	AllowedDepartments string    `json:"allowed_departments" validate:"required"`
	Deadline           time.Time `json:"deadline" validate:"required"`
}

// PlacementService owns job postings, the eligibility engine and the
// application pipeline.
type PlacementService struct {
	jobs          placementJobs
	applications  placementApplications
	students      placementStudents
	notifications notificationWriter
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewPlacementService constructs PlacementService.
func NewPlacementService(jobs placementJobs, applications placementApplications, students placementStudents, notifications notificationWriter, validate *validator.Validate, logger *zap.Logger) *PlacementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementService{
		jobs:          jobs,
		applications:  applications,
		students:      students,
		notifications: notifications,
		validator:     validate,
		logger:        logger,
	}
}

// Eligible reports whether the profile clears every posting threshold:
// minimum CGPA, maximum backlogs, and a case-insensitive substring match of
// the student's department against the allowed-departments text.
func Eligible(profile *models.StudentProfile, job *models.JobPosting) bool {
	if profile.OverallCGPA < job.MinCGPA {
		return false
	}
	if profile.TotalBacklogs > job.MaxBacklogs {
		return false
	}
	return strings.Contains(strings.ToLower(job.AllowedDepartments), strings.ToLower(profile.Department))
}

// CreateJob publishes a new posting.
func (s *PlacementService) CreateJob(ctx context.Context, req SaveJobRequest) (*models.JobPosting, error) {
	job, err := s.jobFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create job posting")
	}
	s.logger.Info("job posted", zap.String("job_id", job.ID), zap.String("company", job.Company))
	return job, nil
}

// UpdateJob replaces posting fields.
func (s *PlacementService) UpdateJob(ctx context.Context, id string, req SaveJobRequest) (*models.JobPosting, error) {
	existing, err := s.findJob(ctx, id)
	if err != nil {
		return nil, err
	}
	job, err := s.jobFromRequest(req)
	if err != nil {
		return nil, err
	}
	job.ID = existing.ID
	job.PostedOn = existing.PostedOn
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update job posting")
	}
	return job, nil
}

// DeleteJob removes a posting and its applications.
func (s *PlacementService) DeleteJob(ctx context.Context, id string) error {
	if _, err := s.findJob(ctx, id); err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete job posting")
	}
	return nil
}

// GetJob fetches a single posting.
func (s *PlacementService) GetJob(ctx context.Context, id string) (*models.JobPosting, error) {
	return s.findJob(ctx, id)
}

// ListJobs returns postings newest first.
func (s *PlacementService) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, *models.Pagination, error) {
	jobs, total, err := s.jobs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list job postings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return jobs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// EligibleJobs returns the postings the student currently qualifies for,
// newest first. The filter runs against the profile's derived aggregates, so
// a CGPA change is reflected on the next call with no extra bookkeeping.
func (s *PlacementService) EligibleJobs(ctx context.Context, accountID string, limit int) ([]models.JobPosting, error) {
	profile, err := s.findProfileByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobs.ListEligible(ctx, profile.OverallCGPA, profile.TotalBacklogs, profile.Department, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eligible jobs")
	}
	return jobs, nil
}

// Apply submits the student's application to a posting. Eligibility is
// re-checked at submission time, and the (profile, job) pair is unique; a
// fresh application also drops a confirmation notification.
func (s *PlacementService) Apply(ctx context.Context, accountID, jobID string) (*models.JobApplication, error) {
	profile, err := s.findProfileByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	job, err := s.findJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !Eligible(profile, job) {
		return nil, appErrors.Clone(appErrors.ErrIneligible, "you do not meet the eligibility criteria for this job")
	}

	exists, err := s.applications.Exists(ctx, profile.ID, job.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing application")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyApplied, "you have already applied for this job")
	}

	app := &models.JobApplication{
		ProfileID: profile.ID,
		JobID:     job.ID,
		Status:    models.ApplicationApplied,
	}
	if err := s.applications.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyApplied, "you have already applied for this job")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	payload, err := models.EncodePayload(models.ApplicationConfirmationPayload{
		JobID:   job.ID,
		Company: job.Company,
		JobRole: job.Role,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode application payload")
	}
	notification := &models.Notification{
		AccountID: accountID,
		Kind:      models.KindApplicationConfirmation,
		Title:     "Application Submitted",
		Message:   fmt.Sprintf("Your application for %s at %s has been submitted.", job.Role, job.Company),
		Payload:   payload,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create confirmation notification")
	}

	s.logger.Info("application submitted",
		zap.String("application_id", app.ID),
		zap.String("job_id", job.ID),
		zap.String("profile_id", profile.ID),
	)
	return app, nil
}

// MyApplications returns the student's applications, newest first.
func (s *PlacementService) MyApplications(ctx context.Context, accountID string) ([]models.ApplicationDetail, error) {
	profile, err := s.findProfileByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	apps, err := s.applications.ListByProfile(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, nil
}

// ListApplicants returns a posting's applicants, newest first.
func (s *PlacementService) ListApplicants(ctx context.Context, jobID string) ([]models.ApplicationDetail, error) {
	if _, err := s.findJob(ctx, jobID); err != nil {
		return nil, err
	}
	apps, err := s.applications.ListByJob(ctx, jobID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applicants")
	}
	return apps, nil
}

// UpdateApplicationStatus moves an application through the review pipeline
// and alerts the student.
func (s *PlacementService) UpdateApplicationStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown application status")
	}
	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if err := s.applications.UpdateStatus(ctx, app.ID, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application status")
	}

	s.notifyStatusChange(ctx, app, status)
	return nil
}

// notifyStatusChange is best effort: the status write has already committed.
func (s *PlacementService) notifyStatusChange(ctx context.Context, app *models.JobApplication, status models.ApplicationStatus) {
	profile, err := s.students.FindProfileByID(ctx, app.ProfileID)
	if err != nil {
		s.logger.Warn("failed to resolve applicant for status alert", zap.Error(err), zap.String("application_id", app.ID))
		return
	}
	job, err := s.jobs.FindByID(ctx, app.JobID)
	if err != nil {
		s.logger.Warn("failed to resolve posting for status alert", zap.Error(err), zap.String("application_id", app.ID))
		return
	}
	notification := &models.Notification{
		AccountID: profile.AccountID,
		Kind:      models.KindGeneric,
		Title:     "Application Update",
		Message:   fmt.Sprintf("Your application for %s at %s is now %s.", job.Role, job.Company, status),
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to create status alert", zap.Error(err), zap.String("application_id", app.ID))
	}
}

var applicantExportHeaders = []string{"Name", "Email", "Phone", "Department", "Roll No", "CGPA", "Backlogs", "Status", "Applied On"}

// ExportApplicants renders a posting's applicant list as CSV or PDF bytes.
func (s *PlacementService) ExportApplicants(ctx context.Context, jobID, format string) ([]byte, string, string, error) {
	job, err := s.findJob(ctx, jobID)
	if err != nil {
		return nil, "", "", err
	}
	apps, err := s.applications.ListByJob(ctx, jobID)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applicants")
	}

	sheet := export.Sheet{
		Title:   fmt.Sprintf("Applicants - %s (%s)", job.Company, job.Role),
		Columns: applicantExportHeaders,
	}
	for _, app := range apps {
		sheet.AddRow(
			app.StudentName,
			app.StudentEmail,
			app.StudentPhone,
			app.Department,
			app.RollNo,
			fmt.Sprintf("%.2f", app.OverallCGPA),
			fmt.Sprintf("%d", app.TotalBacklogs),
			string(app.Status),
			app.AppliedOn.Format("2006-01-02"),
		)
	}

	base := fmt.Sprintf("applicants_%s_%s", sanitizeFilename(job.Company), job.ID[:8])
	switch strings.ToLower(format) {
	case "csv", "":
		body, err := export.RenderCSV(sheet)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return body, base + ".csv", "text/csv", nil
	case "pdf":
		body, err := export.RenderPDF(sheet)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return body, base + ".pdf", "application/pdf", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "export format must be csv or pdf")
	}
}

func (s *PlacementService) jobFromRequest(req SaveJobRequest) (*models.JobPosting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job payload")
	}
	jobType := models.JobType(req.Type)
	if !jobType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "job type must be Full Time, Internship or Part Time")
	}
	return &models.JobPosting{
		Company:            req.Company,
		Role:               req.Role,
		Location:           req.Location,
		Type:               jobType,
		Salary:             req.Salary,
		Description:        req.Description,
		Skills:             req.Skills,
		MinCGPA:            req.MinCGPA,
		MaxBacklogs:        req.MaxBacklogs,
		AllowedDepartments: req.AllowedDepartments,
		Deadline:           req.Deadline,
	}, nil
}

func (s *PlacementService) findJob(ctx context.Context, id string) (*models.JobPosting, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job posting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job posting")
	}
	return job, nil
}

func (s *PlacementService) findProfileByAccount(ctx context.Context, accountID string) (*models.StudentProfile, error) {
	profile, err := s.students.FindProfileByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return profile, nil
}

func sanitizeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "job"
	}
	return b.String()
}
