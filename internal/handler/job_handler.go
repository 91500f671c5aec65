package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-cell-api/internal/models"
	"github.com/noah-isme/placement-cell-api/internal/service"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
	"github.com/noah-isme/placement-cell-api/pkg/response"
)

// JobHandler wires HTTP endpoints to the placement service.
type JobHandler struct {
	service *service.PlacementService
}

// NewJobHandler creates a new handler.
func NewJobHandler(svc *service.PlacementService) *JobHandler {
	return &JobHandler{service: svc}
}

// Create godoc
// @Summary Post a job
// @Tags Jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SaveJobRequest true "Job payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /jobs [post]
func (h *JobHandler) Create(c *gin.Context) {
	var req service.SaveJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}

	job, err := h.service.CreateJob(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, job)
}

// Update godoc
// @Summary Update a job
// @Tags Jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Param payload body service.SaveJobRequest true "Job payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id} [put]
func (h *JobHandler) Update(c *gin.Context) {
	var req service.SaveJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}

	job, err := h.service.UpdateJob(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, job, nil)
}

// Delete godoc
// @Summary Delete a job
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id} [delete]
func (h *JobHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteJob(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Get godoc
// @Summary Get a job
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id} [get]
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.service.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, job, nil)
}

// List godoc
// @Summary List jobs
// @Description List postings newest first
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param job_type query string false "Filter by type"
// @Param company query string false "Filter by company"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /jobs [get]
func (h *JobHandler) List(c *gin.Context) {
	filter := models.JobFilter{Company: c.Query("company")}
	if jobType := c.Query("job_type"); jobType != "" {
		t := models.JobType(jobType)
		filter.Type = &t
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	jobs, pagination, err := h.service.ListJobs(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, jobs, pagination)
}

// Eligible godoc
// @Summary List eligible jobs
// @Description Postings the authenticated student currently qualifies for
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/eligible [get]
func (h *JobHandler) Eligible(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	jobs, err := h.service.EligibleJobs(c.Request.Context(), claims.AccountID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, jobs, nil)
}

// Apply godoc
// @Summary Apply to a job
// @Description Eligibility is re-checked; duplicate applications are rejected
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /jobs/{id}/apply [post]
func (h *JobHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	app, err := h.service.Apply(c.Request.Context(), claims.AccountID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, app)
}

// MyApplications godoc
// @Summary List own applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /applications/me [get]
func (h *JobHandler) MyApplications(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	apps, err := h.service.MyApplications(c.Request.Context(), claims.AccountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, apps, nil)
}

// Applicants godoc
// @Summary List a posting's applicants
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id}/applicants [get]
func (h *JobHandler) Applicants(c *gin.Context) {
	apps, err := h.service.ListApplicants(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, apps, nil)
}

// UpdateApplicationStatus godoc
// @Summary Update an application status
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body object true "Status payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id}/status [put]
func (h *JobHandler) UpdateApplicationStatus(c *gin.Context) {
	var payload struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}

	if err := h.service.UpdateApplicationStatus(c.Request.Context(), c.Param("id"), models.ApplicationStatus(payload.Status)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ExportApplicants godoc
// @Summary Export a posting's applicants
// @Description Download the applicant list as CSV or PDF
// @Tags Applications
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id}/applicants/export [get]
func (h *JobHandler) ExportApplicants(c *gin.Context) {
	body, filename, contentType, err := h.service.ExportApplicants(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Download(c, filename, contentType, body)
}
