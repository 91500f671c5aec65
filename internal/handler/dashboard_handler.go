package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-cell-api/internal/service"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
	"github.com/noah-isme/placement-cell-api/pkg/response"
)

// DashboardHandler wires HTTP endpoints to the role dashboards.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Student godoc
// @Summary Student dashboard
// @Description Profile, results, eligible jobs and application count
// @Tags Dashboards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboards/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dashboard, err := h.service.Student(c.Request.Context(), claims.AccountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Teacher godoc
// @Summary Teacher dashboard
// @Description Registration workload counts
// @Tags Dashboards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboards/teacher [get]
func (h *DashboardHandler) Teacher(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dashboard, err := h.service.Teacher(c.Request.Context(), claims.AccountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Officer godoc
// @Summary Placement officer dashboard
// @Description Placement pipeline counts
// @Tags Dashboards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboards/officer [get]
func (h *DashboardHandler) Officer(c *gin.Context) {
	dashboard, err := h.service.Officer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dashboard, nil)
}
