package controller

import (
	"errors"
	"evalmate_backend/internal/service"
	"evalmate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ReportController serves the faculty reporting views.
type ReportController struct {
	ReportService *service.ReportService
	AuthService   *service.AuthService
}

func NewReportController(reportService *service.ReportService, authService *service.AuthService) *ReportController {
	return &ReportController{ReportService: reportService, AuthService: authService}
}

// Dashboard godoc
// @Summary Faculty dashboard
// @Description Summary card for every form the faculty member owns
// @Tags reports
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.FormSummary} "Success"
// @Router /api/faculty/dashboard [get]
func (c *ReportController) Dashboard(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	summaries, err := c.ReportService.FacultyDashboard(profile)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"forms": summaries})
}

// Summary godoc
// @Summary Per-form summary
// @Description Logical submission count, today's submissions and unread flag for one form
// @Tags reports
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Success 200 {object} util.Response{data=service.FormSummary} "Success"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/faculty/forms/{id}/summary [get]
func (c *ReportController) Summary(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.ReportService.FormSummary(profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.renderReportError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Responses godoc
// @Summary Form responses grouped by submitter and team
// @Tags reports
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Success 200 {object} util.Response{data=object} "Success"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/faculty/forms/{id}/responses [get]
func (c *ReportController) Responses(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	overviews, err := c.ReportService.FormResponses(profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.renderReportError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"submissions": overviews})
}

// ResponseDetail godoc
// @Summary One teammate response with answers
// @Description Viewing an unread response marks it read
// @Tags reports
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Response ID"
// @Success 200 {object} util.Response{data=service.ResponseDetail} "Success"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/faculty/responses/{id} [get]
func (c *ReportController) ResponseDetail(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	detail, err := c.ReportService.ResponseDetail(profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.renderReportError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

func (c *ReportController) renderReportError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrFormNotFound), errors.Is(err, util.ErrResponseNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
