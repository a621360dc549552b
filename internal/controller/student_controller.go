package controller

import (
	"encoding/json"
	"errors"
	"evalmate_backend/internal/service"
	"evalmate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// StudentController serves the student dashboard: pending evaluations,
// submission history and draft persistence.
type StudentController struct {
	StudentService *service.StudentService
	AuthService    *service.AuthService
}

func NewStudentController(studentService *service.StudentService, authService *service.AuthService) *StudentController {
	return &StudentController{StudentService: studentService, AuthService: authService}
}

// Pending godoc
// @Summary List pending evaluations
// @Description Pending forms with derived days_left and urgency status
// @Tags students
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/student/pending [get]
func (c *StudentController) Pending(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.StudentService.PendingEvaluations(profile)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"pending_evaluations": items})
}

// RemovePending godoc
// @Summary Remove a pending evaluation
// @Tags students
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Pending ID"
// @Success 200 {object} util.Response "Removed"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/student/pending/{id} [delete]
func (c *StudentController) RemovePending(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	err := c.StudentService.RemovePending(profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPendingNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"success": true})
}

// History godoc
// @Summary Submission history
// @Description Committed evaluations grouped by form and team
// @Tags students
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/student/history [get]
func (c *StudentController) History(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.StudentService.History(profile)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"history": items})
}

// HistoryDetail godoc
// @Summary One of your submitted responses
// @Tags students
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Response ID"
// @Success 200 {object} util.Response{data=model.FormResponse} "Success"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/student/history/{id} [get]
func (c *StudentController) HistoryDetail(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	resp, err := c.StudentService.HistoryDetail(profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrResponseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, resp)
}

// swagger:model SaveDraftRequest
type SaveDraftRequest struct {
	State json.RawMessage `json:"state" binding:"required"`
}

// SaveDraft godoc
// @Summary Save a draft
// @Description Persists the raw wizard state, replacing any earlier draft for the form
// @Tags students
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Param body body SaveDraftRequest true "Wizard state"
// @Success 200 {object} util.Response{data=object} "Saved"
// @Failure 400 {object} util.Response "Unrecognizable state"
// @Router /api/student/drafts/{id} [put]
func (c *StudentController) SaveDraft(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SaveDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	draft, err := c.StudentService.SaveDraft(profile, util.MustParseUint(ctx.Param("id")), req.State)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNoWizardSession):
			util.BadRequest(ctx, "Draft state is not recognizable")
		case errors.Is(err, util.ErrFormNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"draft_id": draft.ID})
}

// GetDraft godoc
// @Summary Fetch a saved draft
// @Tags students
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Success 200 {object} util.Response{data=model.DraftResponse} "Success"
// @Failure 404 {object} util.Response "No draft"
// @Router /api/student/drafts/{id} [get]
func (c *StudentController) GetDraft(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	draft, err := c.StudentService.GetDraft(profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrDraftNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, draft)
}

// DeleteDraft godoc
// @Summary Discard a saved draft
// @Tags students
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Success 200 {object} util.Response "Deleted"
// @Router /api/student/drafts/{id} [delete]
func (c *StudentController) DeleteDraft(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.StudentService.DeleteDraft(profile, util.MustParseUint(ctx.Param("id"))); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"success": true})
}

// Dashboard godoc
// @Summary Student dashboard counters
// @Tags students
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.DashboardSummary} "Success"
// @Router /api/student/dashboard [get]
func (c *StudentController) Dashboard(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.StudentService.Dashboard(profile)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
