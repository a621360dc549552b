package controller

import (
	"errors"
	"evalmate_backend/internal/service"
	"evalmate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// EvaluationController is the student-facing wizard surface: form search
// and access, then team setup, per-teammate submission and navigation.
type EvaluationController struct {
	FormService       *service.FormService
	EvaluationService *service.EvaluationService
	AuthService       *service.AuthService
}

func NewEvaluationController(
	formService *service.FormService,
	evaluationService *service.EvaluationService,
	authService *service.AuthService,
) *EvaluationController {
	return &EvaluationController{
		FormService:       formService,
		EvaluationService: evaluationService,
		AuthService:       authService,
	}
}

// Search godoc
// @Summary Search evaluation forms
// @Description Matches published forms at the student's institution by course id or title; an empty query returns nothing
// @Tags evaluations
// @Produce json
// @Security ApiKeyAuth
// @Param q query string false "Course id or title fragment"
// @Success 200 {object} util.Response{data=[]service.SearchResult} "Success"
// @Router /api/student/forms/search [get]
func (c *EvaluationController) Search(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	results, err := c.FormService.Search(profile, ctx.Query("q"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"results": results})
}

// swagger:model AccessFormRequest
type AccessFormRequest struct {
	Passcode string `json:"passcode"`
}

// Access godoc
// @Summary Accept a form
// @Description Verifies the passcode if the form requires one and adds the form to the student's pending list; repeat calls are no-ops
// @Tags evaluations
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Param body body AccessFormRequest false "Passcode when required"
// @Success 200 {object} util.Response{data=object} "Accepted"
// @Failure 400 {object} util.Response "Passcode required or incorrect"
// @Failure 404 {object} util.Response "Form not found"
// @Failure 410 {object} util.Response "Form expired"
// @Router /api/student/forms/{id}/access [post]
func (c *EvaluationController) Access(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AccessFormRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	pending, created, err := c.FormService.Access(ctx.Request.Context(), profile, util.MustParseUint(ctx.Param("id")), req.Passcode)
	if err != nil {
		c.renderAccessError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"success":    true,
		"pending_id": pending.ID,
		"created":    created,
	})
}

// Open godoc
// @Summary Open an accepted form
// @Description Returns the form document for rendering; the passcode gate must already be satisfied
// @Tags evaluations
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Success 200 {object} util.Response{data=model.FormTemplate} "Success"
// @Failure 404 {object} util.Response "Form not found"
// @Router /api/student/forms/{id} [get]
func (c *EvaluationController) Open(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	form, err := c.FormService.CheckAccess(ctx.Request.Context(), profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.renderAccessError(ctx, err)
		return
	}
	util.Success(ctx, form)
}

// swagger:model TeamSetupRequest
type TeamSetupRequest struct {
	TeamName  string   `json:"team_name" binding:"required"`
	Teammates []string `json:"teammates" binding:"required"`
	ForceEdit bool     `json:"force_edit"`
}

// TeamSetup godoc
// @Summary Start the evaluation wizard
// @Description Validates team size against the form's bounds and starts the wizard; an existing draft resumes instead unless force_edit is set
// @Tags evaluations
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Param body body TeamSetupRequest true "Team details"
// @Success 200 {object} util.Response{data=service.WizardStep} "Success"
// @Failure 400 {object} util.Response "Team size out of range"
// @Router /api/student/evaluations/{id}/team [post]
func (c *EvaluationController) TeamSetup(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	var req TeamSetupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	form, err := c.FormService.CheckAccess(ctx.Request.Context(), profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.renderAccessError(ctx, err)
		return
	}

	step, err := c.EvaluationService.TeamSetup(ctx.Request.Context(), profile, form, req.TeamName, req.Teammates, req.ForceEdit)
	if err != nil {
		c.renderWizardError(ctx, err)
		return
	}
	util.Success(ctx, step)
}

// Resume godoc
// @Summary Resume the evaluation wizard
// @Description Restores wizard state from the session, falling back to the saved draft
// @Tags evaluations
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Success 200 {object} util.Response{data=service.WizardStep} "Success"
// @Failure 404 {object} util.Response "Nothing to resume"
// @Router /api/student/evaluations/{id}/resume [get]
func (c *EvaluationController) Resume(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	step, err := c.EvaluationService.Resume(ctx.Request.Context(), profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.renderWizardError(ctx, err)
		return
	}
	util.Success(ctx, step)
}

// swagger:model SubmitTeammateRequest
type SubmitTeammateRequest struct {
	Teammate string            `json:"teammate" binding:"required"`
	Answers  map[string]string `json:"answers" binding:"required"`
}

// Submit godoc
// @Summary Submit one teammate's answers
// @Description Records the evaluation for a teammate; resubmitting replaces the previous answers. When all teammates are covered the whole evaluation commits atomically
// @Tags evaluations
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Param body body SubmitTeammateRequest true "Answers keyed by question id"
// @Success 200 {object} util.Response{data=service.WizardStep} "Success"
// @Failure 400 {object} util.Response "Unknown teammate"
// @Router /api/student/evaluations/{id}/submit [post]
func (c *EvaluationController) Submit(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitTeammateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	form, err := c.FormService.CheckAccess(ctx.Request.Context(), profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.renderAccessError(ctx, err)
		return
	}

	step, err := c.EvaluationService.SubmitTeammate(ctx.Request.Context(), profile, form, req.Teammate, req.Answers)
	if err != nil {
		c.renderWizardError(ctx, err)
		return
	}
	util.Success(ctx, step)
}

// swagger:model NavigateRequest
type NavigateRequest struct {
	Index int `json:"index"`
}

// Navigate godoc
// @Summary Jump to a teammate
// @Description Moves the wizard cursor without touching recorded answers
// @Tags evaluations
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Param body body NavigateRequest true "Teammate index"
// @Success 200 {object} util.Response{data=service.WizardStep} "Success"
// @Failure 400 {object} util.Response "Index out of range"
// @Router /api/student/evaluations/{id}/navigate [post]
func (c *EvaluationController) Navigate(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	var req NavigateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	step, err := c.EvaluationService.Navigate(ctx.Request.Context(), profile, util.MustParseUint(ctx.Param("id")), req.Index)
	if err != nil {
		c.renderWizardError(ctx, err)
		return
	}
	util.Success(ctx, step)
}

func (c *EvaluationController) renderAccessError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrFormNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrFormExpired):
		util.Error(ctx, 410, "This form is past its due date")
	case errors.Is(err, util.ErrPasscodeRequired):
		util.BadRequest(ctx, "This form requires a passcode")
	case errors.Is(err, util.ErrPasscodeIncorrect):
		util.BadRequest(ctx, "Incorrect passcode")
	default:
		util.LogInternalError(ctx, err)
	}
}

func (c *EvaluationController) renderWizardError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrNoWizardSession):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrTeamSizeOutOfRange),
		errors.Is(err, util.ErrTeammateUnknown):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrAlreadySubmitted):
		util.Conflict(ctx, "This evaluation has already been submitted")
	default:
		util.LogInternalError(ctx, err)
	}
}
