package controller

import (
	"errors"
	"evalmate_backend/internal/model"
	"evalmate_backend/internal/service"
	"evalmate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// FormController is the faculty form-builder surface: create, update,
// duplicate, publish and delete evaluation forms.
type FormController struct {
	FormService *service.FormService
	AuthService *service.AuthService
}

func NewFormController(formService *service.FormService, authService *service.AuthService) *FormController {
	return &FormController{FormService: formService, AuthService: authService}
}

// Save godoc
// @Summary Create or update a form
// @Description Validates the structure document and stores the form; settings inside the structure drive privacy and passcode
// @Tags forms
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.PublishFormInput true "Form document"
// @Success 200 {object} util.Response{data=model.FormTemplate} "Saved"
// @Failure 400 {object} util.Response "Invalid structure"
// @Failure 403 {object} util.Response "Not the owner"
// @Router /api/faculty/forms [post]
func (c *FormController) Save(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.PublishFormInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	form, err := c.FormService.PublishForm(profile, req)
	if err != nil {
		c.renderFormError(ctx, err)
		return
	}

	util.Success(ctx, form)
}

// List godoc
// @Summary List own forms
// @Tags forms
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.FormTemplate} "Success"
// @Router /api/faculty/forms [get]
func (c *FormController) List(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	forms, err := c.FormService.ListOwned(profile)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, forms)
}

// Details godoc
// @Summary Get one of your forms
// @Tags forms
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Success 200 {object} util.Response{data=model.FormTemplate} "Success"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/faculty/forms/{id} [get]
func (c *FormController) Details(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	form, err := c.FormService.Details(profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.renderFormError(ctx, err)
		return
	}
	util.Success(ctx, form)
}

// Duplicate godoc
// @Summary Duplicate a form
// @Description Copies one of your forms; the copy starts private
// @Tags forms
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Success 201 {object} util.Response{data=model.FormTemplate} "Created"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/faculty/forms/{id}/duplicate [post]
func (c *FormController) Duplicate(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	form, err := c.FormService.Duplicate(profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.renderFormError(ctx, err)
		return
	}
	util.Created(ctx, form)
}

// Publish godoc
// @Summary Publish a form
// @Description Makes the form discoverable at its configured accessibility
// @Tags forms
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Success 200 {object} util.Response{data=model.FormTemplate} "Success"
// @Router /api/faculty/forms/{id}/publish [post]
func (c *FormController) Publish(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	form, err := c.FormService.Publish(profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.renderFormError(ctx, err)
		return
	}
	util.Success(ctx, form)
}

// Unpublish godoc
// @Summary Unpublish a form
// @Description Hides the form from search; existing responses are kept
// @Tags forms
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Success 200 {object} util.Response{data=model.FormTemplate} "Success"
// @Router /api/faculty/forms/{id}/unpublish [post]
func (c *FormController) Unpublish(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	form, err := c.FormService.Unpublish(profile, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.renderFormError(ctx, err)
		return
	}
	util.Success(ctx, form)
}

// Delete godoc
// @Summary Delete a form
// @Description Removes the form together with its responses, pendings and drafts
// @Tags forms
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Form ID"
// @Success 200 {object} util.Response "Deleted"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/faculty/forms/{id} [delete]
func (c *FormController) Delete(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.FormService.Delete(profile, util.MustParseUint(ctx.Param("id"))); err != nil {
		c.renderFormError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

func (c *FormController) renderFormError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrFormNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, model.ErrInvalidStructure):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
