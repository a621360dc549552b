package controller

import (
	"errors"
	"evalmate_backend/internal/service"
	"evalmate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	ProfileService *service.ProfileService
	AuthService    *service.AuthService
}

func NewProfileController(profileService *service.ProfileService, authService *service.AuthService) *ProfileController {
	return &ProfileController{ProfileService: profileService, AuthService: authService}
}

// UpdatePersonal godoc
// @Summary Update personal details
// @Description Name, email, phone and date of birth; dates are YYYY-MM-DD
// @Tags profiles
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.PersonalInput true "Personal details"
// @Success 200 {object} util.Response{data=model.Profile} "Success"
// @Failure 400 {object} util.Response "Invalid email or date"
// @Router /api/profile/personal [put]
func (c *ProfileController) UpdatePersonal(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.PersonalInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.ProfileService.UpdatePersonal(profile, req)
	if err != nil {
		c.renderProfileError(ctx, err)
		return
	}
	util.Success(ctx, updated)
}

// UpdateAcademic godoc
// @Summary Update academic details
// @Description Major, academic year, expected graduation and GPA on the 0.00 to 4.00 scale
// @Tags profiles
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.AcademicInput true "Academic details"
// @Success 200 {object} util.Response{data=model.Profile} "Success"
// @Failure 400 {object} util.Response "Invalid GPA or date"
// @Router /api/profile/academic [put]
func (c *ProfileController) UpdateAcademic(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.AcademicInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.ProfileService.UpdateAcademic(profile, req)
	if err != nil {
		c.renderProfileError(ctx, err)
		return
	}
	util.Success(ctx, updated)
}

// UploadPicture godoc
// @Summary Upload a profile picture
// @Description Accepts an image file and stores it in the configured storage backend
// @Tags profiles
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param picture formData file true "Image file"
// @Success 200 {object} util.Response{data=object} "Success"
// @Failure 400 {object} util.Response "Not an image"
// @Router /api/profile/picture [post]
func (c *ProfileController) UploadPicture(ctx *gin.Context) {
	profile := c.AuthService.GetCurrentProfile(ctx)
	if profile == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("picture")
	if err != nil {
		util.BadRequest(ctx, "Missing picture file")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := c.ProfileService.UploadPicture(ctx.Request.Context(), profile, fileHeader.Filename, file, fileHeader.Size, contentType)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, gin.H{"profile_picture_url": url})
}

func (c *ProfileController) renderProfileError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrInvalidEmail),
		errors.Is(err, util.ErrInvalidDate),
		errors.Is(err, util.ErrInvalidGPA):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
