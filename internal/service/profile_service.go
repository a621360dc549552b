package service

import (
	"bytes"
	"context"
	"evalmate_backend/internal/model"
	"evalmate_backend/internal/repository"
	"evalmate_backend/internal/util"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// ProfileService handles self-service profile edits. Each update endpoint
// validates its own field group and leaves the rest of the row untouched.
type ProfileService struct {
	ProfileRepo *repository.ProfileRepository
	Storage     *StorageService
}

func NewProfileService(profileRepo *repository.ProfileRepository, storage *StorageService) *ProfileService {
	return &ProfileService{ProfileRepo: profileRepo, Storage: storage}
}

// PersonalInput carries the personal-details form. Dates arrive as
// YYYY-MM-DD strings; empty means leave unchanged or clear, per field.
type PersonalInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	DateOfBirth string `json:"date_of_birth"`
}

func (s *ProfileService) UpdatePersonal(profile *model.Profile, in PersonalInput) (*model.Profile, error) {
	if in.Email != "" {
		if !util.ValidEmail(in.Email) {
			return nil, util.ErrInvalidEmail
		}
		profile.Email = in.Email
	}
	if in.FirstName != "" {
		profile.FirstName = strings.TrimSpace(in.FirstName)
	}
	if in.LastName != "" {
		profile.LastName = strings.TrimSpace(in.LastName)
	}
	profile.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	if in.DateOfBirth != "" {
		dob, err := time.Parse(util.DateFormat, in.DateOfBirth)
		if err != nil {
			return nil, util.ErrInvalidDate
		}
		profile.DateOfBirth = &dob
	}

	if err := s.ProfileRepo.Update(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// AcademicInput carries the academic-details form. GPA is a string so an
// empty submission clears the field instead of writing 0.
type AcademicInput struct {
	Major              string `json:"major"`
	AcademicYear       string `json:"academic_year"`
	ExpectedGraduation string `json:"expected_graduation"`
	CurrentGPA         string `json:"current_gpa"`
}

func (s *ProfileService) UpdateAcademic(profile *model.Profile, in AcademicInput) (*model.Profile, error) {
	profile.Major = strings.TrimSpace(in.Major)
	profile.AcademicYear = strings.TrimSpace(in.AcademicYear)

	if in.ExpectedGraduation == "" {
		profile.ExpectedGraduation = nil
	} else {
		grad, err := time.Parse(util.DateFormat, in.ExpectedGraduation)
		if err != nil {
			return nil, util.ErrInvalidDate
		}
		profile.ExpectedGraduation = &grad
	}

	if in.CurrentGPA == "" {
		profile.CurrentGPA = nil
	} else {
		gpa, err := util.ParseGPA(in.CurrentGPA)
		if err != nil {
			return nil, err
		}
		profile.CurrentGPA = &gpa
	}

	if err := s.ProfileRepo.Update(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UploadPicture stores a profile picture and records its URL. Only image
// content types are accepted; the stored name is randomized to avoid
// collisions across users.
func (s *ProfileService) UploadPicture(ctx context.Context, profile *model.Profile, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if !util.IsImage(contentType) {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	// The declared type is client-supplied; the bytes must agree.
	var head bytes.Buffer
	sniffed, err := util.ValidateMimeType(io.TeeReader(reader, &head), []string{"image/"})
	if err != nil {
		return "", err
	}
	reader = io.MultiReader(&head, reader)

	ext := filepath.Ext(filename)
	stored := fmt.Sprintf("profile_pics/%d_%s%s", profile.ID, model.GenerateUUID()[:8], ext)

	url, err := s.Storage.Upload(ctx, stored, reader, size, sniffed)
	if err != nil {
		return "", err
	}

	profile.ProfilePictureURL = url
	if err := s.ProfileRepo.Update(profile); err != nil {
		return "", err
	}
	return url, nil
}
