package service

import (
	"context"
	"errors"
	"evalmate_backend/internal/model"
	"evalmate_backend/internal/repository"
	"evalmate_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type FormService struct {
	FormRepo    *repository.FormRepository
	PendingRepo *repository.PendingRepository
	Sessions    SessionStore
}

func NewFormService(formRepo *repository.FormRepository, pendingRepo *repository.PendingRepository, sessions SessionStore) *FormService {
	return &FormService{
		FormRepo:    formRepo,
		PendingRepo: pendingRepo,
		Sessions:    sessions,
	}
}

// IsVisibleTo is the form visibility policy. Private forms are drafts and
// never visible; everything else requires an institution match. The
// institution_course level does not additionally restrict by course here,
// matching the shipped behavior.
// TODO: restrict institution_course forms to students enrolled in the
// form's course once enrollment data exists.
func (s *FormService) IsVisibleTo(student *model.Profile, form *model.FormTemplate) bool {
	if form.Privacy == model.PrivacyPrivate {
		return false
	}
	if form.Institution != student.Institution {
		return false
	}
	switch form.Privacy {
	case model.PrivacyInstitution, model.PrivacyInstitutionCourse:
		return true
	default:
		return false
	}
}

// SearchResult is one row of the student search dropdown.
type SearchResult struct {
	ID               uint   `json:"id"`
	Title            string `json:"title"`
	CourseID         string `json:"course_id"`
	CreatedAt        string `json:"created_at"`
	RequiresPasscode bool   `json:"requires_passcode"`
	IsPending        bool   `json:"is_pending"`
	IsExpired        bool   `json:"is_expired"`
	DueDateStr       string `json:"due_date_str,omitempty"`
}

// Search matches the query against course id and title, case-insensitively.
// An empty query returns no results: browsing without a query is disabled.
func (s *FormService) Search(student *model.Profile, query string) ([]SearchResult, error) {
	if query == "" {
		return []SearchResult{}, nil
	}

	forms, err := s.FormRepo.Search(student.Institution, query)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]SearchResult, 0, len(forms))
	for i := range forms {
		form := &forms[i]
		if !s.IsVisibleTo(student, form) {
			continue
		}
		pending, err := s.PendingRepo.ExistsFor(student.ID, form.ID)
		if err != nil {
			return nil, err
		}
		res := SearchResult{
			ID:               form.ID,
			Title:            form.Title,
			CourseID:         form.CourseID,
			CreatedAt:        form.CreatedAt.Format(util.DateFormat),
			RequiresPasscode: form.RequiresPasscode(),
			IsPending:        pending,
			IsExpired:        form.IsExpired(now),
		}
		if due, ok := form.DueDate(); ok {
			res.DueDateStr = due.Format(util.DateFormat)
		}
		results = append(results, res)
	}
	return results, nil
}

// GetVisibleForm loads a form and applies the visibility policy for the
// student, mapping a hidden form to not-found so ids cannot be probed.
func (s *FormService) GetVisibleForm(student *model.Profile, formID uint) (*model.FormTemplate, error) {
	form, err := s.FormRepo.FindByID(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrFormNotFound
		}
		return nil, err
	}
	if !s.IsVisibleTo(student, form) {
		return nil, util.ErrFormNotFound
	}
	return form, nil
}

// Access performs the passcode gate and adds the form to the student's
// pending list. A verified passcode is memoized in the session so it is
// never re-asked.
func (s *FormService) Access(ctx context.Context, student *model.Profile, formID uint, passcode string) (*model.PendingEvaluation, bool, error) {
	form, err := s.GetVisibleForm(student, formID)
	if err != nil {
		return nil, false, err
	}
	if form.IsExpired(time.Now()) {
		return nil, false, util.ErrFormExpired
	}

	if form.RequiresPasscode() {
		verified, err := s.Sessions.PasscodeVerified(ctx, student.ID, form.ID)
		if err != nil {
			return nil, false, err
		}
		if !verified {
			if passcode == "" {
				return nil, false, util.ErrPasscodeRequired
			}
			if passcode != form.Passcode {
				return nil, false, util.ErrPasscodeIncorrect
			}
			if err := s.Sessions.MarkPasscodeVerified(ctx, student.ID, form.ID); err != nil {
				return nil, false, err
			}
		}
	}

	return s.PendingRepo.GetOrCreate(student.ID, form.ID)
}

// CheckAccess verifies that the student may open a previously accepted
// form, honoring the memoized passcode state.
func (s *FormService) CheckAccess(ctx context.Context, student *model.Profile, formID uint) (*model.FormTemplate, error) {
	form, err := s.GetVisibleForm(student, formID)
	if err != nil {
		return nil, err
	}
	if form.RequiresPasscode() {
		verified, err := s.Sessions.PasscodeVerified(ctx, student.ID, form.ID)
		if err != nil {
			return nil, err
		}
		if !verified {
			return nil, util.ErrPasscodeRequired
		}
	}
	return form, nil
}

// PublishFormInput mirrors the form-builder payload.
type PublishFormInput struct {
	ID          uint                `json:"id,omitempty"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Sections    []model.FormSection `json:"sections"`
	Settings    model.FormSettings  `json:"settings"`
}

// PublishForm creates or updates a FormTemplate from the builder payload.
// The owner's institution is stamped onto the form; privacy comes from the
// accessibility setting, except that publish=false always forces private.
func (s *FormService) PublishForm(owner *model.Profile, in PublishFormInput) (*model.FormTemplate, error) {
	structure := model.FormStructure{
		Title:       in.Title,
		Description: in.Description,
		Sections:    in.Sections,
		Settings:    in.Settings,
	}
	if err := structure.Validate(); err != nil {
		return nil, err
	}

	passcode := ""
	if in.Settings.RequirePasscode {
		passcode = in.Settings.Passcode
	}
	structure.Settings.Passcode = "" // never stored inside the document

	raw, err := structure.Marshal()
	if err != nil {
		return nil, err
	}

	privacy := privacyFromAccessibility(in.Settings.Accessibility)
	if !in.Settings.Publish {
		privacy = model.PrivacyPrivate
	}

	if in.ID != 0 {
		form, err := s.FormRepo.FindByID(in.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrFormNotFound
			}
			return nil, err
		}
		if form.CreatedByID != owner.ID {
			return nil, util.ErrPermissionDenied
		}
		form.Title = in.Title
		form.Description = in.Description
		form.CourseID = in.Settings.CourseID
		form.Structure = raw
		form.Privacy = privacy
		form.Passcode = passcode
		if err := s.FormRepo.Update(form); err != nil {
			return nil, err
		}
		return form, nil
	}

	form := &model.FormTemplate{
		Title:       in.Title,
		Description: in.Description,
		CourseID:    in.Settings.CourseID,
		Institution: owner.Institution,
		CreatedByID: owner.ID,
		Structure:   raw,
		Privacy:     privacy,
		Passcode:    passcode,
	}
	if err := s.FormRepo.Create(form); err != nil {
		return nil, err
	}
	return form, nil
}

func privacyFromAccessibility(accessibility string) model.Privacy {
	switch accessibility {
	case string(model.PrivacyInstitutionCourse):
		return model.PrivacyInstitutionCourse
	case string(model.PrivacyInstitution):
		return model.PrivacyInstitution
	default:
		return model.PrivacyInstitution
	}
}

// findOwned loads a form and rejects non-owners before any mutation.
func (s *FormService) findOwned(owner *model.Profile, formID uint) (*model.FormTemplate, error) {
	form, err := s.FormRepo.FindByID(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrFormNotFound
		}
		return nil, err
	}
	if form.CreatedByID != owner.ID {
		return nil, util.ErrPermissionDenied
	}
	return form, nil
}

// Duplicate copies a form as a private draft titled "<title> (Copy)".
func (s *FormService) Duplicate(owner *model.Profile, formID uint) (*model.FormTemplate, error) {
	src, err := s.findOwned(owner, formID)
	if err != nil {
		return nil, err
	}
	copy := &model.FormTemplate{
		Title:       src.Title + " (Copy)",
		Description: src.Description,
		CourseID:    src.CourseID,
		Institution: src.Institution,
		CreatedByID: owner.ID,
		Structure:   src.Structure,
		Privacy:     model.PrivacyPrivate,
		Passcode:    src.Passcode,
	}
	if err := s.FormRepo.Create(copy); err != nil {
		return nil, err
	}
	return copy, nil
}

func (s *FormService) Delete(owner *model.Profile, formID uint) error {
	form, err := s.findOwned(owner, formID)
	if err != nil {
		return err
	}
	return s.FormRepo.Delete(form.ID)
}

// Publish takes the form out of the private draft state; the target privacy
// comes from the stored structure's accessibility setting.
func (s *FormService) Publish(owner *model.Profile, formID uint) (*model.FormTemplate, error) {
	form, err := s.findOwned(owner, formID)
	if err != nil {
		return nil, err
	}
	privacy := model.PrivacyInstitution
	if fs, err := model.ParseFormStructure(form.Structure); err == nil {
		privacy = privacyFromAccessibility(fs.Settings.Accessibility)
	}
	form.Privacy = privacy
	if err := s.FormRepo.Update(form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *FormService) Unpublish(owner *model.Profile, formID uint) (*model.FormTemplate, error) {
	form, err := s.findOwned(owner, formID)
	if err != nil {
		return nil, err
	}
	form.Privacy = model.PrivacyPrivate
	if err := s.FormRepo.Update(form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *FormService) Details(owner *model.Profile, formID uint) (*model.FormTemplate, error) {
	return s.findOwned(owner, formID)
}

func (s *FormService) ListOwned(owner *model.Profile) ([]model.FormTemplate, error) {
	return s.FormRepo.FindByOwner(owner.ID)
}
