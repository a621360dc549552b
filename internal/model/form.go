package model

import (
	"encoding/json"
	"time"
)

type Privacy string

const (
	// PrivacyPrivate marks a draft: invisible to students regardless of
	// institution match.
	PrivacyPrivate Privacy = "private"
	// PrivacyInstitution is visible to every student at the owning
	// faculty's institution.
	PrivacyInstitution Privacy = "institution"
	// PrivacyInstitutionCourse is scoped to institution plus course.
	PrivacyInstitutionCourse Privacy = "institution_course"
)

// FormTemplate is a faculty-authored evaluation form definition. The
// question set lives in Structure as a JSON document; parse it with
// ParseFormStructure before interpreting it.
//
// swagger:model FormTemplate
type FormTemplate struct {
	BaseModel
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	CourseID    string          `gorm:"size:50;index" json:"courseId"`
	Institution string          `gorm:"size:100;index" json:"institution"`
	CreatedByID uint            `gorm:"index;not null" json:"createdById"`
	CreatedBy   Profile         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Structure   json.RawMessage `gorm:"type:json" json:"structure"`
	Privacy     Privacy         `gorm:"size:20;default:'private';index" json:"privacy"`
	Passcode    string          `gorm:"size:20" json:"-"`
}

func (FormTemplate) TableName() string {
	return "form_templates"
}

func (f *FormTemplate) RequiresPasscode() bool {
	return f.Passcode != ""
}

// DueDate extracts the due date from the stored structure. The second
// return value is false when no due date is configured or the structure
// does not parse.
func (f *FormTemplate) DueDate() (time.Time, bool) {
	fs, err := ParseFormStructure(f.Structure)
	if err != nil || fs.Settings.DueDate == "" {
		return time.Time{}, false
	}
	due, err := time.Parse("2006-01-02", fs.Settings.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return due, true
}

// IsExpired reports whether the form's due date, if any, has passed.
func (f *FormTemplate) IsExpired(now time.Time) bool {
	due, ok := f.DueDate()
	if !ok {
		return false
	}
	return now.After(due.AddDate(0, 0, 1).Add(-time.Nanosecond))
}
