package model

import (
	"time"
)

// Derived pending-evaluation statuses. Never stored.
const (
	PendingStatusUrgent     = "urgent"
	PendingStatusInProgress = "in_progress"
	PendingStatusNotStarted = "not_started"
)

// PendingEvaluation marks that a student has opened/accepted a form. The
// composite unique index absorbs concurrent duplicate adds.
type PendingEvaluation struct {
	BaseModel
	StudentID uint         `gorm:"uniqueIndex:idx_pending_student_form;not null" json:"studentId"`
	Student   Profile      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FormID    uint         `gorm:"uniqueIndex:idx_pending_student_form;not null" json:"formId"`
	Form      FormTemplate `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AddedAt   time.Time    `json:"addedAt"`
}

func (PendingEvaluation) TableName() string {
	return "pending_evaluations"
}

// DaysLeft computes whole days until the form's due date, nil when the form
// has none. Zero means due today; negative means overdue.
func DaysLeft(form *FormTemplate, now time.Time) *int {
	due, ok := form.DueDate()
	if !ok {
		return nil
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	d := int(due.Sub(today).Hours() / 24)
	return &d
}

// PendingStatus derives the dashboard status: urgent when due within 3 days,
// in_progress when a draft exists, not_started otherwise.
func PendingStatus(daysLeft *int, hasDraft bool) string {
	if daysLeft != nil && *daysLeft <= 3 {
		return PendingStatusUrgent
	}
	if hasDraft {
		return PendingStatusInProgress
	}
	return PendingStatusNotStarted
}
