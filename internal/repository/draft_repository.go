package repository

import (
	"encoding/json"
	"evalmate_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type DraftRepository struct {
	DB *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{DB: db}
}

// Replace deletes any prior draft rows for (student, form) and writes one
// fresh row holding the whole wizard payload. Last write wins; the only
// writer is the student's own session. Deletes are Unscoped: a soft-deleted
// row would still occupy the unique index and block the re-create.
func (r *DraftRepository) Replace(studentID, formID uint, teamName string, data json.RawMessage) (*model.DraftResponse, error) {
	draft := model.DraftResponse{
		StudentID: studentID,
		FormID:    formID,
		TeamName:  teamName,
		DraftData: data,
		LastSaved: time.Now(),
	}
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("student_id = ? AND form_id = ?", studentID, formID).
			Delete(&model.DraftResponse{}).Error; err != nil {
			return err
		}
		return tx.Create(&draft).Error
	})
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *DraftRepository) FindByStudentForm(studentID, formID uint) (*model.DraftResponse, error) {
	var draft model.DraftResponse
	err := r.DB.Where("student_id = ? AND form_id = ?", studentID, formID).
		Order("last_saved DESC").
		First(&draft).Error
	return &draft, err
}

func (r *DraftRepository) ExistsFor(studentID, formID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.DraftResponse{}).
		Where("student_id = ? AND form_id = ?", studentID, formID).
		Count(&count).Error
	return count > 0, err
}

func (r *DraftRepository) DeleteByStudentForm(studentID, formID uint) error {
	return r.DB.Unscoped().Where("student_id = ? AND form_id = ?", studentID, formID).
		Delete(&model.DraftResponse{}).Error
}
