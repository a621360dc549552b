package repository

import (
	"errors"
	"evalmate_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type PendingRepository struct {
	DB *gorm.DB
}

func NewPendingRepository(db *gorm.DB) *PendingRepository {
	return &PendingRepository{DB: db}
}

// GetOrCreate adds the (student, form) marker, absorbing the race where two
// requests insert it concurrently: the unique index makes the second insert
// fail, after which the existing row is read back. Returns true when a new
// row was created.
func (r *PendingRepository) GetOrCreate(studentID, formID uint) (*model.PendingEvaluation, bool, error) {
	var existing model.PendingEvaluation
	err := r.DB.Where("student_id = ? AND form_id = ?", studentID, formID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	pending := model.PendingEvaluation{
		StudentID: studentID,
		FormID:    formID,
		AddedAt:   time.Now(),
	}
	if err := r.DB.Create(&pending).Error; err != nil {
		// Lost the race: the unique constraint fired, read the winner.
		if readErr := r.DB.Where("student_id = ? AND form_id = ?", studentID, formID).
			First(&existing).Error; readErr == nil {
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &pending, true, nil
}

func (r *PendingRepository) FindByID(id uint) (*model.PendingEvaluation, error) {
	var pending model.PendingEvaluation
	err := r.DB.First(&pending, id).Error
	return &pending, err
}

func (r *PendingRepository) ListByStudent(studentID uint) ([]model.PendingEvaluation, error) {
	var pendings []model.PendingEvaluation
	err := r.DB.Preload("Form").
		Where("student_id = ?", studentID).
		Order("added_at DESC").
		Find(&pendings).Error
	return pendings, err
}

func (r *PendingRepository) ExistsFor(studentID, formID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.PendingEvaluation{}).
		Where("student_id = ? AND form_id = ?", studentID, formID).
		Count(&count).Error
	return count > 0, err
}

// Deletes are Unscoped: the (student, form) unique index must free the slot
// so the same form can be re-accepted later.
func (r *PendingRepository) Delete(id uint) error {
	return r.DB.Unscoped().Delete(&model.PendingEvaluation{}, id).Error
}

func (r *PendingRepository) DeleteByStudentForm(studentID, formID uint) error {
	return r.DB.Unscoped().Where("student_id = ? AND form_id = ?", studentID, formID).
		Delete(&model.PendingEvaluation{}).Error
}
