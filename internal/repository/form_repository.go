package repository

import (
	"evalmate_backend/internal/model"

	"gorm.io/gorm"
)

type FormRepository struct {
	DB *gorm.DB
}

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{DB: db}
}

func (r *FormRepository) Create(form *model.FormTemplate) error {
	return r.DB.Create(form).Error
}

func (r *FormRepository) FindByID(id uint) (*model.FormTemplate, error) {
	var form model.FormTemplate
	err := r.DB.First(&form, id).Error
	return &form, err
}

func (r *FormRepository) Update(form *model.FormTemplate) error {
	return r.DB.Save(form).Error
}

// Delete removes the form together with its responses and answers.
func (r *FormRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var responseIDs []uint
		if err := tx.Model(&model.FormResponse{}).
			Where("form_id = ?", id).
			Pluck("id", &responseIDs).Error; err != nil {
			return err
		}
		if len(responseIDs) > 0 {
			if err := tx.Where("response_id IN ?", responseIDs).
				Delete(&model.ResponseAnswer{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("form_id = ?", id).Delete(&model.FormResponse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", id).Delete(&model.PendingEvaluation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", id).Delete(&model.DraftResponse{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.FormTemplate{}, id).Error
	})
}

func (r *FormRepository) FindByOwner(profileID uint) ([]model.FormTemplate, error) {
	var forms []model.FormTemplate
	err := r.DB.Where("created_by_id = ?", profileID).
		Order("created_at DESC").
		Find(&forms).Error
	return forms, err
}

// Search returns non-private forms at the given institution whose course id
// or title contains the query, case-insensitively. Callers are responsible
// for rejecting empty queries.
func (r *FormRepository) Search(institution, query string) ([]model.FormTemplate, error) {
	var forms []model.FormTemplate
	like := "%" + query + "%"
	err := r.DB.Where("privacy <> ?", model.PrivacyPrivate).
		Where("institution = ?", institution).
		Where("LOWER(course_id) LIKE LOWER(?) OR LOWER(title) LIKE LOWER(?)", like, like).
		Order("created_at DESC").
		Find(&forms).Error
	return forms, err
}
