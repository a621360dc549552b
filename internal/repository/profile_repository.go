package repository

import (
	"evalmate_backend/internal/model"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) Create(profile *model.Profile) error {
	return r.DB.Create(profile).Error
}

func (r *ProfileRepository) FindByID(id uint) (*model.Profile, error) {
	var profile model.Profile
	err := r.DB.First(&profile, id).Error
	return &profile, err
}

func (r *ProfileRepository) FindByUserID(userID uint) (*model.Profile, error) {
	var profile model.Profile
	err := r.DB.Where("user_id = ?", userID).First(&profile).Error
	return &profile, err
}

func (r *ProfileRepository) Update(profile *model.Profile) error {
	return r.DB.Save(profile).Error
}

// FindManyByID loads a set of profiles keyed by id, for batch display of
// submitter names in reports.
func (r *ProfileRepository) FindManyByID(ids []uint) (map[uint]model.Profile, error) {
	var profiles []model.Profile
	if len(ids) == 0 {
		return map[uint]model.Profile{}, nil
	}
	if err := r.DB.Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return byID, nil
}
