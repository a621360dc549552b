package repository

import (
	"evalmate_backend/internal/model"
	"sort"
	"time"

	"gorm.io/gorm"
)

type ResponseRepository struct {
	DB *gorm.DB
}

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{DB: db}
}

func (r *ResponseRepository) FindByID(id uint) (*model.FormResponse, error) {
	var resp model.FormResponse
	err := r.DB.Preload("Answers").First(&resp, id).Error
	return &resp, err
}

// MarkRead flips is_read once; re-fetching a read response is a no-op.
func (r *ResponseRepository) MarkRead(id uint) error {
	return r.DB.Model(&model.FormResponse{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true).
		Error
}

func (r *ResponseRepository) ListByForm(formID uint) ([]model.FormResponse, error) {
	var responses []model.FormResponse
	err := r.DB.Preload("Answers").
		Where("form_id = ? AND is_draft = ?", formID, false).
		Order("submitted_at DESC").
		Find(&responses).Error
	return responses, err
}

func (r *ResponseRepository) ListByStudent(profileID uint) ([]model.FormResponse, error) {
	var responses []model.FormResponse
	err := r.DB.Where("submitted_by_id = ? AND is_draft = ?", profileID, false).
		Order("submitted_at DESC").
		Find(&responses).Error
	return responses, err
}

func (r *ResponseRepository) ExistsForStudentForm(profileID, formID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.FormResponse{}).
		Where("submitted_by_id = ? AND form_id = ? AND is_draft = ?", profileID, formID, false).
		Count(&count).Error
	return count > 0, err
}

// SubmissionGroup is one logical submission: all rows sharing
// (submitted_by_id, team_name) for a form. Row counts are per teammate, so
// reporting must never count raw rows.
type SubmissionGroup struct {
	SubmittedByID uint      `json:"submittedById"`
	TeamName      string    `json:"teamName"`
	TeammateCount int       `json:"teammateCount"`
	SubmittedAt   time.Time `json:"submittedAt"`
	UnreadCount   int       `json:"unreadCount"`
}

// GroupBySubmitter aggregates a form's committed responses into one group
// per (student, team), newest first. Aggregation happens in Go: MAX over a
// datetime column comes back untyped from the database and cannot scan into
// time.Time on every driver.
func (r *ResponseRepository) GroupBySubmitter(formID uint) ([]SubmissionGroup, error) {
	var rows []model.FormResponse
	err := r.DB.Select("submitted_by_id", "team_name", "is_read", "submitted_at").
		Where("form_id = ? AND is_draft = ?", formID, false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	type key struct {
		submitter uint
		team      string
	}
	index := make(map[key]int, len(rows))
	groups := make([]SubmissionGroup, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		k := key{row.SubmittedByID, row.TeamName}
		at, ok := index[k]
		if !ok {
			at = len(groups)
			index[k] = at
			groups = append(groups, SubmissionGroup{
				SubmittedByID: row.SubmittedByID,
				TeamName:      row.TeamName,
			})
		}
		g := &groups[at]
		g.TeammateCount++
		if row.SubmittedAt.After(g.SubmittedAt) {
			g.SubmittedAt = row.SubmittedAt
		}
		if !row.IsRead {
			g.UnreadCount++
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].SubmittedAt.After(groups[j].SubmittedAt)
	})
	return groups, nil
}
