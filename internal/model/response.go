package model

import (
	"time"
)

// FormResponse stores one row per (student, teammate) pairing. A committed
// team submission therefore produces one row per teammate collected during
// the wizard, all sharing the same TeamName.
//
// swagger:model FormResponse
type FormResponse struct {
	BaseModel
	FormID        uint         `gorm:"index;not null" json:"formId"`
	Form          FormTemplate `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SubmittedByID uint         `gorm:"index;not null" json:"submittedById"`
	SubmittedBy   Profile      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TeamName      string       `gorm:"size:100;index" json:"teamName"`
	TeammateName  string       `gorm:"size:100" json:"teammateName"`
	IsRead        bool         `gorm:"default:false;index" json:"isRead"`
	IsDraft       bool         `gorm:"default:false" json:"isDraft"`
	SubmittedAt   time.Time    `gorm:"index" json:"submittedAt"`

	Answers []ResponseAnswer `gorm:"foreignKey:ResponseID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

func (FormResponse) TableName() string {
	return "form_responses"
}

// ResponseAnswer is a (question key, answer text) pair belonging to one
// teammate response.
type ResponseAnswer struct {
	BaseModel
	ResponseID uint   `gorm:"index;not null" json:"responseId"`
	Question   string `gorm:"size:100;not null" json:"question"`
	Answer     string `gorm:"type:text" json:"answer"`
}

func (ResponseAnswer) TableName() string {
	return "response_answers"
}
