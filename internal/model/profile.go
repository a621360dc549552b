package model

import (
	"time"
)

// Profile is the application-level user record, one per account. It is
// distinct from the User auth identity and is never hard-deleted in the
// normal flow.
//
// swagger:model Profile
type Profile struct {
	BaseModel
	UserID      uint        `gorm:"uniqueIndex;not null" json:"userId"`
	User        User        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AccountType AccountType `gorm:"size:10;not null" json:"accountType"`
	FirstName   string      `gorm:"size:30" json:"firstName"`
	LastName    string      `gorm:"size:30" json:"lastName"`
	Email       string      `gorm:"size:100" json:"email"`
	StudentID   string      `gorm:"size:20" json:"studentId,omitempty"`
	PhoneNumber string      `gorm:"size:15" json:"phoneNumber,omitempty"`
	Institution string      `gorm:"size:100;index" json:"institution"`
	Department  string      `gorm:"size:100" json:"department"`

	// Personal / academic fields, all optional.
	DateOfBirth        *time.Time `json:"dateOfBirth,omitempty"`
	Major              string     `gorm:"size:100" json:"major,omitempty"`
	AcademicYear       string     `gorm:"size:50" json:"academicYear,omitempty"`
	ExpectedGraduation *time.Time `json:"expectedGraduation,omitempty"`
	CurrentGPA         *float64   `gorm:"type:decimal(3,2)" json:"currentGpa,omitempty"`
	ProfilePictureURL  string     `gorm:"size:500" json:"profilePictureUrl,omitempty"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}
