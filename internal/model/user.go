package model

import (
	"time"
)

type AccountType string

const (
	Student AccountType = "student"
	Faculty AccountType = "faculty"
)

// swagger:model User
type User struct {
	BaseModel
	Username  string      `gorm:"size:100;unique;not null" json:"username"`
	Email     string      `gorm:"size:100;unique;not null" json:"email"`
	Password  string      `gorm:"size:100;not null" json:"-"`
	Role      AccountType `gorm:"size:10;default:'student'" json:"role"`
	Disabled  bool        `gorm:"default:false" json:"disabled"`
	LastLogin time.Time   `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
