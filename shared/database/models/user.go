package models

import (
	"time"
)

// Global (platform-level) user roles. Distinct from the per-company
// membership role on UserCompany.
const (
	GlobalRoleAdmin       = "admin"
	GlobalRoleContratante = "contratante"
	GlobalRoleVisitante   = "visitante"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	FullName  string    `json:"full_name" gorm:"size:200;not null"`
	Email     string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Role      string    `json:"role" gorm:"size:20;not null"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
