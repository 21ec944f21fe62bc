package models

import (
	"time"
)

// Goal statuses. Transitions are not enforced: status and progress are
// independently controlled.
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusExpired   = "expired"
)

// Goal is a company KPI. Responsible user and project links are optional
// and survive deletion of their targets (SET NULL), unlike the company
// link which cascades.
type Goal struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	CompanyID     uint       `json:"company_id" gorm:"not null;index"`
	Title         string     `json:"title" gorm:"size:200;not null"`
	Description   string     `json:"description" gorm:"type:text"`
	TargetValue   float64    `json:"target_value" gorm:"type:decimal(14,2);not null"`
	CurrentValue  float64    `json:"current_value" gorm:"type:decimal(14,2);not null"`
	Deadline      *time.Time `json:"deadline"`
	Status        string     `json:"status" gorm:"size:20;not null"`
	ResponsibleID *uint      `json:"responsible_id"`
	ProjectID     *uint      `json:"project_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Company     Company  `json:"-" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	Responsible *User    `json:"-" gorm:"foreignKey:ResponsibleID;constraint:OnDelete:SET NULL"`
	Project     *Project `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:SET NULL"`
}

// ValidGoalStatus reports whether s is one of the closed goal states.
func ValidGoalStatus(s string) bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusExpired:
		return true
	}
	return false
}
