package models

import (
	"time"
)

// UserCompany links a user to a company with a company-scoped role.
// The (user_id, company_id) pair is unique: inserting a duplicate is a
// conflict, not a generic store error.
type UserCompany struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_company"`
	CompanyID uint      `json:"company_id" gorm:"not null;uniqueIndex:idx_user_company"`
	Role      string    `json:"role" gorm:"size:50;not null"`
	CreatedAt time.Time `json:"created_at"`

	User    User    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Company Company `json:"-" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

func (UserCompany) TableName() string {
	return "user_companies"
}
