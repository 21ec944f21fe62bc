package models

import (
	"time"
)

// Message is one directed message in a company-scoped 1:1 thread. The
// thread itself is identified by the unordered {sender, receiver} pair
// plus the company.
type Message struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SenderID   uint      `json:"sender_id" gorm:"not null;index"`
	ReceiverID uint      `json:"receiver_id" gorm:"not null;index"`
	CompanyID  uint      `json:"company_id" gorm:"not null;index"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	IsRead     bool      `json:"is_read" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`

	Sender   User    `json:"-" gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	Receiver User    `json:"-" gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
	Company  Company `json:"-" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}
