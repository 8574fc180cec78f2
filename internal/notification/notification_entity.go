package notification

import (
	"time"

	"go-leave/internal/user"

	"github.com/google/uuid"
)

type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_notifications_recipient_leave,priority:1"`
	// LeaveRequestID keys the one-per-(lead, request) rule; null for ad hoc messages.
	LeaveRequestID *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_notifications_recipient_leave,priority:2"`
	Message        string     `gorm:"type:text;not null"`
	IsRead         bool       `gorm:"not null;default:false"`
	CreatedAt      time.Time  `gorm:"index"`

	Recipient *user.User `gorm:"constraint:OnDelete:CASCADE"`
}

func (Notification) TableName() string { return "notifications" }
