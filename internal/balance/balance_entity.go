package balance

import (
	"time"

	"go-leave/internal/leavetype"
	"go-leave/internal/user"

	"github.com/google/uuid"
)

type LeaveBalance struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balances_user_type,priority:1"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balances_user_type,priority:2"`
	Total       int       `gorm:"not null;default:0"`
	Used        int       `gorm:"not null;default:0"`
	Remaining   int       `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User      *user.User           `gorm:"constraint:OnDelete:CASCADE"`
	LeaveType *leavetype.LeaveType `gorm:"constraint:OnDelete:CASCADE"`
}

func (LeaveBalance) TableName() string { return "leave_balances" }
