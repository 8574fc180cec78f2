package leavetype

import (
	"time"

	"github.com/google/uuid"
)

type LeaveType struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_leave_types_name"`
	YearlyLimit int       `gorm:"not null;check:chk_leave_types_yearly_limit,yearly_limit >= 0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (LeaveType) TableName() string { return "leave_types" }
