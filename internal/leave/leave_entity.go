package leave

import (
	"time"

	"go-leave/internal/domain"
	"go-leave/internal/leavetype"
	"go-leave/internal/user"

	"github.com/google/uuid"
)

type LeaveRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_user_dates"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartDate time.Time `gorm:"type:date;not null;index:idx_leave_requests_user_dates"`
	EndDate   time.Time `gorm:"type:date;not null;index:idx_leave_requests_user_dates"`
	Reason    string    `gorm:"type:text;not null"`

	Status       domain.LeaveStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	AppliedAt    time.Time          `gorm:"not null"`
	ReviewerID   *uuid.UUID         `gorm:"type:uuid"`
	ReviewReason *string            `gorm:"type:text"`
	ReviewedAt   *time.Time

	LeadsNotified bool `gorm:"not null;default:false"`
	UpdatedAt     time.Time

	User      *user.User           `gorm:"constraint:OnDelete:CASCADE"`
	LeaveType *leavetype.LeaveType `gorm:"constraint:OnDelete:RESTRICT"`
	Reviewer  *user.User           `gorm:"foreignKey:ReviewerID;constraint:OnDelete:SET NULL"`
}

func (LeaveRequest) TableName() string { return "leave_requests" }

func (l LeaveRequest) Span() domain.Span {
	return domain.Span{Start: l.StartDate, End: l.EndDate}
}
