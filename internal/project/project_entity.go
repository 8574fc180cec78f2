package project

import (
	"time"

	"go-leave/internal/user"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusOnHold    Status = "ON_HOLD"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

type Project struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name        string     `gorm:"type:varchar(200);not null"`
	Description *string    `gorm:"type:text"`
	Status      Status     `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	LeadID      *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Lead    *user.User      `gorm:"foreignKey:LeadID;constraint:OnDelete:SET NULL"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string { return "projects" }

type ProjectMember struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_project_members_project_user,priority:1"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_project_members_project_user,priority:2"`
	RoleInProject *string   `gorm:"type:varchar(100)"`
	JoinedAt      time.Time `gorm:"type:date;not null"`

	Project *Project   `gorm:"constraint:OnDelete:CASCADE"`
	User    *user.User `gorm:"constraint:OnDelete:CASCADE"`
}

func (ProjectMember) TableName() string { return "project_members" }
