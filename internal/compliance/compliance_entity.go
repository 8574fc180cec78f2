package compliance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserRef is one user as reported by the compliance source.
type UserRef struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total,omitempty"`
}

// Record is the stored non-compliance report of one day.
type Record struct {
	ID                uuid.UUID                      `gorm:"type:uuid;primaryKey"`
	Date              time.Time                      `gorm:"type:date;not null;uniqueIndex:uq_compliance_records_date"`
	TotalUsers        int                            `gorm:"not null;default:0"`
	CompliantUsers    int                            `gorm:"not null;default:0"`
	NonCompliantUsers int                            `gorm:"not null;default:0"`
	Users             datatypes.JSONSlice[UserRef]   `gorm:"type:jsonb;not null"`
	Pagination        datatypes.JSONType[Pagination] `gorm:"type:jsonb;not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Record) TableName() string { return "compliance_records" }

// User accumulates the days a source user appeared in a report.
type User struct {
	ID         uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	ExternalID int64                       `gorm:"not null;uniqueIndex:uq_compliance_users_external"`
	Email      string                      `gorm:"type:varchar(255);not null"`
	Dates      datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (User) TableName() string { return "compliance_users" }
