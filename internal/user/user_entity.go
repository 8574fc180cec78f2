package user

import (
	"time"

	"go-leave/internal/domain"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID   `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string      `gorm:"column:name;type:varchar(255);not null"`
	Email       string      `gorm:"column:email;type:varchar(255);not null;uniqueIndex:uq_users_email"`
	Password    string      `gorm:"column:password;type:text;not null"`
	Role        domain.Role `gorm:"column:role;type:varchar(20);not null;default:'EMPLOYEE'"`
	ManagerID   *uuid.UUID  `gorm:"column:manager_id;type:uuid;index"`
	Designation *string     `gorm:"column:designation;type:varchar(100)"`
	IsActive    bool        `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time   `gorm:"column:updated_at;autoUpdateTime"`

	Manager *User `gorm:"foreignKey:ManagerID;references:ID;constraint:OnDelete:SET NULL"`
}

func (User) TableName() string {
	return "users"
}
