package database

import (
	"fmt"

	"go-leave/internal/balance"
	"go-leave/internal/compliance"
	"go-leave/internal/leave"
	"go-leave/internal/leavetype"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/notification"
	"go-leave/internal/project"
	"go-leave/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order.
func Models() []any {
	return []any{
		&user.User{},
		&leavetype.LeaveType{},
		&project.Project{},
		&project.ProjectMember{},
		&balance.LeaveBalance{},
		&leave.LeaveRequest{},
		&notification.Notification{},
		&kafka.OutboxEvent{},
		&compliance.Record{},
		&compliance.User{},
	}
}

// Migrate creates or updates the schema from the gorm models.
func Migrate(db *gorm.DB) error {
	log := zap.L().Named("database.migrate")

	// users.id defaults to gen_random_uuid()
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		log.Warn("create pgcrypto extension failed", zap.Error(err))
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	log.Info("schema migrated", zap.Int("models", len(Models())))
	return nil
}
