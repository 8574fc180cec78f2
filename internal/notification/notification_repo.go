package notification

import (
	"context"
	"database/sql"

	"go-leave/internal/shared/connection"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// CreateMany skips rows that would repeat a (recipient, leave request)
	// pair and returns how many were inserted.
	CreateMany(ctx context.Context, items []Notification) (int64, error)
	ListFor(ctx context.Context, recipientID uuid.UUID) ([]Notification, error)
	MarkRead(ctx context.Context, recipientID uuid.UUID, ids []uuid.UUID) error
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return connection.Conn(ctx, r.db, r.tx)
}

func (r *repository) CreateMany(ctx context.Context, items []Notification) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	res := r.conn(ctx).
		Omit("Recipient").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "recipient_id"}, {Name: "leave_request_id"}},
			DoNothing: true,
		}).
		Create(&items)
	return res.RowsAffected, res.Error
}

func (r *repository) ListFor(ctx context.Context, recipientID uuid.UUID) ([]Notification, error) {
	var items []Notification
	err := r.conn(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *repository) MarkRead(ctx context.Context, recipientID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.conn(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND id IN ? AND is_read = ?", recipientID, ids, false).
		Update("is_read", true).Error
}

func (r *repository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var n int64
	err := r.conn(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	return n, err
}
