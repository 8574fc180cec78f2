package balance

import (
	"context"
	"database/sql"
	"time"

	"go-leave/internal/domain"
	"go-leave/internal/shared/connection"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// Ensure inserts the row with total = initialTotal unless it exists.
	Ensure(ctx context.Context, userID, leaveTypeID uuid.UUID, initialTotal int) error
	LockForUpdate(ctx context.Context, userID, leaveTypeID uuid.UUID) (*LeaveBalance, error)
	ApprovedSpans(ctx context.Context, userID, leaveTypeID uuid.UUID) ([]domain.Span, error)
	Save(ctx context.Context, b *LeaveBalance) error
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

func (r *repository) Ensure(ctx context.Context, userID, leaveTypeID uuid.UUID, initialTotal int) error {
	row := LeaveBalance{
		ID:          uuid.New(),
		UserID:      userID,
		LeaveTypeID: leaveTypeID,
		Total:       initialTotal,
		Remaining:   initialTotal,
	}
	return r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "leave_type_id"}},
			DoNothing: true,
		}).
		Create(&row).Error
}

func (r *repository) LockForUpdate(ctx context.Context, userID, leaveTypeID uuid.UUID) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND leave_type_id = ?", userID, leaveTypeID).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ApprovedSpans(ctx context.Context, userID, leaveTypeID uuid.UUID) ([]domain.Span, error) {
	var rows []struct {
		StartDate time.Time
		EndDate   time.Time
	}
	err := r.conn(ctx).
		Table("leave_requests").
		Select("start_date, end_date").
		Where("user_id = ? AND leave_type_id = ? AND status = ?", userID, leaveTypeID, domain.LeaveApproved).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	spans := make([]domain.Span, len(rows))
	for i, row := range rows {
		spans[i] = domain.Span{Start: row.StartDate, End: row.EndDate}
	}
	return spans, nil
}

func (r *repository) Save(ctx context.Context, b *LeaveBalance) error {
	return r.conn(ctx).
		Model(&LeaveBalance{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"total":      b.Total,
			"used":       b.Used,
			"remaining":  b.Remaining,
			"updated_at": time.Now(),
		}).Error
}
