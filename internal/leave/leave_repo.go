package leave

import (
	"context"
	"database/sql"
	"time"

	"go-leave/internal/domain"
	"go-leave/internal/scope"
	"go-leave/internal/shared/connection"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]LeaveRequest, error)
	// ListPending returns every pending request when reviewerID is nil,
	// otherwise only those the reviewer may decide on.
	ListPending(ctx context.Context, reviewerID *uuid.UUID) ([]LeaveRequest, error)
	Update(ctx context.Context, l *LeaveRequest) error
	MarkLeadsNotified(ctx context.Context, id uuid.UUID) error
	// History returns the user's other requests, newest first.
	History(ctx context.Context, userID, excludeID uuid.UUID, limit int) ([]LeaveRequest, error)
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

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Omit(clause.Associations).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Preload("User").
		Preload("LeaveType").
		First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.conn(ctx).
		Preload("LeaveType").
		Scopes(scope.OwnedBy(userID)).
		Order("applied_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) ListPending(ctx context.Context, reviewerID *uuid.UUID) ([]LeaveRequest, error) {
	q := r.conn(ctx).
		Preload("User").
		Preload("LeaveType").
		Where("leave_requests.status = ?", domain.LeavePending)
	if reviewerID != nil {
		q = q.Scopes(scope.ReviewableBy(*reviewerID))
	}

	var leaves []LeaveRequest
	err := q.Order("applied_at ASC").Find(&leaves).Error
	return leaves, err
}

func (r *repository) Update(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("id = ?", l.ID).
		Updates(map[string]any{
			"status":        l.Status,
			"reviewer_id":   l.ReviewerID,
			"review_reason": l.ReviewReason,
			"reviewed_at":   l.ReviewedAt,
			"updated_at":    time.Now(),
		}).Error
}

func (r *repository) MarkLeadsNotified(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{"leads_notified": true, "updated_at": time.Now()}).Error
}

func (r *repository) History(ctx context.Context, userID, excludeID uuid.UUID, limit int) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.conn(ctx).
		Preload("LeaveType").
		Where("user_id = ? AND id <> ?", userID, excludeID).
		Order("applied_at DESC").
		Limit(limit).
		Find(&leaves).Error
	return leaves, err
}
