package leavetype

import (
	"context"
	"database/sql"

	"go-leave/internal/shared/connection"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=leave_type_repo.go -destination=mock/leave_type_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindAll(ctx context.Context) ([]LeaveType, error)
	FindByID(ctx context.Context, id uuid.UUID) (*LeaveType, error)
	FindByNameForUpdate(ctx context.Context, name string) (*LeaveType, error)
	Create(ctx context.Context, lt *LeaveType) error
	UpdateLimit(ctx context.Context, id uuid.UUID, limit int) error
	// PropagateLimit rewrites total on every balance of the type and floors
	// remaining at zero. Returns the number of balance rows touched.
	PropagateLimit(ctx context.Context, id uuid.UUID, limit int) (int64, error)
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

func (r *repository) FindAll(ctx context.Context) ([]LeaveType, error) {
	var types []LeaveType
	err := r.conn(ctx).Order("name ASC").Find(&types).Error
	return types, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*LeaveType, error) {
	var lt LeaveType
	if err := r.conn(ctx).First(&lt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lt, nil
}

func (r *repository) FindByNameForUpdate(ctx context.Context, name string) (*LeaveType, error) {
	var lt LeaveType
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		First(&lt).Error
	if err != nil {
		return nil, err
	}
	return &lt, nil
}

func (r *repository) Create(ctx context.Context, lt *LeaveType) error {
	return r.conn(ctx).Create(lt).Error
}

func (r *repository) UpdateLimit(ctx context.Context, id uuid.UUID, limit int) error {
	res := r.conn(ctx).
		Model(&LeaveType{}).
		Where("id = ?", id).
		Update("yearly_limit", limit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) PropagateLimit(ctx context.Context, id uuid.UUID, limit int) (int64, error) {
	res := r.conn(ctx).Exec(
		`UPDATE leave_balances
		    SET total = ?, remaining = GREATEST(? - used, 0), updated_at = NOW()
		  WHERE leave_type_id = ?`,
		limit, limit, id,
	)
	return res.RowsAffected, res.Error
}
