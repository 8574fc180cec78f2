package compliance

import (
	"context"
	"database/sql"
	"time"

	"go-leave/internal/shared/connection"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindByDate(ctx context.Context, day time.Time) (*Record, error)
	UpsertRecord(ctx context.Context, rec *Record) error
	FindUserForUpdate(ctx context.Context, externalID int64) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	SaveUserDates(ctx context.Context, u *User) error
	ListUsers(ctx context.Context) ([]User, error)
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

func (r *repository) FindByDate(ctx context.Context, day time.Time) (*Record, error) {
	var rec Record
	err := r.conn(ctx).Where("date = ?", day).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) UpsertRecord(ctx context.Context, rec *Record) error {
	return r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_users", "compliant_users", "non_compliant_users",
				"users", "pagination", "updated_at",
			}),
		}).
		Create(rec).Error
}

func (r *repository) FindUserForUpdate(ctx context.Context, externalID int64) (*User, error) {
	var u User
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_id = ?", externalID).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) CreateUser(ctx context.Context, u *User) error {
	return r.conn(ctx).Create(u).Error
}

func (r *repository) SaveUserDates(ctx context.Context, u *User) error {
	return r.conn(ctx).
		Model(&User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"email":      u.Email,
			"dates":      u.Dates,
			"updated_at": time.Now(),
		}).Error
}

func (r *repository) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := r.conn(ctx).Order("email ASC").Find(&users).Error
	return users, err
}
