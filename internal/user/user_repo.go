package user

import (
	"context"
	"database/sql"

	"go-leave/internal/shared/connection"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) error
	ManagementChain(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
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

func (r *repository) Create(ctx context.Context, u *User) error {
	return r.conn(ctx).Create(u).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.conn(ctx).
		Preload("Manager").
		First(&u, "id = ?", id).Error
	return &u, err
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&u, "id = ?", id).Error
	return &u, err
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.conn(ctx).First(&u, "email = ?", email).Error
	return &u, err
}

func (r *repository) FindAll(ctx context.Context) ([]User, error) {
	var users []User
	err := r.conn(ctx).
		Preload("Manager").
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (r *repository) Update(ctx context.Context, u *User) error {
	return r.conn(ctx).
		Model(&User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"name":        u.Name,
			"role":        u.Role,
			"manager_id":  u.ManagerID,
			"designation": u.Designation,
			"is_active":   u.IsActive,
			"password":    u.Password,
		}).Error
}

// ManagementChain returns id followed by its manager, the manager's manager
// and so on. The depth cap keeps the walk finite on corrupted data.
func (r *repository) ManagementChain(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.conn(ctx).Raw(`
		WITH RECURSIVE chain AS (
			SELECT id, manager_id, 1 AS depth FROM users WHERE id = ?
			UNION ALL
			SELECT u.id, u.manager_id, c.depth + 1
			FROM users u
			JOIN chain c ON u.id = c.manager_id
			WHERE c.depth < 256
		)
		SELECT id FROM chain ORDER BY depth
	`, id).Scan(&ids).Error
	return ids, err
}
