package project

import (
	"context"
	"database/sql"

	"go-leave/internal/shared/connection"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=project_repo.go -destination=mock/project_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, p *Project) error
	FindAll(ctx context.Context) ([]Project, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	AddMember(ctx context.Context, m *ProjectMember) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	// ProjectsOf returns every project the user is a member of, lead preloaded.
	ProjectsOf(ctx context.Context, userID uuid.UUID) ([]Project, error)
	// IsLeadOf reports whether lead leads any project member belongs to.
	IsLeadOf(ctx context.Context, leadID, memberID uuid.UUID) (bool, error)
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

func (r *repository) Create(ctx context.Context, p *Project) error {
	return r.conn(ctx).Omit("Lead", "Members").Create(p).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Project, error) {
	var projects []Project
	err := r.conn(ctx).
		Preload("Lead").
		Preload("Members.User").
		Order("name ASC").
		Find(&projects).Error
	return projects, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	var p Project
	err := r.conn(ctx).
		Preload("Lead").
		Preload("Members.User").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	res := r.conn(ctx).Model(&Project{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) AddMember(ctx context.Context, m *ProjectMember) error {
	return r.conn(ctx).Omit("Project", "User").Create(m).Error
}

func (r *repository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	res := r.conn(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&ProjectMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ProjectsOf(ctx context.Context, userID uuid.UUID) ([]Project, error) {
	var projects []Project
	err := r.conn(ctx).
		Preload("Lead").
		Joins("JOIN project_members pm ON pm.project_id = projects.id").
		Where("pm.user_id = ?", userID).
		Order("projects.name ASC").
		Find(&projects).Error
	return projects, err
}

func (r *repository) IsLeadOf(ctx context.Context, leadID, memberID uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Table("projects p").
		Joins("JOIN project_members pm ON pm.project_id = p.id").
		Where("p.lead_id = ? AND pm.user_id = ? AND pm.user_id <> p.lead_id", leadID, memberID).
		Count(&count).Error
	return count > 0, err
}
