package project

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go-leave/internal/domain"
	projecterrors "go-leave/internal/project/errors"
	"go-leave/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreateProjectRequest) (ProjectResponse, error)
	List(ctx context.Context) ([]ProjectResponse, error)
	Mine(ctx context.Context, actor domain.Actor) ([]ProjectResponse, error)
	GetByID(ctx context.Context, id string) (ProjectResponse, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id string, status string) error
	AddMember(ctx context.Context, actor domain.Actor, projectID string, req AddMemberRequest) (ProjectResponse, error)
	RemoveMember(ctx context.Context, actor domain.Actor, projectID, userID string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	users  user.Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, users user.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("project.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("project.service")
	}
	return &service{db: db, repo: repo, users: users, logger: l}
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req CreateProjectRequest) (ProjectResponse, error) {
	status := StatusActive
	if req.Status != "" {
		status = Status(strings.ToUpper(req.Status))
		if !status.Valid() {
			return ProjectResponse{}, projecterrors.ErrInvalidStatus
		}
	}

	var leadID *uuid.UUID
	if req.LeadID != nil && *req.LeadID != "" {
		id, err := uuid.Parse(*req.LeadID)
		if err != nil {
			return ProjectResponse{}, projecterrors.ErrInvalidUserID
		}
		leadID = &id
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create project begin tx failed", zap.Error(err))
		return ProjectResponse{}, err
	}
	defer tx.Rollback()

	var lead *user.User
	if leadID != nil {
		lead, err = s.users.WithTx(tx).FindByID(ctx, *leadID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ProjectResponse{}, projecterrors.ErrLeadNotFound
			}
			return ProjectResponse{}, err
		}
		if !lead.Role.CanLead() {
			s.logger.Warn("create project lead not eligible",
				zap.String("lead_id", lead.ID.String()),
				zap.String("role", lead.Role.String()),
			)
			return ProjectResponse{}, projecterrors.ErrLeadNotEligible
		}
	}

	p := &Project{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      status,
		LeadID:      leadID,
	}
	if err := s.repo.WithTx(tx).Create(ctx, p); err != nil {
		return ProjectResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create project commit failed", zap.Error(err))
		return ProjectResponse{}, err
	}

	p.Lead = lead
	s.logger.Info("create project success",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("project_id", p.ID.String()),
	)
	return mapToResponse(*p), nil
}

func (s *service) List(ctx context.Context) ([]ProjectResponse, error) {
	projects, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("list projects failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(projects), nil
}

func (s *service) Mine(ctx context.Context, actor domain.Actor) ([]ProjectResponse, error) {
	projects, err := s.repo.ProjectsOf(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(projects), nil
}

func (s *service) GetByID(ctx context.Context, id string) (ProjectResponse, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return ProjectResponse{}, projecterrors.ErrInvalidProjectID
	}
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return ProjectResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*p), nil
}

func (s *service) UpdateStatus(ctx context.Context, actor domain.Actor, id string, status string) error {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return projecterrors.ErrInvalidProjectID
	}
	st := Status(strings.ToUpper(strings.TrimSpace(status)))
	if !st.Valid() {
		return projecterrors.ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, projectID, st); err != nil {
		return mapRepositoryError(err)
	}

	s.logger.Info("update project status success",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("status", string(st)),
	)
	return nil
}

func (s *service) AddMember(ctx context.Context, actor domain.Actor, projectID string, req AddMemberRequest) (ProjectResponse, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return ProjectResponse{}, projecterrors.ErrInvalidProjectID
	}
	uid, err := uuid.Parse(req.UserID)
	if err != nil {
		return ProjectResponse{}, projecterrors.ErrInvalidUserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("add member begin tx failed", zap.Error(err))
		return ProjectResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if _, err := qtx.FindByID(ctx, pid); err != nil {
		return ProjectResponse{}, mapRepositoryError(err)
	}
	if _, err := s.users.WithTx(tx).FindByID(ctx, uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProjectResponse{}, projecterrors.ErrUserNotFound
		}
		return ProjectResponse{}, err
	}

	m := &ProjectMember{
		ID:            uuid.New(),
		ProjectID:     pid,
		UserID:        uid,
		RoleInProject: req.RoleInProject,
		JoinedAt:      domain.Date(time.Now()),
	}
	if err := qtx.AddMember(ctx, m); err != nil {
		return ProjectResponse{}, mapRepositoryError(err)
	}

	p, err := qtx.FindByID(ctx, pid)
	if err != nil {
		return ProjectResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("add member commit failed", zap.Error(err))
		return ProjectResponse{}, err
	}

	s.logger.Info("add member success",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("project_id", pid.String()),
		zap.String("user_id", uid.String()),
	)
	return mapToResponse(*p), nil
}

func (s *service) RemoveMember(ctx context.Context, actor domain.Actor, projectID, userID string) error {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return projecterrors.ErrInvalidProjectID
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return projecterrors.ErrInvalidUserID
	}

	if err := s.repo.RemoveMember(ctx, pid, uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return projecterrors.ErrMemberNotFound
		}
		return err
	}

	s.logger.Info("remove member success",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("project_id", pid.String()),
		zap.String("user_id", uid.String()),
	)
	return nil
}

func mapToResponse(p Project) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		Members:     make([]MemberResponse, 0, len(p.Members)),
	}
	if p.LeadID != nil {
		id := p.LeadID.String()
		resp.LeadID = &id
	}
	if p.Lead != nil {
		resp.LeadName = p.Lead.Name
	}
	for _, m := range p.Members {
		mr := MemberResponse{
			UserID:        m.UserID.String(),
			RoleInProject: m.RoleInProject,
			JoinedAt:      m.JoinedAt.Format(domain.DateLayout),
		}
		if m.User != nil {
			mr.Name = m.User.Name
		}
		resp.Members = append(resp.Members, mr)
	}
	return resp
}

func mapToListResponse(projects []Project) []ProjectResponse {
	resp := make([]ProjectResponse, len(projects))
	for i, p := range projects {
		resp[i] = mapToResponse(p)
	}
	return resp
}
