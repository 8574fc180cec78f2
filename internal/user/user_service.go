package user

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"go-leave/internal/domain"
	usererrors "go-leave/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	GetAll(ctx context.Context) ([]UserResponse, error)
	GetByID(ctx context.Context, id string) (UserResponse, error)
	Me(ctx context.Context, actor domain.Actor) (UserResponse, error)
	Create(ctx context.Context, actor domain.Actor, req CreateUserRequest) (UserResponse, error)
	AssignManager(ctx context.Context, actor domain.Actor, id string, managerID *string) (UserResponse, error)
	ChangeRole(ctx context.Context, actor domain.Actor, id string, role string) (UserResponse, error)
	ToggleStatus(ctx context.Context, actor domain.Actor, id string, isActive bool) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) GetAll(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = mapToResponse(u)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*u), nil
}

func (s *service) Me(ctx context.Context, actor domain.Actor) (UserResponse, error) {
	u, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*u), nil
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req CreateUserRequest) (UserResponse, error) {
	s.logger.Debug("create user requested",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("email", req.Email),
		zap.String("role", req.Role),
	)

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return UserResponse{}, usererrors.ErrInvalidRole
	}

	var managerID *uuid.UUID
	if req.ManagerID != nil && *req.ManagerID != "" {
		id, err := uuid.Parse(*req.ManagerID)
		if err != nil {
			return UserResponse{}, usererrors.ErrInvalidUserID
		}
		managerID = &id
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("create user hash password failed", zap.Error(err))
		return UserResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create user begin tx failed", zap.Error(err))
		return UserResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if managerID != nil {
		if _, err := qtx.FindByID(ctx, *managerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return UserResponse{}, usererrors.ErrManagerNotFound
			}
			return UserResponse{}, err
		}
	}

	u := &User{
		ID:          uuid.New(),
		Name:        req.Name,
		Email:       req.Email,
		Password:    string(hashedPassword),
		Role:        role,
		ManagerID:   managerID,
		Designation: req.Designation,
		IsActive:    true,
	}

	if err := qtx.Create(ctx, u); err != nil {
		s.logger.Warn("create user persist failed", zap.String("email", req.Email), zap.Error(err))
		return UserResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create user commit failed", zap.Error(err))
		return UserResponse{}, err
	}

	s.logger.Info("create user success",
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(role)),
	)
	return mapToResponse(*u), nil
}

// AssignManager sets or clears the direct manager. The reporting graph stays
// acyclic: the new manager's own chain must not contain the user.
func (s *service) AssignManager(ctx context.Context, actor domain.Actor, id string, managerID *string) (UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	var newManager *uuid.UUID
	if managerID != nil && *managerID != "" {
		mid, err := uuid.Parse(*managerID)
		if err != nil {
			return UserResponse{}, usererrors.ErrInvalidUserID
		}
		if mid == userID {
			return UserResponse{}, usererrors.ErrManagerCycle
		}
		newManager = &mid
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("assign manager begin tx failed", zap.Error(err))
		return UserResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	u, err := qtx.FindByIDForUpdate(ctx, userID)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}

	if newManager != nil {
		chain, err := qtx.ManagementChain(ctx, *newManager)
		if err != nil {
			s.logger.Error("assign manager chain lookup failed", zap.Error(err))
			return UserResponse{}, err
		}
		if len(chain) == 0 {
			return UserResponse{}, usererrors.ErrManagerNotFound
		}
		if slices.Contains(chain, userID) {
			s.logger.Warn("assign manager cycle rejected",
				zap.String("user_id", userID.String()),
				zap.String("manager_id", newManager.String()),
			)
			return UserResponse{}, usererrors.ErrManagerCycle
		}
	}

	u.ManagerID = newManager
	if err := qtx.Update(ctx, u); err != nil {
		s.logger.Error("assign manager persist failed", zap.Error(err))
		return UserResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("assign manager commit failed", zap.Error(err))
		return UserResponse{}, err
	}

	s.logger.Info("assign manager success",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("user_id", userID.String()),
	)
	return mapToResponse(*u), nil
}

func (s *service) ChangeRole(ctx context.Context, actor domain.Actor, id string, role string) (UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}
	newRole, err := domain.ParseRole(role)
	if err != nil {
		return UserResponse{}, usererrors.ErrInvalidRole
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}

	u.Role = newRole
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("change role persist failed", zap.Error(err))
		return UserResponse{}, err
	}

	s.logger.Info("change role success",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", string(newRole)),
	)
	return mapToResponse(*u), nil
}

func (s *service) ToggleStatus(ctx context.Context, actor domain.Actor, id string, isActive bool) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return usererrors.ErrInvalidUserID
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return mapRepositoryError(err)
	}

	u.IsActive = isActive
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("toggle user status failed", zap.Error(err))
		return err
	}
	return nil
}

func mapToResponse(u User) UserResponse {
	resp := UserResponse{
		ID:          u.ID.String(),
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		Designation: u.Designation,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if u.ManagerID != nil {
		v := u.ManagerID.String()
		resp.ManagerID = &v
	}
	if u.Manager != nil {
		resp.ManagerName = u.Manager.Name
	}
	return resp
}
