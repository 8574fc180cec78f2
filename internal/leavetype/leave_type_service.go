package leavetype

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go-leave/internal/domain"
	leavetypeerrors "go-leave/internal/leavetype/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	LeaveTypesAllKey = "leave_types:all"
	leaveTypesTTL    = time.Hour
	maxYearlyLimit   = 366
)

//go:generate mockgen -source=leave_type_service.go -destination=mock/leave_type_service_mock.go -package=mock
type Service interface {
	List(ctx context.Context) ([]LeaveTypeResponse, error)
	GetByID(ctx context.Context, id string) (LeaveTypeResponse, error)
	// Define creates the type or, when the name exists, updates its limit.
	Define(ctx context.Context, actor domain.Actor, req DefineLeaveTypeRequest) (DefineResult, error)
	SetLimits(ctx context.Context, actor domain.Actor, req SetLimitsRequest) ([]LeaveTypeResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavetype.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavetype.service")
	}
	return &service{db: db, repo: repo, rdb: rdb, sf: &singleflight.Group{}, logger: l}
}

func (s *service) List(ctx context.Context) ([]LeaveTypeResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, LeaveTypesAllKey).Result(); err == nil {
			var resp []LeaveTypeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("leave type cache read failed", zap.Error(err))
		}
	}

	v, err, _ := s.sf.Do(LeaveTypesAllKey, func() (any, error) {
		types, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}

		resp := make([]LeaveTypeResponse, len(types))
		for i, lt := range types {
			resp[i] = mapToResponse(lt)
		}

		if s.rdb != nil {
			if data, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, LeaveTypesAllKey, data, leaveTypesTTL)
			}
		}
		return resp, nil
	})
	if err != nil {
		s.logger.Error("list leave types failed", zap.Error(err))
		return nil, err
	}
	return v.([]LeaveTypeResponse), nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveTypeResponse, error) {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return LeaveTypeResponse{}, leavetypeerrors.ErrInvalidLeaveTypeID
	}
	lt, err := s.repo.FindByID(ctx, typeID)
	if err != nil {
		return LeaveTypeResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*lt), nil
}

func (s *service) Define(ctx context.Context, actor domain.Actor, req DefineLeaveTypeRequest) (DefineResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return DefineResult{}, leavetypeerrors.ErrLeaveTypeNameRequired
	}
	if req.YearlyLimit == nil || *req.YearlyLimit < 0 || *req.YearlyLimit > maxYearlyLimit {
		return DefineResult{}, leavetypeerrors.ErrInvalidYearlyLimit
	}
	limit := *req.YearlyLimit

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("define leave type begin tx failed", zap.Error(err))
		return DefineResult{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	var (
		lt      *LeaveType
		created bool
	)
	existing, err := qtx.FindByNameForUpdate(ctx, name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		lt = &LeaveType{ID: uuid.New(), Name: name, YearlyLimit: limit}
		if err := qtx.Create(ctx, lt); err != nil {
			return DefineResult{}, mapRepositoryError(err)
		}
		created = true
	case err != nil:
		s.logger.Error("define leave type lookup failed", zap.Error(err))
		return DefineResult{}, err
	default:
		lt = existing
		if err := s.applyLimit(ctx, qtx, lt, limit); err != nil {
			return DefineResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("define leave type commit failed", zap.Error(err))
		return DefineResult{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("define leave type success",
		zap.String("actor_id", actor.UserID.String()),
		zap.String("leave_type_id", lt.ID.String()),
		zap.Int("yearly_limit", limit),
		zap.Bool("created", created),
	)
	return DefineResult{LeaveType: mapToResponse(*lt), Created: created}, nil
}

func (s *service) SetLimits(ctx context.Context, actor domain.Actor, req SetLimitsRequest) ([]LeaveTypeResponse, error) {
	type change struct {
		id    uuid.UUID
		limit int
	}
	changes := make([]change, 0, len(req.Limits))
	for _, item := range req.Limits {
		id, err := uuid.Parse(item.LeaveTypeID)
		if err != nil {
			return nil, leavetypeerrors.ErrInvalidLeaveTypeID
		}
		if item.YearlyLimit == nil || *item.YearlyLimit < 0 || *item.YearlyLimit > maxYearlyLimit {
			return nil, leavetypeerrors.ErrInvalidYearlyLimit
		}
		changes = append(changes, change{id: id, limit: *item.YearlyLimit})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("set limits begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	resp := make([]LeaveTypeResponse, 0, len(changes))
	for _, ch := range changes {
		lt, err := qtx.FindByID(ctx, ch.id)
		if err != nil {
			return nil, mapRepositoryError(err)
		}
		if err := s.applyLimit(ctx, qtx, lt, ch.limit); err != nil {
			return nil, err
		}
		resp = append(resp, mapToResponse(*lt))
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("set limits commit failed", zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("set limits success",
		zap.String("actor_id", actor.UserID.String()),
		zap.Int("count", len(resp)),
	)
	return resp, nil
}

// applyLimit writes the new limit and pushes it into existing balances.
// Lowering below what a user already used leaves remaining at zero.
func (s *service) applyLimit(ctx context.Context, qtx Repository, lt *LeaveType, limit int) error {
	if err := qtx.UpdateLimit(ctx, lt.ID, limit); err != nil {
		return mapRepositoryError(err)
	}
	touched, err := qtx.PropagateLimit(ctx, lt.ID, limit)
	if err != nil {
		s.logger.Error("propagate limit failed", zap.String("leave_type_id", lt.ID.String()), zap.Error(err))
		return err
	}
	if limit < lt.YearlyLimit {
		s.logger.Warn("leave type limit lowered",
			zap.String("leave_type_id", lt.ID.String()),
			zap.Int("from", lt.YearlyLimit),
			zap.Int("to", limit),
			zap.Int64("balances", touched),
		)
	}
	lt.YearlyLimit = limit
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, LeaveTypesAllKey).Err(); err != nil {
		s.logger.Error("failed to invalidate leave type cache",
			zap.String("key", LeaveTypesAllKey),
			zap.Error(err),
		)
	}
}

func mapToResponse(lt LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:          lt.ID.String(),
		Name:        lt.Name,
		YearlyLimit: lt.YearlyLimit,
	}
}
