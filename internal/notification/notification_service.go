package notification

import (
	"context"
	"database/sql"

	"go-leave/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	// Dashboard returns the inbox as it was before the call, then marks
	// every listed item read.
	Dashboard(ctx context.Context, actor domain.Actor) (DashboardResponse, error)
	UnreadCount(ctx context.Context, actor domain.Actor) (int64, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) Dashboard(ctx context.Context, actor domain.Actor) (DashboardResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("dashboard begin tx failed", zap.Error(err))
		return DashboardResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	items, err := qtx.ListFor(ctx, actor.UserID)
	if err != nil {
		return DashboardResponse{}, err
	}

	resp := DashboardResponse{Notifications: make([]NotificationResponse, len(items))}
	unreadIDs := make([]uuid.UUID, 0, len(items))
	for i, n := range items {
		resp.Notifications[i] = NotificationResponse{
			ID:        n.ID.String(),
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
		if !n.IsRead {
			unreadIDs = append(unreadIDs, n.ID)
		}
	}
	resp.Unread = len(unreadIDs)

	if err := qtx.MarkRead(ctx, actor.UserID, unreadIDs); err != nil {
		s.logger.Error("dashboard mark read failed", zap.Error(err))
		return DashboardResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("dashboard commit failed", zap.Error(err))
		return DashboardResponse{}, err
	}
	return resp, nil
}

func (s *service) UnreadCount(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.repo.CountUnread(ctx, actor.UserID)
}
