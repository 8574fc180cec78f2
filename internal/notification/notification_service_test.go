package notification_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"go-leave/internal/domain"
	"go-leave/internal/notification"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	items   []notification.Notification
	marked  []uuid.UUID
	markErr error
	txBound bool
}

func (f *fakeRepo) WithTx(tx *sql.Tx) notification.Repository {
	f.txBound = true
	return f
}

func (f *fakeRepo) CreateMany(ctx context.Context, items []notification.Notification) (int64, error) {
	f.items = append(f.items, items...)
	return int64(len(items)), nil
}

func (f *fakeRepo) ListFor(ctx context.Context, recipientID uuid.UUID) ([]notification.Notification, error) {
	var out []notification.Notification
	for _, n := range f.items {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, recipientID uuid.UUID, ids []uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, ids...)
	for i := range f.items {
		for _, id := range ids {
			if f.items[i].ID == id {
				f.items[i].IsRead = true
			}
		}
	}
	return nil
}

func (f *fakeRepo) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var n int64
	for _, it := range f.items {
		if it.RecipientID == recipientID && !it.IsRead {
			n++
		}
	}
	return n, nil
}

func TestNotificationService_Dashboard(t *testing.T) {
	ctx := context.Background()
	me := domain.Actor{UserID: uuid.New(), Role: domain.RoleManager}
	other := uuid.New()

	seed := func() *fakeRepo {
		return &fakeRepo{items: []notification.Notification{
			{ID: uuid.New(), RecipientID: me.UserID, Message: "new", CreatedAt: time.Now()},
			{ID: uuid.New(), RecipientID: me.UserID, Message: "old", IsRead: true, CreatedAt: time.Now().Add(-time.Hour)},
			{ID: uuid.New(), RecipientID: other, Message: "not mine"},
		}}
	}

	t.Run("shows prior state then marks read", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := seed()
		svc := notification.NewService(db, repo)

		mock.ExpectBegin()
		mock.ExpectCommit()

		res, err := svc.Dashboard(ctx, me)

		require.NoError(t, err)
		require.Len(t, res.Notifications, 2)
		assert.False(t, res.Notifications[0].IsRead)
		assert.Equal(t, 1, res.Unread)
		assert.Len(t, repo.marked, 1)
		assert.True(t, repo.txBound)

		n, err := svc.UnreadCount(ctx, me)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative mark read failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := seed()
		repo.markErr = errors.New("lock timeout")
		svc := notification.NewService(db, repo)

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err = svc.Dashboard(ctx, me)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
