package balance_test

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"go-leave/internal/balance"
	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/domain"
	"go-leave/internal/leavetype"
	leavetypeMock "go-leave/internal/leavetype/mock"
	"go-leave/internal/user"
	userMock "go-leave/internal/user/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

// fakeRepo keeps one balance row per pair in memory.
type fakeRepo struct {
	rows   map[[2]uuid.UUID]*balance.LeaveBalance
	spans  map[[2]uuid.UUID][]domain.Span
	saved  []balance.LeaveBalance
	withTx int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rows:  map[[2]uuid.UUID]*balance.LeaveBalance{},
		spans: map[[2]uuid.UUID][]domain.Span{},
	}
}

func (f *fakeRepo) WithTx(tx *sql.Tx) balance.Repository {
	f.withTx++
	return f
}

func (f *fakeRepo) Ensure(ctx context.Context, userID, leaveTypeID uuid.UUID, initialTotal int) error {
	key := [2]uuid.UUID{userID, leaveTypeID}
	if _, ok := f.rows[key]; !ok {
		f.rows[key] = &balance.LeaveBalance{
			ID: uuid.New(), UserID: userID, LeaveTypeID: leaveTypeID,
			Total: initialTotal, Remaining: initialTotal,
		}
	}
	return nil
}

func (f *fakeRepo) LockForUpdate(ctx context.Context, userID, leaveTypeID uuid.UUID) (*balance.LeaveBalance, error) {
	b, ok := f.rows[[2]uuid.UUID{userID, leaveTypeID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeRepo) ApprovedSpans(ctx context.Context, userID, leaveTypeID uuid.UUID) ([]domain.Span, error) {
	return f.spans[[2]uuid.UUID{userID, leaveTypeID}], nil
}

func (f *fakeRepo) Save(ctx context.Context, b *balance.LeaveBalance) error {
	f.rows[[2]uuid.UUID{b.UserID, b.LeaveTypeID}] = b
	f.saved = append(f.saved, *b)
	return nil
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func mustDate(t *testing.T, v string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(v)
	require.NoError(t, err)
	return d
}

type deps struct {
	sqlMock sqlmock.Sqlmock
	repo    *fakeRepo
	types   *leavetypeMock.MockRepository
	users   *userMock.MockRepository
	svc     balance.Service
}

func setup(t *testing.T) *deps {
	ctrl := gomock.NewController(t)
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := newFakeRepo()
	types := leavetypeMock.NewMockRepository(ctrl)
	users := userMock.NewMockRepository(ctrl)
	types.EXPECT().WithTx(gomock.Any()).Return(types).AnyTimes()

	return &deps{
		sqlMock: sqlMock,
		repo:    repo,
		types:   types,
		users:   users,
		svc:     balance.NewService(db, repo, types, users),
	}
}

func TestBalanceService_Compute(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sick := &leavetype.LeaveType{ID: uuid.New(), Name: "Sick", YearlyLimit: 10}

	t.Run("lazily creates and recomputes", func(t *testing.T) {
		d := setup(t)
		d.repo.spans[[2]uuid.UUID{userID, sick.ID}] = []domain.Span{
			{Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-03")},
		}

		expectTx(t, d.sqlMock, true)
		d.types.EXPECT().FindByID(gomock.Any(), sick.ID).Return(sick, nil)

		sum, err := d.svc.Compute(ctx, userID, sick.ID)

		require.NoError(t, err)
		assert.Equal(t, balance.Summary{Total: 10, Used: 3, Remaining: 7}, sum)
		require.Len(t, d.repo.saved, 1)
		assert.Equal(t, 7, d.repo.saved[0].Remaining)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("uses stored total not current limit", func(t *testing.T) {
		d := setup(t)
		d.repo.rows[[2]uuid.UUID{userID, sick.ID}] = &balance.LeaveBalance{
			ID: uuid.New(), UserID: userID, LeaveTypeID: sick.ID, Total: 4,
		}
		d.repo.spans[[2]uuid.UUID{userID, sick.ID}] = []domain.Span{
			{Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-05")},
		}

		expectTx(t, d.sqlMock, true)
		d.types.EXPECT().FindByID(gomock.Any(), sick.ID).Return(sick, nil)

		sum, err := d.svc.Compute(ctx, userID, sick.ID)

		require.NoError(t, err)
		assert.Equal(t, balance.Summary{Total: 4, Used: 5, Remaining: 0}, sum)
	})

	t.Run("always writes even when unchanged", func(t *testing.T) {
		d := setup(t)
		expectTx(t, d.sqlMock, true)
		expectTx(t, d.sqlMock, true)
		d.types.EXPECT().FindByID(gomock.Any(), sick.ID).Return(sick, nil).Times(2)

		_, err := d.svc.Compute(ctx, userID, sick.ID)
		require.NoError(t, err)
		_, err = d.svc.Compute(ctx, userID, sick.ID)
		require.NoError(t, err)

		assert.Len(t, d.repo.saved, 2)
	})

	t.Run("negative unknown leave type", func(t *testing.T) {
		d := setup(t)
		expectTx(t, d.sqlMock, false)
		d.types.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, gorm.ErrRecordNotFound)

		_, err := d.svc.Compute(ctx, userID, uuid.New())

		assert.ErrorIs(t, err, balanceerrors.ErrLeaveTypeNotFound)
		assert.Empty(t, d.repo.saved)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})
}

func TestBalanceService_WithTx(t *testing.T) {
	d := setup(t)
	sick := &leavetype.LeaveType{ID: uuid.New(), Name: "Sick", YearlyLimit: 10}
	d.types.EXPECT().FindByID(gomock.Any(), sick.ID).Return(sick, nil)

	// no Begin/Commit expected: the caller owns the transaction
	sum, err := d.svc.WithTx(nil).Compute(context.Background(), uuid.New(), sick.ID)

	require.NoError(t, err)
	assert.Equal(t, 10, sum.Remaining)
	assert.Equal(t, 1, d.repo.withTx)
	assert.NoError(t, d.sqlMock.ExpectationsWereMet())
}

func TestBalanceService_ListForUser(t *testing.T) {
	d := setup(t)
	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleEmployee}
	sick := leavetype.LeaveType{ID: uuid.New(), Name: "Sick", YearlyLimit: 10}
	casual := leavetype.LeaveType{ID: uuid.New(), Name: "Casual", YearlyLimit: 12}

	d.types.EXPECT().FindAll(gomock.Any()).Return([]leavetype.LeaveType{casual, sick}, nil)
	d.types.EXPECT().FindByID(gomock.Any(), casual.ID).Return(&casual, nil)
	d.types.EXPECT().FindByID(gomock.Any(), sick.ID).Return(&sick, nil)
	expectTx(t, d.sqlMock, true)

	res, err := d.svc.ListForUser(context.Background(), actor)

	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Casual", res[0].LeaveTypeName)
	assert.Equal(t, 12, res[0].Remaining)
	assert.Equal(t, 10, res[1].Total)
}

func TestBalanceService_ExportReport(t *testing.T) {
	d := setup(t)
	u := user.User{ID: uuid.New(), Name: "Eve", Email: "eve@mail.com"}
	sick := leavetype.LeaveType{ID: uuid.New(), Name: "Sick", YearlyLimit: 10}
	d.repo.spans[[2]uuid.UUID{u.ID, sick.ID}] = []domain.Span{
		{Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-02")},
	}

	d.users.EXPECT().FindAll(gomock.Any()).Return([]user.User{u}, nil)
	d.types.EXPECT().FindAll(gomock.Any()).Return([]leavetype.LeaveType{sick}, nil)
	d.types.EXPECT().FindByID(gomock.Any(), sick.ID).Return(&sick, nil)
	expectTx(t, d.sqlMock, true)

	var buf bytes.Buffer
	require.NoError(t, d.svc.ExportReport(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Balances")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Employee", "Email", "Leave Type", "Total", "Used", "Remaining"}, rows[0])
	assert.Equal(t, []string{"Eve", "eve@mail.com", "Sick", "10", "2", "8"}, rows[1])
}
