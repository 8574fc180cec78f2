package leavetype_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-leave/internal/domain"
	"go-leave/internal/leavetype"
	leavetypeerrors "go-leave/internal/leavetype/errors"
	leavetypeMock "go-leave/internal/leavetype/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	redisMock redismock.ClientMock
	repo      *leavetypeMock.MockRepository
	service   leavetype.Service
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdb, redisMock := redismock.NewClientMock()
	repo := leavetypeMock.NewMockRepository(ctrl)

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		redisMock: redisMock,
		repo:      repo,
		service:   leavetype.NewService(db, repo, rdb),
	}
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

func intPtr(v int) *int { return &v }

var hr = domain.Actor{UserID: uuid.New(), Role: domain.RoleHR}

func TestLeaveTypeService_List(t *testing.T) {
	ctx := context.Background()
	sick := leavetype.LeaveType{ID: uuid.New(), Name: "Sick", YearlyLimit: 10}

	t.Run("cache miss loads and stores", func(t *testing.T) {
		deps := setupServiceTest(t)
		want := []leavetype.LeaveTypeResponse{{ID: sick.ID.String(), Name: "Sick", YearlyLimit: 10}}
		data, _ := json.Marshal(want)

		deps.redisMock.ExpectGet(leavetype.LeaveTypesAllKey).RedisNil()
		deps.repo.EXPECT().FindAll(gomock.Any()).Return([]leavetype.LeaveType{sick}, nil)
		deps.redisMock.ExpectSet(leavetype.LeaveTypesAllKey, data, time.Hour).SetVal("OK")

		res, err := deps.service.List(ctx)

		require.NoError(t, err)
		assert.Equal(t, want, res)
		assert.NoError(t, deps.redisMock.ExpectationsWereMet())
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.redisMock.ExpectGet(leavetype.LeaveTypesAllKey).SetVal(`[{"id":"x","name":"Casual","yearly_limit":12}]`)

		res, err := deps.service.List(ctx)

		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "Casual", res[0].Name)
	})

	t.Run("negative repository error", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.redisMock.ExpectGet(leavetype.LeaveTypesAllKey).RedisNil()
		deps.repo.EXPECT().FindAll(gomock.Any()).Return(nil, errors.New("db down"))

		_, err := deps.service.List(ctx)
		assert.Error(t, err)
	})
}

func TestLeaveTypeService_Define(t *testing.T) {
	ctx := context.Background()

	t.Run("creates new type", func(t *testing.T) {
		deps := setupServiceTest(t)
		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByNameForUpdate(gomock.Any(), "Sick").Return(nil, gorm.ErrRecordNotFound)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		deps.redisMock.ExpectDel(leavetype.LeaveTypesAllKey).SetVal(1)

		res, err := deps.service.Define(ctx, hr, leavetype.DefineLeaveTypeRequest{Name: " Sick ", YearlyLimit: intPtr(10)})

		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, 10, res.LeaveType.YearlyLimit)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redisMock.ExpectationsWereMet())
	})

	t.Run("existing name updates limit and balances", func(t *testing.T) {
		deps := setupServiceTest(t)
		existing := &leavetype.LeaveType{ID: uuid.New(), Name: "Sick", YearlyLimit: 10}

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByNameForUpdate(gomock.Any(), "Sick").Return(existing, nil)
		deps.repo.EXPECT().UpdateLimit(gomock.Any(), existing.ID, 5).Return(nil)
		deps.repo.EXPECT().PropagateLimit(gomock.Any(), existing.ID, 5).Return(int64(3), nil)
		deps.redisMock.ExpectDel(leavetype.LeaveTypesAllKey).SetVal(1)

		res, err := deps.service.Define(ctx, hr, leavetype.DefineLeaveTypeRequest{Name: "Sick", YearlyLimit: intPtr(5)})

		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.Equal(t, 5, res.LeaveType.YearlyLimit)
		assert.Equal(t, existing.ID.String(), res.LeaveType.ID)
	})

	t.Run("negative propagate failure rolls back", func(t *testing.T) {
		deps := setupServiceTest(t)
		existing := &leavetype.LeaveType{ID: uuid.New(), Name: "Sick", YearlyLimit: 10}

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByNameForUpdate(gomock.Any(), "Sick").Return(existing, nil)
		deps.repo.EXPECT().UpdateLimit(gomock.Any(), existing.ID, 12).Return(nil)
		deps.repo.EXPECT().PropagateLimit(gomock.Any(), existing.ID, 12).Return(int64(0), errors.New("deadlock"))

		_, err := deps.service.Define(ctx, hr, leavetype.DefineLeaveTypeRequest{Name: "Sick", YearlyLimit: intPtr(12)})

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid limit", func(t *testing.T) {
		deps := setupServiceTest(t)
		_, err := deps.service.Define(ctx, hr, leavetype.DefineLeaveTypeRequest{Name: "Sick", YearlyLimit: intPtr(-1)})
		assert.ErrorIs(t, err, leavetypeerrors.ErrInvalidYearlyLimit)
	})

	t.Run("negative blank name", func(t *testing.T) {
		deps := setupServiceTest(t)
		_, err := deps.service.Define(ctx, hr, leavetype.DefineLeaveTypeRequest{Name: "  ", YearlyLimit: intPtr(1)})
		assert.ErrorIs(t, err, leavetypeerrors.ErrLeaveTypeNameRequired)
	})
}

func TestLeaveTypeService_SetLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("negative unknown type rolls back whole batch", func(t *testing.T) {
		deps := setupServiceTest(t)
		known := &leavetype.LeaveType{ID: uuid.New(), Name: "Sick", YearlyLimit: 10}
		unknown := uuid.New()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), known.ID).Return(known, nil)
		deps.repo.EXPECT().UpdateLimit(gomock.Any(), known.ID, 8).Return(nil)
		deps.repo.EXPECT().PropagateLimit(gomock.Any(), known.ID, 8).Return(int64(1), nil)
		deps.repo.EXPECT().FindByID(gomock.Any(), unknown).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.SetLimits(ctx, hr, leavetype.SetLimitsRequest{Limits: []leavetype.LimitItem{
			{LeaveTypeID: known.ID.String(), YearlyLimit: intPtr(8)},
			{LeaveTypeID: unknown.String(), YearlyLimit: intPtr(3)},
		}})

		assert.ErrorIs(t, err, leavetypeerrors.ErrLeaveTypeNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		lt := &leavetype.LeaveType{ID: uuid.New(), Name: "Casual", YearlyLimit: 12}

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), lt.ID).Return(lt, nil)
		deps.repo.EXPECT().UpdateLimit(gomock.Any(), lt.ID, 15).Return(nil)
		deps.repo.EXPECT().PropagateLimit(gomock.Any(), lt.ID, 15).Return(int64(4), nil)
		deps.redisMock.ExpectDel(leavetype.LeaveTypesAllKey).SetVal(1)

		res, err := deps.service.SetLimits(ctx, hr, leavetype.SetLimitsRequest{Limits: []leavetype.LimitItem{
			{LeaveTypeID: lt.ID.String(), YearlyLimit: intPtr(15)},
		}})

		require.NoError(t, err)
		assert.Equal(t, 15, res[0].YearlyLimit)
	})
}
