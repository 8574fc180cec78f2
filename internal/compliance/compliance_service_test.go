package compliance_test

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go-leave/internal/compliance"
	complianceerrors "go-leave/internal/compliance/errors"
	"go-leave/internal/domain"
	"go-leave/internal/shared/metrics"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRepo struct {
	records map[string]*compliance.Record
	users   map[int64]*compliance.User
	saves   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]*compliance.Record{}, users: map[int64]*compliance.User{}}
}

func (r *fakeRepo) WithTx(tx *sql.Tx) compliance.Repository { return r }

func (r *fakeRepo) FindByDate(ctx context.Context, day time.Time) (*compliance.Record, error) {
	rec, ok := r.records[day.Format(domain.DateLayout)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rec, nil
}

func (r *fakeRepo) UpsertRecord(ctx context.Context, rec *compliance.Record) error {
	r.records[rec.Date.Format(domain.DateLayout)] = rec
	return nil
}

func (r *fakeRepo) FindUserForUpdate(ctx context.Context, externalID int64) (*compliance.User, error) {
	u, ok := r.users[externalID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) CreateUser(ctx context.Context, u *compliance.User) error {
	r.users[u.ExternalID] = u
	return nil
}

func (r *fakeRepo) SaveUserDates(ctx context.Context, u *compliance.User) error {
	r.saves++
	r.users[u.ExternalID] = u
	return nil
}

func (r *fakeRepo) ListUsers(ctx context.Context) ([]compliance.User, error) {
	out := make([]compliance.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

type fakeSource struct {
	mu      sync.Mutex
	reports map[string]compliance.DayReport
	calls   []string
}

func (s *fakeSource) FetchDay(ctx context.Context, day time.Time) (compliance.DayReport, error) {
	date := day.Format(domain.DateLayout)
	s.mu.Lock()
	s.calls = append(s.calls, date)
	s.mu.Unlock()
	r, ok := s.reports[date]
	if !ok {
		return compliance.DayReport{}, errors.New("upstream timeout")
	}
	return r, nil
}

type serviceFixture struct {
	sqlMock sqlmock.Sqlmock
	repo    *fakeRepo
	source  *fakeSource
	metrics *metrics.Metrics
	svc     compliance.Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &serviceFixture{
		sqlMock: mock,
		repo:    newFakeRepo(),
		source:  &fakeSource{reports: map[string]compliance.DayReport{}},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	today := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	f.svc = compliance.NewService(db, f.repo, f.source, f.metrics, nil,
		compliance.WithClock(func() time.Time { return today }))
	return f
}

func (f *serviceFixture) expectStore(n int) {
	for i := 0; i < n; i++ {
		f.sqlMock.ExpectBegin()
		f.sqlMock.ExpectCommit()
	}
}

func report(users ...compliance.UserRef) compliance.DayReport {
	return compliance.DayReport{
		TotalUsers:        10,
		CompliantUsers:    10 - len(users),
		NonCompliantUsers: len(users),
		Users:             users,
		Pagination:        compliance.Pagination{Page: 1, PageSize: 20, TotalPages: 1},
	}
}

var (
	ana = compliance.UserRef{ID: 1, Email: "ana@x.io"}
	bob = compliance.UserRef{ID: 2, Email: "bob@x.io"}
)

func TestService_GetByDate_FetchesOnDemandThenServesLocal(t *testing.T) {
	f := newServiceFixture(t)
	f.source.reports["2024-05-01"] = report(bob, ana, ana)
	f.expectStore(1)

	res, err := f.svc.GetByDate(context.Background(), "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", res.Date)
	require.Len(t, res.Users, 2)
	assert.Equal(t, int64(1), res.Users[0].ID)
	assert.Equal(t, 1, res.Pagination.TotalPages)

	again, err := f.svc.GetByDate(context.Background(), "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, res.NonCompliantUsers, again.NonCompliantUsers)
	assert.Len(t, f.source.calls, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ComplianceRun.WithLabelValues("stored")))
	require.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestService_GetByDate_Validation(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.GetByDate(context.Background(), "05/01/2024")
	assert.ErrorIs(t, err, complianceerrors.ErrInvalidDate)

	_, err = f.svc.GetByDate(context.Background(), "2024-05-11")
	assert.ErrorIs(t, err, complianceerrors.ErrFutureDate)

	_, err = f.svc.GetByDate(context.Background(), "2024-05-02")
	assert.ErrorIs(t, err, complianceerrors.ErrSourceUnavailable)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ComplianceRun.WithLabelValues("fetch_failed")))
}

func TestService_SyncRange_SkipsFailedDays(t *testing.T) {
	f := newServiceFixture(t)
	f.source.reports["2024-05-01"] = report(ana)
	f.source.reports["2024-05-03"] = report(ana, bob)
	f.expectStore(2)

	res, err := f.svc.SyncRange(context.Background(), "2024-05-01", "2024-05-03")
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-05-01", "2024-05-03"}, res.Stored)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "2024-05-02", res.Failed[0].Date)

	require.Contains(t, f.repo.users, int64(1))
	assert.Equal(t, []string{"2024-05-01", "2024-05-03"}, []string(f.repo.users[1].Dates))
	assert.Equal(t, []string{"2024-05-03"}, []string(f.repo.users[2].Dates))
	require.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestService_SyncRange_ResyncDoesNotDuplicateDates(t *testing.T) {
	f := newServiceFixture(t)
	f.source.reports["2024-05-01"] = report(ana)
	f.expectStore(2)

	_, err := f.svc.SyncRange(context.Background(), "2024-05-01", "2024-05-01")
	require.NoError(t, err)
	_, err = f.svc.SyncRange(context.Background(), "2024-05-01", "2024-05-01")
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-05-01"}, []string(f.repo.users[1].Dates))
	assert.Equal(t, 0, f.repo.saves)
}

func TestService_SyncRange_ClampsAndValidates(t *testing.T) {
	f := newServiceFixture(t)
	f.source.reports["2024-05-10"] = report()
	f.expectStore(1)

	res, err := f.svc.SyncRange(context.Background(), "2024-05-10", "2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", res.To)
	assert.Equal(t, []string{"2024-05-10"}, res.Stored)

	_, err = f.svc.SyncRange(context.Background(), "2024-05-05", "2024-05-01")
	assert.ErrorIs(t, err, complianceerrors.ErrInvalidRange)

	_, err = f.svc.SyncRange(context.Background(), "2023-01-01", "2024-05-01")
	assert.ErrorIs(t, err, complianceerrors.ErrInvalidRange)

	_, err = f.svc.SyncRange(context.Background(), "2024-05-01", "nope")
	assert.ErrorIs(t, err, complianceerrors.ErrInvalidDate)
}

func TestService_NoSource(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := compliance.NewService(db, newFakeRepo(), nil, nil, nil)

	_, err = svc.SyncRange(context.Background(), "2024-05-01", "2024-05-01")
	assert.ErrorIs(t, err, complianceerrors.ErrSourceNotConfigured)
}

func TestService_ListUsers(t *testing.T) {
	f := newServiceFixture(t)
	f.source.reports["2024-05-01"] = report(bob, ana)
	f.source.reports["2024-05-02"] = report(ana)
	f.expectStore(2)

	_, err := f.svc.SyncRange(context.Background(), "2024-05-01", "2024-05-02")
	require.NoError(t, err)

	users, err := f.svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ana@x.io", users[0].Email)
	assert.Equal(t, 2, users[0].Days)
	assert.Equal(t, 1, users[1].Days)
}
