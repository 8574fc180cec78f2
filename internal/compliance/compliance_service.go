package compliance

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	complianceerrors "go-leave/internal/compliance/errors"
	"go-leave/internal/domain"
	"go-leave/internal/shared/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxSyncDays     = 366
	syncConcurrency = 4
)

type Service interface {
	GetByDate(ctx context.Context, date string) (RecordResponse, error)
	SyncDay(ctx context.Context, day time.Time) (RecordResponse, error)
	SyncRange(ctx context.Context, from, to string) (SyncResult, error)
	ListUsers(ctx context.Context) ([]UserResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	source  Source
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *zap.Logger
}

type Option func(*service)

// WithClock overrides the notion of today.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService accepts a nil source; fetches then fail with ErrSourceNotConfigured.
func NewService(db *sql.DB, repo Repository, source Source, m *metrics.Metrics, logger *zap.Logger, opts ...Option) Service {
	if logger == nil {
		logger = zap.L()
	}
	if m == nil {
		m = metrics.Nop()
	}
	s := &service{
		db:      db,
		repo:    repo,
		source:  source,
		metrics: m,
		now:     time.Now,
		logger:  logger.Named("compliance.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) today() time.Time {
	return domain.Date(s.now())
}

func (s *service) GetByDate(ctx context.Context, date string) (RecordResponse, error) {
	day, err := domain.ParseDate(date)
	if err != nil {
		return RecordResponse{}, complianceerrors.ErrInvalidDate
	}
	if day.After(s.today()) {
		return RecordResponse{}, complianceerrors.ErrFutureDate
	}

	rec, err := s.repo.FindByDate(ctx, day)
	if err == nil {
		return mapRecord(rec), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("find compliance record failed", zap.String("date", date), zap.Error(err))
		return RecordResponse{}, err
	}

	s.logger.Debug("compliance record missing, fetching", zap.String("date", date))
	return s.SyncDay(ctx, day)
}

func (s *service) fetch(ctx context.Context, day time.Time) (DayReport, error) {
	if s.source == nil {
		return DayReport{}, complianceerrors.ErrSourceNotConfigured
	}
	report, err := s.source.FetchDay(ctx, day)
	if err != nil {
		s.metrics.ComplianceRun.WithLabelValues("fetch_failed").Inc()
		s.logger.Warn("compliance fetch failed", zap.String("date", day.Format(domain.DateLayout)), zap.Error(err))
		return DayReport{}, complianceerrors.ErrSourceUnavailable
	}
	return report, nil
}

func (s *service) SyncDay(ctx context.Context, day time.Time) (RecordResponse, error) {
	report, err := s.fetch(ctx, day)
	if err != nil {
		return RecordResponse{}, err
	}
	return s.store(ctx, day, report)
}

// store upserts the day's record and folds the day into every reported user.
// Users are locked in external id order.
func (s *service) store(ctx context.Context, day time.Time, report DayReport) (RecordResponse, error) {
	date := day.Format(domain.DateLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("store compliance begin tx failed", zap.Error(err))
		return RecordResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	rec := &Record{
		ID:                uuid.New(),
		Date:              day,
		TotalUsers:        report.TotalUsers,
		CompliantUsers:    report.CompliantUsers,
		NonCompliantUsers: report.NonCompliantUsers,
		Users:             datatypes.JSONSlice[UserRef](dedupeUsers(report.Users)),
		Pagination:        datatypes.NewJSONType(report.Pagination),
		UpdatedAt:         s.now(),
	}
	if err := qtx.UpsertRecord(ctx, rec); err != nil {
		s.logger.Error("upsert compliance record failed", zap.String("date", date), zap.Error(err))
		return RecordResponse{}, err
	}

	for _, ref := range rec.Users {
		if err := s.touchUser(ctx, qtx, ref, date); err != nil {
			s.logger.Error("upsert compliance user failed",
				zap.String("date", date),
				zap.Int64("external_id", ref.ID),
				zap.Error(err),
			)
			return RecordResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("store compliance commit failed", zap.Error(err))
		return RecordResponse{}, err
	}

	s.metrics.ComplianceRun.WithLabelValues("stored").Inc()
	s.logger.Info("compliance day stored",
		zap.String("date", date),
		zap.Int("non_compliant_users", len(rec.Users)),
	)
	return mapRecord(rec), nil
}

func (s *service) touchUser(ctx context.Context, repo Repository, ref UserRef, date string) error {
	u, err := repo.FindUserForUpdate(ctx, ref.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.CreateUser(ctx, &User{
			ID:         uuid.New(),
			ExternalID: ref.ID,
			Email:      ref.Email,
			Dates:      datatypes.JSONSlice[string]{date},
		})
	}
	if err != nil {
		return err
	}

	dates, changed := addDate(u.Dates, date)
	if !changed && u.Email == ref.Email {
		return nil
	}
	u.Dates = dates
	if ref.Email != "" {
		u.Email = ref.Email
	}
	return repo.SaveUserDates(ctx, u)
}

// addDate inserts date keeping the list sorted and unique.
func addDate(dates []string, date string) ([]string, bool) {
	i := sort.SearchStrings(dates, date)
	if i < len(dates) && dates[i] == date {
		return dates, false
	}
	out := make([]string, 0, len(dates)+1)
	out = append(out, dates[:i]...)
	out = append(out, date)
	out = append(out, dates[i:]...)
	return out, true
}

func dedupeUsers(users []UserRef) []UserRef {
	seen := make(map[int64]struct{}, len(users))
	out := make([]UserRef, 0, len(users))
	for _, u := range users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SyncRange fetches days concurrently and stores them in date order. A
// failed day is reported and skipped. The range end is clamped to today.
func (s *service) SyncRange(ctx context.Context, from, to string) (SyncResult, error) {
	start, err := domain.ParseDate(from)
	if err != nil {
		return SyncResult{}, complianceerrors.ErrInvalidDate
	}
	end, err := domain.ParseDate(to)
	if err != nil {
		return SyncResult{}, complianceerrors.ErrInvalidDate
	}
	if today := s.today(); end.After(today) {
		end = today
	}
	if start.After(end) {
		return SyncResult{}, complianceerrors.ErrInvalidRange
	}
	span := domain.Span{Start: start, End: end}
	if span.Days() > maxSyncDays {
		return SyncResult{}, complianceerrors.ErrInvalidRange
	}
	if s.source == nil {
		return SyncResult{}, complianceerrors.ErrSourceNotConfigured
	}

	days := make([]time.Time, 0, span.Days())
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}

	reports := make([]DayReport, len(days))
	fetchErrs := make([]error, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)
	for i, d := range days {
		g.Go(func() error {
			reports[i], fetchErrs[i] = s.fetch(gctx, d)
			return nil
		})
	}
	_ = g.Wait()

	result := SyncResult{
		From:   start.Format(domain.DateLayout),
		To:     end.Format(domain.DateLayout),
		Stored: []string{},
		Failed: []FailedDay{},
	}
	for i, d := range days {
		date := d.Format(domain.DateLayout)
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if fetchErrs[i] != nil {
			result.Failed = append(result.Failed, FailedDay{Date: date, Error: fetchErrs[i].Error()})
			continue
		}
		if _, err := s.store(ctx, d, reports[i]); err != nil {
			result.Failed = append(result.Failed, FailedDay{Date: date, Error: err.Error()})
			continue
		}
		result.Stored = append(result.Stored, date)
	}

	s.logger.Info("compliance range synced",
		zap.String("from", result.From),
		zap.String("to", result.To),
		zap.Int("stored", len(result.Stored)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (s *service) ListUsers(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		s.logger.Error("list compliance users failed", zap.Error(err))
		return nil, err
	}

	res := make([]UserResponse, 0, len(users))
	for _, u := range users {
		dates := []string(u.Dates)
		if dates == nil {
			dates = []string{}
		}
		res = append(res, UserResponse{
			ExternalID: u.ExternalID,
			Email:      u.Email,
			Dates:      dates,
			Days:       len(dates),
		})
	}
	return res, nil
}

func mapRecord(rec *Record) RecordResponse {
	users := []UserRef(rec.Users)
	if users == nil {
		users = []UserRef{}
	}
	return RecordResponse{
		Date:              rec.Date.Format(domain.DateLayout),
		TotalUsers:        rec.TotalUsers,
		CompliantUsers:    rec.CompliantUsers,
		NonCompliantUsers: rec.NonCompliantUsers,
		Users:             users,
		Pagination:        rec.Pagination.Data(),
		UpdatedAt:         rec.UpdatedAt.Format(time.RFC3339),
	}
}
