package compliance

import (
	"context"
	"time"

	"go-leave/internal/domain"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DailySyncJob stores yesterday's report. Cron runs it on its own goroutine.
type DailySyncJob struct {
	svc     Service
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func NewDailySyncJob(svc Service, timeout time.Duration, logger *zap.Logger) *DailySyncJob {
	if logger == nil {
		logger = zap.L()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &DailySyncJob{svc: svc, timeout: timeout, now: time.Now, logger: logger.Named("compliance.job")}
}

func (j *DailySyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	day := domain.Date(j.now()).AddDate(0, 0, -1)
	rec, err := j.svc.SyncDay(ctx, day)
	if err != nil {
		j.logger.Error("daily compliance sync failed", zap.String("date", day.Format(domain.DateLayout)), zap.Error(err))
		return
	}
	j.logger.Info("daily compliance sync done",
		zap.String("date", rec.Date),
		zap.Int("non_compliant_users", rec.NonCompliantUsers),
	)
}

// ScheduleDailySync registers the job on c. The schedule carries a
// seconds field, so c must be built with cron.WithSeconds.
func ScheduleDailySync(c *cron.Cron, spec string, job *DailySyncJob) (cron.EntryID, error) {
	id, err := c.AddJob(spec, job)
	if err != nil {
		return 0, err
	}
	job.logger.Info("daily compliance sync scheduled", zap.String("spec", spec))
	return id, nil
}
