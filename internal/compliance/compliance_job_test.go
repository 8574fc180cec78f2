package compliance_test

import (
	"context"
	"testing"
	"time"

	"go-leave/internal/compliance"
	"go-leave/internal/domain"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingService struct {
	compliance.Service
	days []time.Time
}

func (s *recordingService) SyncDay(ctx context.Context, day time.Time) (compliance.RecordResponse, error) {
	s.days = append(s.days, day)
	return compliance.RecordResponse{Date: day.Format(domain.DateLayout)}, nil
}

func TestDailySyncJob_RunSyncsYesterday(t *testing.T) {
	svc := &recordingService{}
	job := compliance.NewDailySyncJob(svc, time.Second, nil)

	before := domain.Date(time.Now()).AddDate(0, 0, -1)
	job.Run()
	after := domain.Date(time.Now()).AddDate(0, 0, -1)

	require.Len(t, svc.days, 1)
	got := svc.days[0]
	assert.True(t, got.Equal(before) || got.Equal(after), "got %s", got)
}

func TestScheduleDailySync(t *testing.T) {
	c := cron.New(cron.WithSeconds())
	job := compliance.NewDailySyncJob(&recordingService{}, time.Second, nil)

	id, err := compliance.ScheduleDailySync(c, "0 30 1 * * *", job)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Len(t, c.Entries(), 1)

	_, err = compliance.ScheduleDailySync(c, "every day", job)
	assert.Error(t, err)
}
