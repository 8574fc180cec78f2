package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go-leave/internal/domain"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxAttempts     = 3
)

// DayReport is the source payload of one day, merged across pages.
type DayReport struct {
	TotalUsers        int        `json:"total_users"`
	CompliantUsers    int        `json:"compliant_users"`
	NonCompliantUsers int        `json:"non_compliant_users"`
	Users             []UserRef  `json:"users"`
	Pagination        Pagination `json:"pagination"`
}

type Source interface {
	FetchDay(ctx context.Context, day time.Time) (DayReport, error)
}

type ClientConfig struct {
	BaseURL  string
	Token    string
	PageSize int
	Timeout  time.Duration
}

type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg ClientConfig, logger ...*zap.Logger) *Client {
	l := zap.L().Named("compliance.client")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("compliance.client")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: l}
}

// FetchDay follows pagination until the page reported as last. Totals come
// from the first page; users are concatenated.
func (c *Client) FetchDay(ctx context.Context, day time.Time) (DayReport, error) {
	var merged DayReport
	for page := 1; ; page++ {
		report, err := c.fetchPage(ctx, day, page)
		if err != nil {
			return DayReport{}, err
		}
		if page == 1 {
			merged = report
		} else {
			merged.Users = append(merged.Users, report.Users...)
			merged.Pagination = report.Pagination
		}
		if report.Pagination.TotalPages <= page || len(report.Users) == 0 {
			break
		}
	}
	c.logger.Debug("compliance day fetched",
		zap.String("date", day.Format(domain.DateLayout)),
		zap.Int("users", len(merged.Users)),
		zap.Int("pages", merged.Pagination.TotalPages),
	)
	return merged, nil
}

func (c *Client) fetchPage(ctx context.Context, day time.Time, page int) (DayReport, error) {
	q := url.Values{}
	q.Set("date", day.Format(domain.DateLayout))
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(c.cfg.PageSize))
	endpoint := c.cfg.BaseURL + "?" + q.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		report, retry, err := c.do(ctx, endpoint)
		if err == nil {
			return report, nil
		}
		lastErr = err
		if !retry || attempt == maxAttempts {
			break
		}
		c.logger.Warn("compliance page fetch retrying",
			zap.String("date", day.Format(domain.DateLayout)),
			zap.Int("page", page),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return DayReport{}, ctx.Err()
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}
	return DayReport{}, lastErr
}

// do reports whether a failed call is worth retrying.
func (c *Client) do(ctx context.Context, endpoint string) (DayReport, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return DayReport{}, false, err
	}
	req.Header.Set("token", c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return DayReport{}, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return DayReport{}, resp.StatusCode >= 500, fmt.Errorf("compliance source returned %d: %s", resp.StatusCode, body)
	}

	var report DayReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return DayReport{}, false, fmt.Errorf("decode compliance response: %w", err)
	}
	return report, false, nil
}
