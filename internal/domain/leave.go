package domain

import (
	"fmt"
	"strings"
	"time"
)

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

func (s LeaveStatus) String() string { return string(s) }

// Decision is the reviewer's verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func ParseDecision(v string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(v))); d {
	case DecisionApprove, DecisionReject:
		return d, nil
	default:
		return "", fmt.Errorf("unknown decision %q", v)
	}
}

// Target is the status a decision moves a pending request to.
func (d Decision) Target() LeaveStatus {
	if d == DecisionApprove {
		return LeaveApproved
	}
	return LeaveRejected
}

const DateLayout = "2006-01-02"

// Date truncates t to a calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(v string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(v), time.UTC)
}

// Span is an inclusive range of calendar days.
type Span struct {
	Start time.Time
	End   time.Time
}

func (s Span) Valid() bool {
	return !Date(s.End).Before(Date(s.Start))
}

// Days counts both endpoints, so a single-day span is 1.
func (s Span) Days() int {
	return int(Date(s.End).Sub(Date(s.Start)).Hours()/24) + 1
}
