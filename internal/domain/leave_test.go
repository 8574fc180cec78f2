package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, v string) time.Time {
	t.Helper()
	d, err := ParseDate(v)
	require.NoError(t, err)
	return d
}

func TestSpan_Days(t *testing.T) {
	assert.Equal(t, 1, Span{day(t, "2024-01-01"), day(t, "2024-01-01")}.Days())
	assert.Equal(t, 3, Span{day(t, "2024-01-01"), day(t, "2024-01-03")}.Days())
	assert.Equal(t, 11, Span{day(t, "2024-01-10"), day(t, "2024-01-20")}.Days())
	// leap day
	assert.Equal(t, 2, Span{day(t, "2024-02-28"), day(t, "2024-02-29")}.Days())
	assert.Equal(t, 366, Span{day(t, "2024-01-01"), day(t, "2024-12-31")}.Days())
}

func TestSpan_Valid(t *testing.T) {
	assert.True(t, Span{day(t, "2024-01-01"), day(t, "2024-01-01")}.Valid())
	assert.False(t, Span{day(t, "2024-01-02"), day(t, "2024-01-01")}.Valid())
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision(" Approve ")
	require.NoError(t, err)
	assert.Equal(t, LeaveApproved, d.Target())

	d, err = ParseDecision("reject")
	require.NoError(t, err)
	assert.Equal(t, LeaveRejected, d.Target())

	_, err = ParseDecision("maybe")
	assert.Error(t, err)
}
