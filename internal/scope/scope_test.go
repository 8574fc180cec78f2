package scope_test

import (
	"testing"

	"go-leave/internal/scope"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type leaveRow struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (leaveRow) TableName() string { return "leave_requests" }

func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DryRun: true})
	require.NoError(t, err)
	return db
}

func TestReviewableBy(t *testing.T) {
	db := dryRun(t)
	reviewer := uuid.New()

	var rows []leaveRow
	stmt := db.Scopes(scope.ReviewableBy(reviewer)).Find(&rows).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "FROM users u WHERE u.manager_id = $1")
	assert.Contains(t, sql, "p.lead_id = $2")
	assert.Contains(t, sql, "pm.user_id <> p.lead_id")
	assert.Equal(t, []any{reviewer, reviewer}, stmt.Vars)
}

func TestOwnedBy(t *testing.T) {
	db := dryRun(t)
	owner := uuid.New()

	var rows []leaveRow
	stmt := db.Scopes(scope.OwnedBy(owner)).Find(&rows).Statement

	assert.Contains(t, stmt.SQL.String(), "leave_requests.user_id = $1")
	assert.Equal(t, []any{owner}, stmt.Vars)
}
