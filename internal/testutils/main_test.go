//go:build integration

package testutils_test

import (
	"os"
	"testing"

	"go-leave/internal/testutils"
)

func TestMain(m *testing.M) {
	code := m.Run()
	testutils.CleanupSharedContainer()
	os.Exit(code)
}

func TestSetupPostgres_Migrates(t *testing.T) {
	pg := testutils.SetupPostgres(t)

	for _, table := range []string{"users", "leave_requests", "leave_balances", "outbox_events", "compliance_records"} {
		if !pg.Gorm.Migrator().HasTable(table) {
			t.Fatalf("table %s missing after migrate", table)
		}
	}
}
