//go:build integration

package testutils

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	"go-leave/internal/database"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	sharedOnce     sync.Once
	sharedInitErr  error
	sharedPool     *dockertest.Pool
	sharedResource *dockertest.Resource
	sharedDB       *gorm.DB
)

// Postgres is a migrated database shared by every integration test of the
// process.
type Postgres struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

// SetupPostgres starts the shared container on first use and truncates all
// tables before returning.
func SetupPostgres(t *testing.T) *Postgres {
	t.Helper()
	sharedOnce.Do(func() { sharedInitErr = initSharedPGContainer() })
	if sharedInitErr != nil {
		t.Fatalf("failed to initialize shared test container: %v", sharedInitErr)
	}

	sqlDB, err := sharedDB.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}

	pg := &Postgres{Gorm: sharedDB, SQL: sqlDB}
	pg.Clean()
	t.Cleanup(pg.Clean)
	return pg
}

func (p *Postgres) Clean() {
	tables := []string{
		"compliance_users",
		"compliance_records",
		"outbox_events",
		"notifications",
		"leave_requests",
		"leave_balances",
		"project_members",
		"projects",
		"leave_types",
		"users",
	}
	m := p.Gorm.Migrator()
	for _, t := range tables {
		if m.HasTable(t) {
			p.Gorm.Exec(`TRUNCATE TABLE "` + t + `" CASCADE`)
		}
	}
}

// CleanupSharedContainer purges the container. TestMain calls it once.
func CleanupSharedContainer() {
	if sharedDB != nil {
		if sqlDB, err := sharedDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if sharedPool != nil && sharedResource != nil {
		if err := sharedPool.Purge(sharedResource); err != nil {
			log.Printf("could not purge postgres container: %v", err)
		}
		sharedResource = nil
		sharedPool = nil
		sharedDB = nil
	}
}

func initSharedPGContainer() error {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return fmt.Errorf("could not connect to docker: %w", err)
	}
	sharedPool = pool

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=testpass",
			"POSTGRES_USER=testuser",
			"POSTGRES_DB=testdb",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return fmt.Errorf("could not start postgres: %w", err)
	}
	sharedResource = resource
	_ = resource.Expire(300)

	dsn := fmt.Sprintf(
		"host=127.0.0.1 port=%s user=testuser password=testpass dbname=testdb sslmode=disable",
		resource.GetPort("5432/tcp"),
	)

	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		std, err := sql.Open("pgx", dsn)
		if err != nil {
			return err
		}
		defer std.Close()
		return std.Ping()
	}); err != nil {
		return fmt.Errorf("postgres not ready: %w", err)
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Error)})
	if err != nil {
		return err
	}
	if err := database.Migrate(gdb); err != nil {
		return err
	}
	sharedDB = gdb
	return nil
}
