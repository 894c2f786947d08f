//go:build integration

package testutil

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/supritimishra/FuelOne-1-sub007/pkg/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm/logger"
)

// PostgresContainer is a running Postgres server. DSN points at the master
// database; further databases can be created with CreateDatabase.
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DSN       string
}

// SkipIfNoDocker skips the test if Docker is not available
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	// testcontainers panics on some unsupported Docker setups
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Docker not available (panic recovered): %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		t.Skipf("Docker not available, skipping integration test: %v", err)
		return
	}
	defer provider.Close()

	if _, err := provider.Client().Ping(ctx); err != nil {
		t.Skipf("Docker not responding, skipping integration test: %v", err)
	}
}

// NewPostgres starts a Postgres container terminated at test cleanup
func NewPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	SkipIfNoDocker(t)

	ctx := context.Background()
	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("fuelone_master"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pg.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	return &PostgresContainer{Container: pg, DSN: dsn}
}

// CreateDatabase creates an empty database on the server and returns its DSN
func (p *PostgresContainer) CreateDatabase(t *testing.T, name string) string {
	t.Helper()

	db, err := database.Open(p.DSN, database.PoolConfig{LogLevel: logger.Silent})
	if err != nil {
		t.Fatalf("open master: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	if err := db.Exec("CREATE DATABASE " + name).Error; err != nil {
		t.Fatalf("create database %s: %v", name, err)
	}

	u, err := url.Parse(p.DSN)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	u.Path = "/" + name
	return u.String()
}
