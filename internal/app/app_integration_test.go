//go:build integration

package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supritimishra/FuelOne-1-sub007/internal/features"
	"github.com/supritimishra/FuelOne-1-sub007/internal/migration"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/internal/retention"
	"github.com/supritimishra/FuelOne-1-sub007/internal/testutil"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/config"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

func testConfig(masterDSN string) *config.Config {
	return &config.Config{
		ServiceName: "fuelone-integration",
		Master:      config.DBConfig{URL: masterDSN, MaxOpenConns: 5, LogLevel: logger.Silent},
		TenantPool:  config.TenantPoolConfig{Size: 4, TTL: time.Minute, MaxOpenConns: 3},
		Migration:   config.MigrationConfig{Concurrency: 2},
	}
}

func TestPostgresEndToEnd(t *testing.T) {
	ctx := context.Background()
	pg := testutil.NewPostgres(t)
	tenantDSN := pg.CreateDatabase(t, "tenant_highway")

	a, err := New(testConfig(pg.DSN), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	tenant := testutil.AddTenant(t, a.Master, "Highway Fuels", tenantDSN, model.TenantStatusActive)
	testutil.AddTenantUser(t, a.Master, tenant.ID, "owner@station.in", "user-1")
	testutil.AddTenant(t, a.Master, "Broken", "postgres://nobody:x@127.0.0.1:1/none?sslmode=disable", model.TenantStatusActive)

	report, err := a.Migrations.Run(ctx, "")
	require.Error(t, err)
	require.Len(t, report.Tenants, 2)
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "Broken", report.Failed()[0].Organization)

	report, err = a.Migrations.Run(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, report.Tenants[0].Applied)

	res, err := a.Resolver.ByUserEmail(ctx, "OWNER@station.in")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, res.Tenant.ID)

	flags := features.ForUser(ctx, res.DB, "user-1")
	assert.False(t, flags.Fallback)
	assert.Len(t, flags.Features, len(features.Defaults()))

	_, err = features.NewAdmin(a.Master).SetOverride(ctx, res.DB,
		features.Actor{DeveloperEmail: "dev@fuelone.in", TenantID: tenant.ID}, "user-1", "reports", true)
	require.NoError(t, err)
	assert.True(t, features.ForUser(ctx, res.DB, "user-1").Enabled("reports"))

	old := &model.SaleEntry{SaleDate: model.NewDate(time.Now()), OpeningReading: 1, ClosingReading: 2}
	old.CreatedAt = time.Now().AddDate(0, 0, -120)
	require.NoError(t, res.DB.Create(old).Error)
	require.NoError(t, a.Master.Create(&model.UserRetentionPolicy{
		TenantID: tenant.ID, Entity: "sale_entries", RetentionDays: 90, Action: model.RetentionArchive,
	}).Error)

	// a second holder of the advisory lock makes the job skip
	unlock, ok, err := retention.NewAdvisoryLocker(a.Master).TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = a.Retention.Run(ctx)
	assert.ErrorIs(t, err, retention.ErrAlreadyRunning)
	unlock()

	runReport, err := a.Retention.Run(ctx)
	require.NoError(t, err)
	require.Len(t, runReport.Policies, 1)
	assert.Equal(t, 1, runReport.Policies[0].Rows)
	assert.NotZero(t, runReport.Policies[0].BackupID)

	st, err := a.Migrations.Status(ctx, res.DB)
	require.NoError(t, err)
	assert.Len(t, st.Applied, len(migration.All))
}
