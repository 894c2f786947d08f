package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supritimishra/FuelOne-1-sub007/internal/features"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/internal/tenancy"
	"github.com/supritimishra/FuelOne-1-sub007/internal/testutil"
	"gorm.io/gorm"
)

func newRunner(t *testing.T, master *gorm.DB) *Runner {
	t.Helper()
	resolver := tenancy.NewResolver(master, tenancy.Config{}, tenancy.WithOpener(testutil.OpenSQLite))
	t.Cleanup(func() { _ = resolver.Close() })
	return NewRunner(master, resolver, 2, nil)
}

func allVersions() []int {
	var out []int
	for _, m := range All {
		out = append(out, m.Version)
	}
	return out
}

func TestRunAppliesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	master := testutil.NewMasterDB(t)
	dsn, db := testutil.NewEmptyDSN(t)
	tenant := testutil.AddTenant(t, master, "Highway Fuels", dsn, model.TenantStatusActive)

	runner := newRunner(t, master)

	report, err := runner.Run(ctx, "")
	require.NoError(t, err)
	require.Len(t, report.Tenants, 1)
	assert.Equal(t, tenant.ID, report.Tenants[0].TenantID)
	assert.Equal(t, allVersions(), report.Tenants[0].Applied)

	var count int64
	require.NoError(t, db.Model(&model.FeaturePermission{}).Count(&count).Error)
	assert.Equal(t, int64(len(features.Defaults())), count)
	assert.True(t, db.Migrator().HasTable(&model.SwipeMachine{}))
	assert.True(t, db.Migrator().HasIndex(&model.SheetRecord{}, "idx_sheet_records_record_date"))

	report, err = runner.Run(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, report.Tenants[0].Applied)

	require.NoError(t, db.Model(&model.FeaturePermission{}).Count(&count).Error)
	assert.Equal(t, int64(len(features.Defaults())), count)

	st, err := runner.Status(ctx, db)
	require.NoError(t, err)
	assert.Len(t, st.Applied, len(All))
	assert.Empty(t, st.Pending)
}

func TestRunReportsBrokenTenant(t *testing.T) {
	ctx := context.Background()
	master := testutil.NewMasterDB(t)
	dsnA, _ := testutil.NewEmptyDSN(t)
	dsnB, _ := testutil.NewEmptyDSN(t)
	a := testutil.AddTenant(t, master, "A", dsnA, model.TenantStatusActive)
	broken := testutil.AddTenant(t, master, "Broken", "file:/nonexistent/dir/x.db?mode=ro", model.TenantStatusActive)
	b := testutil.AddTenant(t, master, "B", dsnB, model.TenantStatusSuspended)
	testutil.AddTenant(t, master, "Gone", "file:/nonexistent/gone.db?mode=ro", model.TenantStatusDeleted)

	report, err := newRunner(t, master).Run(ctx, "")
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 1)
	assert.Contains(t, err.Error(), broken.ID)

	require.Len(t, report.Tenants, 3)
	byID := map[string]TenantResult{}
	for _, r := range report.Tenants {
		byID[r.TenantID] = r
	}
	assert.Equal(t, allVersions(), byID[a.ID].Applied)
	assert.Equal(t, allVersions(), byID[b.ID].Applied, "suspended tenants are migrated too")
	assert.NotEmpty(t, byID[broken.ID].Error)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, broken.ID, failed[0].TenantID)
}

func TestRunUnknownTenant(t *testing.T) {
	master := testutil.NewMasterDB(t)
	runner := newRunner(t, master)

	_, err := runner.Run(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, tenancy.ErrTenantNotFound)

	_, err = runner.Run(context.Background(), "6f1c2b1e-8a3d-4c7e-9b0a-1d2e3f4a5b6c")
	assert.ErrorIs(t, err, tenancy.ErrTenantNotFound)
}

func TestApplyStopsAtFailingMigration(t *testing.T) {
	_, db := testutil.NewEmptyDSN(t)
	runner := NewRunner(nil, nil, 1, nil)
	runner.migrations = []Migration{
		{Version: 1, Name: "ok", Up: func(tx *gorm.DB) error { return tx.Exec("CREATE TABLE a (id integer)").Error }},
		{Version: 2, Name: "bad", Up: func(tx *gorm.DB) error { return errors.New("boom") }},
		{Version: 3, Name: "never", Up: func(tx *gorm.DB) error { return tx.Exec("CREATE TABLE c (id integer)").Error }},
	}

	applied, err := runner.Apply(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 2 bad")
	assert.Equal(t, []int{1}, applied)
	assert.False(t, db.Migrator().HasTable("c"))

	st, err := runner.Status(context.Background(), db)
	require.NoError(t, err)
	assert.Len(t, st.Applied, 1)
	assert.Equal(t, []Pending{{Version: 2, Name: "bad"}, {Version: 3, Name: "never"}}, st.Pending)
}

func TestRepairSwipeMachineVendor(t *testing.T) {
	_, db := testutil.NewTenantDSN(t)
	vendor := model.Vendor{VendorName: "HDFC"}
	require.NoError(t, db.Create(&vendor).Error)

	missing := "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	linked := model.SwipeMachine{MachineName: "POS1", MachineType: "card", VendorID: &vendor.ID}
	dangling := model.SwipeMachine{MachineName: "POS2", MachineType: "card", VendorID: &missing}
	require.NoError(t, db.Create(&linked).Error)
	require.NoError(t, db.Create(&dangling).Error)

	require.NoError(t, repairSwipeMachineVendor(db))

	var repaired, kept model.SwipeMachine
	require.NoError(t, db.First(&repaired, "id = ?", dangling.ID).Error)
	assert.Nil(t, repaired.VendorID)
	require.NoError(t, db.First(&kept, "id = ?", linked.ID).Error)
	require.NotNil(t, kept.VendorID)
	assert.Equal(t, vendor.ID, *kept.VendorID)
}

func TestMigrationsCoverModels(t *testing.T) {
	_, db := testutil.NewEmptyDSN(t)
	_, err := NewRunner(nil, nil, 1, nil).Apply(context.Background(), db)
	require.NoError(t, err)

	// a model change without a matching migration shows up here
	m := db.Migrator()
	for _, mdl := range model.TenantModels() {
		stmt := &gorm.Statement{DB: db}
		require.NoError(t, stmt.Parse(mdl))
		for _, f := range stmt.Schema.Fields {
			if f.DBName == "" {
				continue
			}
			assert.True(t, m.HasColumn(mdl, f.DBName), "column %s.%s", stmt.Schema.Table, f.DBName)
		}
		for _, idx := range stmt.Schema.ParseIndexes() {
			assert.True(t, m.HasIndex(mdl, idx.Name), "index %s", idx.Name)
		}
	}

	// version 1 alone predates the vendor link and the record date index
	_, old := testutil.NewEmptyDSN(t)
	require.NoError(t, createBusinessTables(old))
	assert.False(t, old.Migrator().HasColumn(&model.SwipeMachine{}, "vendor_id"))
	assert.False(t, old.Migrator().HasIndex(&model.SheetRecord{}, "idx_sheet_records_record_date"))
}
