package tenancy

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/internal/testutil"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/database"
	"gorm.io/gorm"
)

type countingOpener struct {
	calls atomic.Int32
}

func (o *countingOpener) open(dsn string) (*gorm.DB, error) {
	o.calls.Add(1)
	return testutil.OpenSQLite(dsn)
}

func newResolver(t *testing.T, master *gorm.DB, cfg Config) (*Resolver, *countingOpener) {
	t.Helper()
	opener := &countingOpener{}
	r := NewResolver(master, cfg, WithOpener(opener.open))
	t.Cleanup(func() { _ = r.Close() })
	return r, opener
}

func TestByTenantID(t *testing.T) {
	master := testutil.NewMasterDB(t)
	dsn, _ := testutil.NewTenantDSN(t)
	tenant := testutil.AddTenant(t, master, "Highway Fuels", dsn, model.TenantStatusActive)

	r, opener := newResolver(t, master, Config{Size: 4})
	ctx := context.Background()

	res, err := r.ByTenantID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Highway Fuels", res.Tenant.OrganizationName)
	assert.Nil(t, res.User)
	require.NotNil(t, res.DB)

	again, err := r.ByTenantID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Same(t, res.DB, again.DB)
	assert.Equal(t, int32(1), opener.calls.Load())
	assert.Equal(t, 1, r.Len())
}

func TestByTenantIDErrors(t *testing.T) {
	master := testutil.NewMasterDB(t)
	dsn, _ := testutil.NewTenantDSN(t)
	suspended := testutil.AddTenant(t, master, "Closed Station", dsn, model.TenantStatusSuspended)
	noDSN := testutil.AddTenant(t, master, "Unprovisioned", "", model.TenantStatusActive)

	r, opener := newResolver(t, master, Config{})
	ctx := context.Background()

	_, err := r.ByTenantID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = r.ByTenantID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = r.ByTenantID(ctx, suspended.ID)
	assert.ErrorIs(t, err, ErrTenantInactive)

	_, err = r.ByTenantID(ctx, noDSN.ID)
	assert.ErrorIs(t, err, ErrNoConnectionString)

	assert.Equal(t, int32(0), opener.calls.Load())
}

func TestByTenantIDConnectionFailure(t *testing.T) {
	master := testutil.NewMasterDB(t)
	tenant := testutil.AddTenant(t, master, "Broken", "file:/nonexistent/dir/x.db?mode=ro", model.TenantStatusActive)

	r, _ := newResolver(t, master, Config{})
	_, err := r.ByTenantID(context.Background(), tenant.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTenantNotFound)
	assert.Contains(t, err.Error(), tenant.ID)
	assert.Equal(t, 0, r.Len())
}

func TestByUserEmail(t *testing.T) {
	master := testutil.NewMasterDB(t)
	dsn, _ := testutil.NewTenantDSN(t)
	tenant := testutil.AddTenant(t, master, "Ring Road Fuels", dsn, model.TenantStatusActive)
	testutil.AddTenantUser(t, master, tenant.ID, "owner@ringroad.in", "user-1")

	r, _ := newResolver(t, master, Config{})
	ctx := context.Background()

	res, err := r.ByUserEmail(ctx, " Owner@RingRoad.in ")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, res.Tenant.ID)
	require.NotNil(t, res.User)
	assert.Equal(t, "user-1", res.User.UserID)

	_, err = r.ByUserEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = r.ByUserEmail(ctx, "")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestConcurrentMissOpensOnePool(t *testing.T) {
	master := testutil.NewMasterDB(t)
	dsn, _ := testutil.NewTenantDSN(t)
	tenant := testutil.AddTenant(t, master, "Busy Station", dsn, model.TenantStatusActive)

	r, opener := newResolver(t, master, Config{})

	var wg sync.WaitGroup
	dbs := make([]*gorm.DB, 8)
	for i := range dbs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := r.Open(tenant)
			if err == nil {
				dbs[i] = db
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), opener.calls.Load())
	for _, db := range dbs {
		assert.Same(t, dbs[0], db)
	}
}

func TestEvictionClosesPool(t *testing.T) {
	master := testutil.NewMasterDB(t)
	dsnA, _ := testutil.NewTenantDSN(t)
	dsnB, _ := testutil.NewTenantDSN(t)
	a := testutil.AddTenant(t, master, "A", dsnA, model.TenantStatusActive)
	b := testutil.AddTenant(t, master, "B", dsnB, model.TenantStatusActive)

	r, opener := newResolver(t, master, Config{Size: 1, CloseGrace: 20 * time.Millisecond})
	ctx := context.Background()

	resA, err := r.ByTenantID(ctx, a.ID)
	require.NoError(t, err)
	_, err = r.ByTenantID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	assert.Eventually(t, func() bool {
		return database.Ping(resA.DB) != nil
	}, 2*time.Second, 5*time.Millisecond, "evicted pool must be closed after the grace period")

	resA2, err := r.ByTenantID(ctx, a.ID)
	require.NoError(t, err)
	assert.NotSame(t, resA.DB, resA2.DB)
	assert.Equal(t, int32(3), opener.calls.Load())
}

func TestBusyPoolOutlivesTTL(t *testing.T) {
	master := testutil.NewMasterDB(t)
	dsn, _ := testutil.NewTenantDSN(t)
	tenant := testutil.AddTenant(t, master, "Busy Station", dsn, model.TenantStatusActive)

	r, opener := newResolver(t, master, Config{TTL: 50 * time.Millisecond, CloseGrace: 20 * time.Millisecond})
	ctx := context.Background()

	res, err := r.ByTenantID(ctx, tenant.ID)
	require.NoError(t, err)

	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		again, err := r.ByTenantID(ctx, tenant.ID)
		require.NoError(t, err)
		require.Same(t, res.DB, again.DB)
		time.Sleep(10 * time.Millisecond)
	}

	var n int64
	require.NoError(t, res.DB.Model(&model.Vendor{}).Count(&n).Error)
	assert.Equal(t, int32(1), opener.calls.Load())
}

func TestExpiredPoolUsableDuringGrace(t *testing.T) {
	master := testutil.NewMasterDB(t)
	dsn, _ := testutil.NewTenantDSN(t)
	tenant := testutil.AddTenant(t, master, "Quiet Station", dsn, model.TenantStatusActive)

	r, opener := newResolver(t, master, Config{TTL: 20 * time.Millisecond, CloseGrace: 300 * time.Millisecond})
	ctx := context.Background()

	res, err := r.ByTenantID(ctx, tenant.ID)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 2*time.Millisecond)

	// a request that resolved the pool before expiry can still use it
	var n int64
	require.NoError(t, res.DB.Model(&model.Vendor{}).Count(&n).Error)

	again, err := r.ByTenantID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.NotSame(t, res.DB, again.DB)
	assert.Equal(t, int32(2), opener.calls.Load())

	assert.Eventually(t, func() bool {
		return database.Ping(res.DB) != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, database.Ping(again.DB))
}

func TestCloseClosesPools(t *testing.T) {
	master := testutil.NewMasterDB(t)
	dsn, _ := testutil.NewTenantDSN(t)
	tenant := testutil.AddTenant(t, master, "A", dsn, model.TenantStatusActive)

	r, _ := newResolver(t, master, Config{})
	res, err := r.ByTenantID(context.Background(), tenant.ID)
	require.NoError(t, err)

	require.NoError(t, r.Close())
	assert.Error(t, database.Ping(res.DB))
	assert.Equal(t, 0, r.Len())

	_, err = r.ByTenantID(context.Background(), tenant.ID)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, r.Close())
}

func TestForget(t *testing.T) {
	master := testutil.NewMasterDB(t)
	dsn, _ := testutil.NewTenantDSN(t)
	tenant := testutil.AddTenant(t, master, "A", dsn, model.TenantStatusActive)

	r, opener := newResolver(t, master, Config{})
	first, err := r.Open(tenant)
	require.NoError(t, err)

	r.Forget(tenant.ID)
	assert.Equal(t, 0, r.Len())
	_, err = r.Open(tenant)
	require.NoError(t, err)
	assert.Equal(t, int32(2), opener.calls.Load())

	// the forgotten pool is still draining; Close does not wait for it
	assert.NoError(t, database.Ping(first))
	require.NoError(t, r.Close())
	assert.Error(t, database.Ping(first))
}
