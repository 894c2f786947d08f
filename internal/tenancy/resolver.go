// Package tenancy maps request identities to tenant databases.
//
// Tenants are looked up in the master registry; each tenant's pool is opened
// lazily from its connection string and kept in a bounded LRU cache whose
// TTL counts idle time. Evicted pools are closed after a grace period, so
// callers still holding one can finish.
package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/database"
	"github.com/supritimishra/FuelOne-1-sub007/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var (
	// ErrTenantNotFound is returned for unknown or malformed tenant ids and
	// for logins not mapped to any tenant.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrTenantInactive is returned for tenants whose status is not active
	ErrTenantInactive = errors.New("tenant is not active")
	// ErrNoConnectionString is returned for tenants without a database
	ErrNoConnectionString = errors.New("tenant has no connection string")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("tenant resolver is closed")
)

// OpenFunc opens a database from a tenant connection string
type OpenFunc func(dsn string) (*gorm.DB, error)

// DefaultCloseGrace is how long an evicted pool stays open when
// Config.CloseGrace is unset
const DefaultCloseGrace = time.Minute

// Config bounds the pool cache
type Config struct {
	Size int
	// TTL evicts pools not resolved for this long
	TTL time.Duration
	// CloseGrace delays closing an evicted pool
	CloseGrace time.Duration
}

// Resolution is the outcome of a successful lookup
type Resolution struct {
	Tenant *model.Tenant
	// User is set when the lookup went through a login email
	User *model.TenantUser
	DB   *gorm.DB
}

// Resolver resolves tenants and caches their connection pools
type Resolver struct {
	master *gorm.DB
	open   OpenFunc
	log    *zap.Logger

	pools *lru.LRU[string, *gorm.DB]
	group singleflight.Group
	grace time.Duration

	mu     sync.Mutex
	closed bool
	// evicted pools waiting to be closed
	draining map[*gorm.DB]*time.Timer
}

// Option configures a Resolver
type Option func(*Resolver)

// WithOpener replaces the PostgreSQL opener
func WithOpener(open OpenFunc) Option {
	return func(r *Resolver) {
		r.open = open
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// PostgresOpener opens tenant databases with the given pool settings
func PostgresOpener(pool database.PoolConfig) OpenFunc {
	return func(dsn string) (*gorm.DB, error) {
		return database.Open(dsn, pool)
	}
}

// NewResolver creates a resolver reading the master registry
func NewResolver(master *gorm.DB, cfg Config, opts ...Option) *Resolver {
	r := &Resolver{
		master:   master,
		open:     PostgresOpener(database.PoolConfig{}),
		log:      zap.NewNop(),
		grace:    cfg.CloseGrace,
		draining: make(map[*gorm.DB]*time.Timer),
	}
	for _, opt := range opts {
		opt(r)
	}
	if cfg.Size <= 0 {
		cfg.Size = 64
	}
	if r.grace <= 0 {
		r.grace = DefaultCloseGrace
	}
	r.pools = lru.NewLRU[string, *gorm.DB](cfg.Size, r.onEvict, cfg.TTL)
	return r
}

// ByTenantID resolves an active tenant by id
func (r *Resolver) ByTenantID(ctx context.Context, tenantID string) (*Resolution, error) {
	tenant, err := r.LookupTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	db, err := r.activeDB(tenant)
	if err != nil {
		return nil, err
	}
	return &Resolution{Tenant: tenant, DB: db}, nil
}

// ByUserEmail resolves the active tenant a login belongs to
func (r *Resolver) ByUserEmail(ctx context.Context, email string) (*Resolution, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		prometheus.RecordTenantResolution("not_found")
		return nil, ErrTenantNotFound
	}

	var user model.TenantUser
	err := r.master.WithContext(ctx).
		Preload("Tenant").
		Where("LOWER(user_email) = ?", email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prometheus.RecordTenantResolution("not_found")
		return nil, ErrTenantNotFound
	}
	if err != nil {
		prometheus.RecordTenantResolution("error")
		return nil, fmt.Errorf("lookup tenant user %s: %w", email, err)
	}
	if user.Tenant.ID == "" {
		prometheus.RecordTenantResolution("not_found")
		return nil, ErrTenantNotFound
	}

	tenant := user.Tenant
	db, err := r.activeDB(&tenant)
	if err != nil {
		return nil, err
	}
	return &Resolution{Tenant: &tenant, User: &user, DB: db}, nil
}

// LookupTenant reads a tenant row without opening its database
func (r *Resolver) LookupTenant(ctx context.Context, tenantID string) (*model.Tenant, error) {
	if _, err := uuid.Parse(tenantID); err != nil {
		prometheus.RecordTenantResolution("not_found")
		return nil, ErrTenantNotFound
	}

	var tenant model.Tenant
	err := r.master.WithContext(ctx).Where("id = ?", tenantID).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prometheus.RecordTenantResolution("not_found")
		return nil, ErrTenantNotFound
	}
	if err != nil {
		prometheus.RecordTenantResolution("error")
		return nil, fmt.Errorf("lookup tenant %s: %w", tenantID, err)
	}
	return &tenant, nil
}

func (r *Resolver) activeDB(tenant *model.Tenant) (*gorm.DB, error) {
	if !tenant.IsActive() {
		prometheus.RecordTenantResolution("inactive")
		return nil, ErrTenantInactive
	}
	return r.Open(tenant)
}

// Open returns the cached pool of a tenant, opening it on first use. It
// does not check the tenant status, so operator tooling can reach
// suspended tenants.
func (r *Resolver) Open(tenant *model.Tenant) (*gorm.DB, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	if db, ok := r.pools.Get(tenant.ID); ok {
		// renew the TTL so only idle pools expire
		r.pools.Add(tenant.ID, db)
		r.reportPools()
		prometheus.RecordTenantResolution("cached")
		return db, nil
	}
	if tenant.ConnectionString == "" {
		prometheus.RecordTenantResolution("error")
		return nil, ErrNoConnectionString
	}

	v, err, _ := r.group.Do(tenant.ID, func() (interface{}, error) {
		if db, ok := r.pools.Get(tenant.ID); ok {
			return db, nil
		}
		// an expired entry is still stored; removing it retires the old pool
		r.pools.Remove(tenant.ID)

		db, err := r.open(tenant.ConnectionString)
		if err != nil {
			return nil, err
		}
		if err := database.Ping(db); err != nil {
			_ = database.Close(db)
			return nil, err
		}
		r.pools.Add(tenant.ID, db)
		r.reportPools()
		r.log.Info("Opened tenant pool",
			zap.String("tenant_id", tenant.ID),
			zap.String("organization", tenant.OrganizationName))
		return db, nil
	})
	if err != nil {
		prometheus.RecordTenantResolution("error")
		return nil, fmt.Errorf("connect to tenant %s database: %w", tenant.ID, err)
	}
	prometheus.RecordTenantResolution("opened")
	return v.(*gorm.DB), nil
}

// Forget drops the cached pool of a tenant, for example after its
// connection string changed. The pool is closed after the grace period.
func (r *Resolver) Forget(tenantID string) {
	r.pools.Remove(tenantID)
}

// Len returns the number of cached pools
func (r *Resolver) Len() int {
	return r.pools.Len()
}

// Close closes every cached and draining pool. Later lookups fail with
// ErrClosed.
func (r *Resolver) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	// closed is set, so evictions close immediately
	r.pools.Purge()

	r.mu.Lock()
	pending := make([]*gorm.DB, 0, len(r.draining))
	for db, timer := range r.draining {
		timer.Stop()
		pending = append(pending, db)
	}
	r.draining = make(map[*gorm.DB]*time.Timer)
	r.mu.Unlock()

	for _, db := range pending {
		r.closePool("", db)
	}
	r.reportPools()
	return nil
}

// onEvict runs with the cache locked and must not call back into it
func (r *Resolver) onEvict(tenantID string, db *gorm.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.closePool(tenantID, db)
		return
	}
	if timer, ok := r.draining[db]; ok {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(r.grace, func() { r.retire(tenantID, db, timer) })
	r.draining[db] = timer
	r.log.Debug("Tenant pool evicted", zap.String("tenant_id", tenantID), zap.Duration("close_after", r.grace))
}

// retire closes an evicted pool once its grace period is over, unless the
// same pool was cached again in the meantime.
func (r *Resolver) retire(tenantID string, db *gorm.DB, timer *time.Timer) {
	r.mu.Lock()
	if r.draining[db] != timer {
		r.mu.Unlock()
		return
	}
	delete(r.draining, db)
	r.mu.Unlock()

	if cached, ok := r.pools.Peek(tenantID); ok && cached == db {
		return
	}
	r.closePool(tenantID, db)
	r.reportPools()
}

func (r *Resolver) closePool(tenantID string, db *gorm.DB) {
	if err := database.Close(db); err != nil {
		r.log.Warn("Failed to close tenant pool", zap.String("tenant_id", tenantID), zap.Error(err))
		return
	}
	r.log.Info("Closed tenant pool", zap.String("tenant_id", tenantID))
}

// reportPools exports cached plus draining pools as open
func (r *Resolver) reportPools() {
	r.mu.Lock()
	draining := len(r.draining)
	r.mu.Unlock()
	prometheus.SetTenantPools(r.pools.Len() + draining)
}
