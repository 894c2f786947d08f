package migration

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/internal/tenancy"
	"github.com/supritimishra/FuelOne-1-sub007/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Opener returns the database of a tenant regardless of its status
type Opener interface {
	Open(tenant *model.Tenant) (*gorm.DB, error)
}

// TenantResult is the outcome of migrating one tenant
type TenantResult struct {
	TenantID     string `json:"tenant_id"`
	Organization string `json:"organization_name"`
	Applied      []int  `json:"applied"`
	Error        string `json:"error,omitempty"`
}

// Report is the outcome of a migration run
type Report struct {
	Tenants []TenantResult `json:"tenants"`
}

// Failed returns the results of tenants that could not be migrated
func (r *Report) Failed() []TenantResult {
	var out []TenantResult
	for _, t := range r.Tenants {
		if t.Error != "" {
			out = append(out, t)
		}
	}
	return out
}

// Runner applies migrations to every tenant database
type Runner struct {
	master      *gorm.DB
	opener      Opener
	migrations  []Migration
	concurrency int
	log         *zap.Logger
	now         func() time.Time
}

// NewRunner creates a runner over the tenants registered in master
func NewRunner(master *gorm.DB, opener Opener, concurrency int, log *zap.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		master:      master,
		opener:      opener,
		migrations:  All,
		concurrency: concurrency,
		log:         log,
		now:         time.Now,
	}
}

// Tenants lists the tenants a run covers: every tenant not deleted, or the
// one given.
func (r *Runner) Tenants(ctx context.Context, tenantID string) ([]model.Tenant, error) {
	query := r.master.WithContext(ctx).Order("created_at")
	if tenantID != "" {
		if _, err := uuid.Parse(tenantID); err != nil {
			return nil, tenancy.ErrTenantNotFound
		}
		query = query.Where("id = ?", tenantID)
	} else {
		query = query.Where("status <> ?", model.TenantStatusDeleted)
	}

	var tenants []model.Tenant
	if err := query.Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	if tenantID != "" && len(tenants) == 0 {
		return nil, tenancy.ErrTenantNotFound
	}
	return tenants, nil
}

// Run migrates the tenants selected by tenantID ("" for all). Failures of
// single tenants are collected into the returned multierror; the report
// always covers every selected tenant.
func (r *Runner) Run(ctx context.Context, tenantID string) (*Report, error) {
	tenants, err := r.Tenants(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	results := make([]TenantResult, len(tenants))
	errs := make([]error, len(tenants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range tenants {
		i, tenant := i, tenants[i]
		g.Go(func() error {
			results[i] = TenantResult{TenantID: tenant.ID, Organization: tenant.OrganizationName}
			applied, err := r.migrateTenant(gctx, &tenant)
			results[i].Applied = applied
			if err != nil {
				results[i].Error = err.Error()
				errs[i] = fmt.Errorf("tenant %s: %w", tenant.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return &Report{Tenants: results}, result.ErrorOrNil()
}

func (r *Runner) migrateTenant(ctx context.Context, tenant *model.Tenant) ([]int, error) {
	log := r.log.With(zap.String("tenant_id", tenant.ID))

	db, err := r.opener.Open(tenant)
	if err != nil {
		prometheus.RecordMigration("failed")
		log.Error("Failed to open tenant database", zap.Error(err))
		return nil, err
	}

	applied, err := r.Apply(ctx, db)
	switch {
	case err != nil:
		prometheus.RecordMigration("failed")
		log.Error("Tenant migration failed", zap.Ints("applied", applied), zap.Error(err))
	case len(applied) == 0:
		prometheus.RecordMigration("up_to_date")
		log.Debug("Tenant schema up to date")
	default:
		prometheus.RecordMigration("applied")
		log.Info("Tenant migrated", zap.Ints("applied", applied))
	}
	return applied, err
}

// Apply runs the pending migrations on one database and returns the
// versions it applied. It stops at the first failing migration.
func (r *Runner) Apply(ctx context.Context, db *gorm.DB) ([]int, error) {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&model.SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	done, err := appliedVersions(db)
	if err != nil {
		return nil, err
	}

	var applied []int
	for _, m := range r.sorted() {
		if done[m.Version] {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&model.SchemaMigration{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: r.now().UTC(),
			}).Error
		})
		if err != nil {
			return applied, fmt.Errorf("migration %d %s: %w", m.Version, m.Name, err)
		}
		applied = append(applied, m.Version)
	}
	return applied, nil
}

// Status is the migration state of one tenant database
type Status struct {
	Applied []model.SchemaMigration `json:"applied"`
	Pending []Pending               `json:"pending"`
}

// Pending is a migration not yet applied
type Pending struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
}

// Status reports applied and pending migrations of a database. A database
// without schema_migrations has every migration pending.
func (r *Runner) Status(ctx context.Context, db *gorm.DB) (*Status, error) {
	db = db.WithContext(ctx)
	st := &Status{Applied: []model.SchemaMigration{}, Pending: []Pending{}}

	if db.Migrator().HasTable(&model.SchemaMigration{}) {
		if err := db.Order("version").Find(&st.Applied).Error; err != nil {
			return nil, fmt.Errorf("read schema_migrations: %w", err)
		}
	}

	done := make(map[int]bool, len(st.Applied))
	for _, a := range st.Applied {
		done[a.Version] = true
	}
	for _, m := range r.sorted() {
		if !done[m.Version] {
			st.Pending = append(st.Pending, Pending{Version: m.Version, Name: m.Name})
		}
	}
	return st, nil
}

func (r *Runner) sorted() []Migration {
	out := append([]Migration(nil), r.migrations...)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

func appliedVersions(db *gorm.DB) (map[int]bool, error) {
	var versions []int
	if err := db.Model(&model.SchemaMigration{}).Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	done := make(map[int]bool, len(versions))
	for _, v := range versions {
		done[v] = true
	}
	return done, nil
}
