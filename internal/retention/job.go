// Package retention removes old tenant rows according to the retention
// policies stored in the master database.
package retention

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/internal/tenancy"
	"github.com/supritimishra/FuelOne-1-sub007/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyRunning is returned when another run holds the lock
var ErrAlreadyRunning = errors.New("retention run already in progress")

// ErrUnknownEntity is returned for policies naming a table outside the
// retention-eligible set
var ErrUnknownEntity = errors.New("entity is not eligible for retention")

// TenantResolver finds the database of an active tenant
type TenantResolver interface {
	ByTenantID(ctx context.Context, tenantID string) (*tenancy.Resolution, error)
}

// PolicyResult is the outcome of one policy
type PolicyResult struct {
	PolicyID uint   `json:"policy_id"`
	TenantID string `json:"tenant_id"`
	Entity   string `json:"entity"`
	Action   string `json:"action"`
	Rows     int    `json:"rows"`
	BackupID uint   `json:"backup_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Report is the outcome of a run
type Report struct {
	StartedAt time.Time      `json:"started_at"`
	Policies  []PolicyResult `json:"policies"`
}

// Job applies every active retention policy
type Job struct {
	master   *gorm.DB
	resolver TenantResolver
	locker   Locker
	log      *zap.Logger
	now      func() time.Time
}

// NewJob creates a retention job
func NewJob(master *gorm.DB, resolver TenantResolver, locker Locker, log *zap.Logger) *Job {
	if locker == nil {
		locker = &LocalLocker{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Job{
		master:   master,
		resolver: resolver,
		locker:   locker,
		log:      log,
		now:      time.Now,
	}
}

// Run applies all active policies once. Policy failures are collected in
// the returned multierror and do not stop other policies.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	unlock, ok, err := j.locker.TryLock(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		j.log.Warn("Retention run skipped, another run is in progress")
		return nil, ErrAlreadyRunning
	}
	defer unlock()

	report := &Report{StartedAt: j.now().UTC()}

	var policies []model.UserRetentionPolicy
	if err := j.master.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&policies).Error; err != nil {
		return nil, fmt.Errorf("list retention policies: %w", err)
	}

	var result *multierror.Error
	for i := range policies {
		p := &policies[i]
		res := PolicyResult{PolicyID: p.ID, TenantID: p.TenantID, Entity: p.Entity, Action: p.Action}

		log := j.log.With(
			zap.Uint("policy_id", p.ID),
			zap.String("tenant_id", p.TenantID),
			zap.String("entity", p.Entity))

		rows, backupID, err := j.apply(ctx, p, report.StartedAt)
		res.Rows, res.BackupID = rows, backupID
		if err != nil {
			res.Error = err.Error()
			result = multierror.Append(result, fmt.Errorf("policy %d: %w", p.ID, err))
			log.Error("Retention policy failed", zap.Error(err))
		} else {
			prometheus.RecordRetentionRows(p.Entity, p.Action, rows)
			log.Info("Retention policy applied", zap.String("action", p.Action), zap.Int("rows", rows))
		}
		report.Policies = append(report.Policies, res)
	}

	return report, result.ErrorOrNil()
}

func (j *Job) apply(ctx context.Context, p *model.UserRetentionPolicy, now time.Time) (int, uint, error) {
	newRows, ok := entityRows[p.Entity]
	if !ok || !model.RetentionEntities[p.Entity] {
		return 0, 0, ErrUnknownEntity
	}
	if p.RetentionDays <= 0 {
		return 0, 0, fmt.Errorf("invalid retention_days %d", p.RetentionDays)
	}

	res, err := j.resolver.ByTenantID(ctx, p.TenantID)
	if err != nil {
		return 0, 0, err
	}
	db := res.DB.WithContext(ctx).Unscoped().Session(&gorm.Session{})
	cutoff := now.AddDate(0, 0, -p.RetentionDays)

	var ids []string
	if err := db.Table(p.Entity).Where("created_at < ?", cutoff).Pluck("id", &ids).Error; err != nil {
		return 0, 0, fmt.Errorf("select expired rows: %w", err)
	}

	var backupID uint
	if len(ids) > 0 {
		if p.Action == model.RetentionArchive {
			backupID, err = j.archive(ctx, db, p, ids, newRows())
			if err != nil {
				return 0, 0, err
			}
		}
		if err := db.Exec("DELETE FROM ? WHERE id IN ?", clause.Table{Name: p.Entity}, ids).Error; err != nil {
			return 0, backupID, fmt.Errorf("delete expired rows: %w", err)
		}
	}

	if err := j.master.WithContext(ctx).Model(p).Update("last_run_at", now).Error; err != nil {
		return len(ids), backupID, fmt.Errorf("update last_run_at: %w", err)
	}
	return len(ids), backupID, nil
}

func (j *Job) archive(ctx context.Context, db *gorm.DB, p *model.UserRetentionPolicy, ids []string, rows interface{}) (uint, error) {
	if err := db.Where("id IN ?", ids).Find(rows).Error; err != nil {
		return 0, fmt.Errorf("load expired rows: %w", err)
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return 0, fmt.Errorf("encode backup: %w", err)
	}

	backup := model.UserDataBackup{
		TenantID:    p.TenantID,
		UserID:      p.UserID,
		PolicyID:    p.ID,
		Entity:      p.Entity,
		RecordCount: len(ids),
		Payload:     string(payload),
	}
	if err := j.master.WithContext(ctx).Create(&backup).Error; err != nil {
		return 0, fmt.Errorf("store backup: %w", err)
	}
	return backup.ID, nil
}

var entityRows = map[string]func() interface{}{
	"sale_entries":     func() interface{} { return &[]model.SaleEntry{} },
	"sheet_records":    func() interface{} { return &[]model.SheetRecord{} },
	"daily_sale_rates": func() interface{} { return &[]model.DailySaleRate{} },
}
