package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownFeature is returned when a feature key is not in the tenant catalog
var ErrUnknownFeature = errors.New("feature not found in catalog")

// Feature is the effective state of one flag for a user
type Feature struct {
	Key        string `json:"feature_key"`
	Label      string `json:"label"`
	Enabled    bool   `json:"enabled"`
	Default    bool   `json:"default_enabled"`
	Overridden bool   `json:"overridden"`
}

// Result is the effective flag set of a user. Fallback is set when the
// built-in list was used instead of the tenant catalog; Error then carries
// the query failure, if any.
type Result struct {
	UserID   string    `json:"user_id"`
	Features []Feature `json:"features"`
	Fallback bool      `json:"fallback"`
	Error    string    `json:"error,omitempty"`
	Missing  []string  `json:"missing,omitempty"`
}

// Enabled reports whether a feature is on in the result
func (r *Result) Enabled(key string) bool {
	for _, f := range r.Features {
		if f.Key == key {
			return f.Enabled
		}
	}
	return false
}

// Effective overlays overrides on the catalog. Overrides for features
// outside the catalog are ignored.
func Effective(catalog []model.FeaturePermission, overrides []model.UserFeatureAccess) []Feature {
	byFeature := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		byFeature[o.FeatureID] = o.Allowed
	}

	out := make([]Feature, 0, len(catalog))
	for _, p := range catalog {
		f := Feature{
			Key:     p.FeatureKey,
			Label:   p.Label,
			Enabled: p.DefaultEnabled,
			Default: p.DefaultEnabled,
		}
		if allowed, ok := byFeature[p.ID]; ok {
			f.Enabled = allowed
			f.Overridden = true
		}
		out = append(out, f)
	}
	return out
}

func fallback(userID string, err error) *Result {
	res := &Result{UserID: userID, Fallback: true}
	for _, d := range Defaults() {
		res.Features = append(res.Features, Feature{
			Key:     d.Key,
			Label:   d.Label,
			Enabled: d.DefaultEnabled,
			Default: d.DefaultEnabled,
		})
	}
	if err != nil {
		res.Error = err.Error()
		prometheus.RecordFeatureFallback("error")
	} else {
		prometheus.RecordFeatureFallback("empty_catalog")
	}
	return res
}

// ForUser computes the effective flags of a user in a tenant database. It
// never fails: query errors and an empty catalog yield the built-in list,
// and built-in features absent from a partial catalog are added with their
// default state.
func ForUser(ctx context.Context, db *gorm.DB, userID string) *Result {
	var catalog []model.FeaturePermission
	if err := db.WithContext(ctx).Order("feature_key").Find(&catalog).Error; err != nil {
		return fallback(userID, err)
	}
	if len(catalog) == 0 {
		return fallback(userID, nil)
	}

	var overrides []model.UserFeatureAccess
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&overrides).Error; err != nil {
		return fallback(userID, err)
	}

	res := &Result{UserID: userID, Features: Effective(catalog, overrides)}
	for _, d := range missingDefaults(catalog) {
		res.Features = append(res.Features, Feature{
			Key:     d.Key,
			Label:   d.Label,
			Enabled: d.DefaultEnabled,
			Default: d.DefaultEnabled,
		})
		res.Missing = append(res.Missing, d.Key)
	}
	if len(res.Missing) > 0 {
		prometheus.RecordFeatureFallback("incomplete_catalog")
	}
	return res
}

// missingDefaults lists the built-in definitions absent from catalog, by key
func missingDefaults(catalog []model.FeaturePermission) []Definition {
	present := make(map[string]bool, len(catalog))
	for _, p := range catalog {
		present[p.FeatureKey] = true
	}
	var missing []Definition
	for _, d := range Defaults() {
		if !present[d.Key] {
			missing = append(missing, d)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Key < missing[j].Key })
	return missing
}

// Admin applies developer-mode override changes and records them in the
// master audit log.
type Admin struct {
	master *gorm.DB
}

// NewAdmin creates an override admin writing audit rows to master
func NewAdmin(master *gorm.DB) *Admin {
	return &Admin{master: master}
}

// Actor identifies who changes an override and in which tenant
type Actor struct {
	DeveloperEmail string
	TenantID       string
}

func lookupFeature(ctx context.Context, db *gorm.DB, key string) (*model.FeaturePermission, error) {
	var p model.FeaturePermission
	err := db.WithContext(ctx).Where("feature_key = ?", key).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownFeature
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetOverride creates or replaces the override of one feature for a user
func (a *Admin) SetOverride(ctx context.Context, db *gorm.DB, actor Actor, userID, key string, allowed bool) (*model.UserFeatureAccess, error) {
	p, err := lookupFeature(ctx, db, key)
	if err != nil {
		return nil, err
	}

	access := &model.UserFeatureAccess{UserID: userID, FeatureID: p.ID, Allowed: allowed}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "feature_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"allowed", "updated_at"}),
	}).Create(access).Error
	if err != nil {
		return nil, fmt.Errorf("save override: %w", err)
	}

	details, _ := json.Marshal(map[string]bool{"allowed": allowed})
	if err := a.audit(ctx, actor, model.AuditSetFeatureOverride, userID, key, string(details)); err != nil {
		return access, err
	}
	return access, nil
}

// ClearOverride removes the override of one feature for a user. It reports
// whether an override existed.
func (a *Admin) ClearOverride(ctx context.Context, db *gorm.DB, actor Actor, userID, key string) (bool, error) {
	p, err := lookupFeature(ctx, db, key)
	if err != nil {
		return false, err
	}

	result := db.WithContext(ctx).
		Where("user_id = ? AND feature_id = ?", userID, p.ID).
		Delete(&model.UserFeatureAccess{})
	if result.Error != nil {
		return false, fmt.Errorf("delete override: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	return true, a.audit(ctx, actor, model.AuditClearFeatureOverride, userID, key, "")
}

func (a *Admin) audit(ctx context.Context, actor Actor, action, userID, key, details string) error {
	entry := model.DeveloperAuditLog{
		DeveloperEmail: actor.DeveloperEmail,
		Action:         action,
		TenantID:       actor.TenantID,
		TargetUserID:   userID,
		FeatureKey:     key,
		Details:        details,
	}
	if err := a.master.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("record audit log: %w", err)
	}
	prometheus.RecordDeveloperAction(action)
	return nil
}
