package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/labstack/echo/v4"
	"github.com/supritimishra/FuelOne-1-sub007/internal/features"
	"github.com/supritimishra/FuelOne-1-sub007/internal/middleware"
	"github.com/supritimishra/FuelOne-1-sub007/internal/migration"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/internal/retention"
	"github.com/supritimishra/FuelOne-1-sub007/internal/tenancy"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/jwtutil"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
	"github.com/supritimishra/FuelOne-1-sub007/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DeveloperCredentials is the single developer-mode login
type DeveloperCredentials struct {
	Email        string
	PasswordHash string
}

// Tenants reads tenants and their databases without the active check
type Tenants interface {
	LookupTenant(ctx context.Context, tenantID string) (*model.Tenant, error)
	Open(tenant *model.Tenant) (*gorm.DB, error)
}

// MigrationStatus reports the migration state of a tenant database
type MigrationStatus interface {
	Status(ctx context.Context, db *gorm.DB) (*migration.Status, error)
}

// Developer serves developer-mode administration
type Developer struct {
	master      *gorm.DB
	tenants     Tenants
	tokens      *jwtutil.JWTUtil
	credentials DeveloperCredentials
	admin       *features.Admin
	migrations  MigrationStatus
	retention   retention.Runner
}

// NewDeveloper creates the developer-mode handler
func NewDeveloper(master *gorm.DB, tenants Tenants, tokens *jwtutil.JWTUtil, credentials DeveloperCredentials,
	migrations MigrationStatus, runner retention.Runner) *Developer {
	return &Developer{
		master:      master,
		tenants:     tenants,
		tokens:      tokens,
		credentials: credentials,
		admin:       features.NewAdmin(master),
		migrations:  migrations,
		retention:   runner,
	}
}

// Login handles the developer password login
func (h *Developer) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return failure(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return failure(c, http.StatusBadRequest, err.Error())
	}

	if h.credentials.Email == "" || h.credentials.PasswordHash == "" {
		log.Warn("Developer login attempted but developer mode is not configured")
		return failure(c, http.StatusServiceUnavailable, "developer mode is not configured")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != h.credentials.Email {
		log.Warn("Developer login with unknown email", zap.String("email", email))
		prometheus.RecordAuthError("login_failure")
		return failure(c, http.StatusUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.credentials.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Developer login with invalid password", zap.String("email", email))
		prometheus.RecordAuthError("login_failure")
		return failure(c, http.StatusUnauthorized, "invalid credentials")
	}

	token, err := h.tokens.GenerateToken("developer:"+email, email, "", jwtutil.RoleDeveloper)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return failure(c, http.StatusInternalServerError, "failed to generate token")
	}

	prometheus.RecordDeveloperAction("login")
	log.Info("Developer logged in", zap.String("email", email))
	return success(c, http.StatusOK, echo.Map{
		"token": token,
		"email": email,
		"role":  jwtutil.RoleDeveloper,
	})
}

// ListTenants handles listing the tenant registry
func (h *Developer) ListTenants(c echo.Context) error {
	query := h.master.WithContext(c.Request().Context()).Order("created_at")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	tenants := []model.Tenant{}
	if err := query.Find(&tenants).Error; err != nil {
		logger.FromContext(c).Error("Failed to list tenants", zap.Error(err))
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, tenants)
}

func tenantFailure(c echo.Context, err error) error {
	he := middleware.TenantError(err)
	return failure(c, he.Code, fmt.Sprint(he.Message))
}

// GetTenant handles retrieving one tenant with its logins
func (h *Developer) GetTenant(c echo.Context) error {
	ctx := c.Request().Context()
	tenant, err := h.tenants.LookupTenant(ctx, c.Param("tenant_id"))
	if err != nil {
		return tenantFailure(c, err)
	}

	users := []model.TenantUser{}
	if err := h.master.WithContext(ctx).Where("tenant_id = ?", tenant.ID).Order("id").Find(&users).Error; err != nil {
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{
		"tenant": tenant,
		"users":  users,
	})
}

func (h *Developer) tenantDB(c echo.Context) (*model.Tenant, *gorm.DB, error) {
	tenant, err := h.tenants.LookupTenant(c.Request().Context(), c.Param("tenant_id"))
	if err != nil {
		return nil, nil, err
	}
	db, err := h.tenants.Open(tenant)
	if err != nil {
		return nil, nil, err
	}
	return tenant, db.WithContext(c.Request().Context()), nil
}

// TenantMigrations handles reporting applied and pending migrations
func (h *Developer) TenantMigrations(c echo.Context) error {
	_, db, err := h.tenantDB(c)
	if err != nil {
		return tenantFailure(c, err)
	}
	st, err := h.migrations.Status(c.Request().Context(), db)
	if err != nil {
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, st)
}

// UserFeatures handles computing the effective flags of any tenant user
func (h *Developer) UserFeatures(c echo.Context) error {
	_, db, err := h.tenantDB(c)
	if err != nil {
		return tenantFailure(c, err)
	}
	return success(c, http.StatusOK, features.ForUser(c.Request().Context(), db, c.Param("user_id")))
}

func (h *Developer) actor(c echo.Context, tenant *model.Tenant) features.Actor {
	return features.Actor{DeveloperEmail: middleware.Claims(c).Email, TenantID: tenant.ID}
}

func featureFailure(c echo.Context, err error) error {
	if errors.Is(err, features.ErrUnknownFeature) {
		return failure(c, http.StatusNotFound, err.Error())
	}
	logger.FromContext(c).Error("Feature override failed", zap.Error(err))
	return failure(c, http.StatusInternalServerError, err.Error())
}

// SetUserFeature handles creating or replacing a feature override
func (h *Developer) SetUserFeature(c echo.Context) error {
	var req struct {
		Allowed *bool `json:"allowed" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return failure(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return failure(c, http.StatusBadRequest, err.Error())
	}

	tenant, db, err := h.tenantDB(c)
	if err != nil {
		return tenantFailure(c, err)
	}

	userID, key := c.Param("user_id"), c.Param("feature_key")
	access, err := h.admin.SetOverride(c.Request().Context(), db, h.actor(c, tenant), userID, key, *req.Allowed)
	if err != nil {
		return featureFailure(c, err)
	}

	logger.FromContext(c).Info("Feature override set",
		zap.String("target_user_id", userID),
		zap.String("feature_key", key),
		zap.Bool("allowed", *req.Allowed))
	return success(c, http.StatusOK, access)
}

// ClearUserFeature handles removing a feature override
func (h *Developer) ClearUserFeature(c echo.Context) error {
	tenant, db, err := h.tenantDB(c)
	if err != nil {
		return tenantFailure(c, err)
	}

	userID, key := c.Param("user_id"), c.Param("feature_key")
	existed, err := h.admin.ClearOverride(c.Request().Context(), db, h.actor(c, tenant), userID, key)
	if err != nil {
		return featureFailure(c, err)
	}
	if !existed {
		return failure(c, http.StatusNotFound, "Feature override not found")
	}
	return success(c, http.StatusOK, echo.Map{"user_id": userID, "feature_key": key})
}

// AuditLogs handles listing developer audit entries, newest first
func (h *Developer) AuditLogs(c echo.Context) error {
	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return failure(c, http.StatusBadRequest, "invalid limit parameter")
		}
		limit = min(n, 500)
	}

	query := h.master.WithContext(c.Request().Context()).Order("id DESC").Limit(limit)
	if tenantID := c.QueryParam("tenant_id"); tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}

	logs := []model.DeveloperAuditLog{}
	if err := query.Find(&logs).Error; err != nil {
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, logs)
}

// RunRetention handles triggering a cleanup run outside the schedule.
// Policy failures are reported inside the result.
func (h *Developer) RunRetention(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	report, err := h.retention.Run(ctx)
	if errors.Is(err, retention.ErrAlreadyRunning) {
		return failure(c, http.StatusConflict, err.Error())
	}
	var merr *multierror.Error
	if err != nil && !errors.As(err, &merr) {
		log.Error("Retention run failed", zap.Error(err))
		return failure(c, http.StatusInternalServerError, err.Error())
	}

	details, _ := json.Marshal(echo.Map{"policies": len(report.Policies), "failed": failedPolicies(report)})
	entry := model.DeveloperAuditLog{
		DeveloperEmail: middleware.Claims(c).Email,
		Action:         model.AuditRunRetention,
		Details:        string(details),
	}
	if err := h.master.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Error("Failed to record audit log", zap.Error(err))
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	prometheus.RecordDeveloperAction(model.AuditRunRetention)

	return success(c, http.StatusOK, report)
}

func failedPolicies(report *retention.Report) int {
	n := 0
	for _, p := range report.Policies {
		if p.Error != "" {
			n++
		}
	}
	return n
}

var _ Tenants = (*tenancy.Resolver)(nil)
