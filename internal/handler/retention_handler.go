package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/supritimishra/FuelOne-1-sub007/internal/middleware"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RetentionPolicies manages the caller tenant's retention policies, stored
// in the master database
type RetentionPolicies struct {
	master *gorm.DB
}

// NewRetentionPolicies creates the retention policy handler
func NewRetentionPolicies(master *gorm.DB) *RetentionPolicies {
	return &RetentionPolicies{master: master}
}

func (h *RetentionPolicies) db(c echo.Context) *gorm.DB {
	return h.master.WithContext(c.Request().Context())
}

// List handles retrieving the tenant's policies
func (h *RetentionPolicies) List(c echo.Context) error {
	tenant := middleware.Tenant(c)

	policies := []model.UserRetentionPolicy{}
	if err := h.db(c).Where("tenant_id = ?", tenant.ID).Order("id").Find(&policies).Error; err != nil {
		logger.FromContext(c).Error("Failed to list retention policies", zap.Error(err))
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, policies)
}

// Create handles adding a policy for the tenant
func (h *RetentionPolicies) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var policy model.UserRetentionPolicy
	if err := c.Bind(&policy); err != nil {
		return failure(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
	}
	if policy.Action == "" {
		policy.Action = model.RetentionArchive
	}
	if err := c.Validate(&policy); err != nil {
		return failure(c, http.StatusBadRequest, err.Error())
	}
	if !model.RetentionEntities[policy.Entity] {
		return failure(c, http.StatusBadRequest, "entity "+policy.Entity+" is not eligible for retention")
	}

	policy.ID = 0
	policy.TenantID = middleware.Tenant(c).ID
	policy.UserID = middleware.Claims(c).UserID()
	policy.IsActive = true
	policy.LastRunAt = nil

	if err := h.db(c).Create(&policy).Error; err != nil {
		log.Error("Failed to create retention policy", zap.Error(err))
		return failure(c, http.StatusInternalServerError, err.Error())
	}

	log.Info("Retention policy created",
		zap.Uint("policy_id", policy.ID),
		zap.String("entity", policy.Entity),
		zap.Int("retention_days", policy.RetentionDays))
	return success(c, http.StatusCreated, policy)
}

// Delete handles removing one of the tenant's policies
func (h *RetentionPolicies) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return failure(c, http.StatusNotFound, "Retention policy not found")
	}

	result := h.db(c).
		Where("id = ? AND tenant_id = ?", id, middleware.Tenant(c).ID).
		Delete(&model.UserRetentionPolicy{})
	if result.Error != nil {
		return failure(c, http.StatusInternalServerError, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return failure(c, http.StatusNotFound, "Retention policy not found")
	}
	return success(c, http.StatusOK, echo.Map{"id": id})
}
