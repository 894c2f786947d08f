package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
	"github.com/supritimishra/FuelOne-1-sub007/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SwipeMachines serves swipe machines; reads include the linked vendor name
type SwipeMachines struct {
	*Resource[model.SwipeMachine, *model.SwipeMachine]
}

// NewSwipeMachines creates the swipe machine resource
func NewSwipeMachines() *SwipeMachines {
	return &SwipeMachines{
		Resource: NewResource[model.SwipeMachine, *model.SwipeMachine]("Swipe machine", Filters{
			"vendor_id":    Text("swipe_machines.vendor_id"),
			"machine_type": Text("swipe_machines.machine_type"),
			"is_active":    Flag("swipe_machines.is_active"),
		}),
	}
}

// Register mounts the routes, replacing the plain reads with joined ones
func (s *SwipeMachines) Register(g *echo.Group) {
	g.GET("", s.List)
	g.GET("/:id", s.Get)
	g.POST("", s.Create)
	g.PUT("/:id", s.Update)
	g.DELETE("/:id", s.Delete)
}

func (s *SwipeMachines) joined(c echo.Context) *gorm.DB {
	return tenantDB(c).
		Table("swipe_machines").
		Select("swipe_machines.*, vendors.vendor_name AS vendor_name").
		Joins("LEFT JOIN vendors ON vendors.id = swipe_machines.vendor_id AND vendors.deleted_at IS NULL").
		Where("swipe_machines.deleted_at IS NULL")
}

// List handles retrieving all swipe machines with their vendor names
func (s *SwipeMachines) List(c echo.Context) error {
	log := logger.FromContext(c)

	query, err := s.Filters.Apply(c, s.joined(c).Order("swipe_machines.created_at DESC"))
	if err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("list")()
	items := []model.SwipeMachineView{}
	if err := query.Scan(&items).Error; err != nil {
		log.Error("Failed to list swipe machines", zap.Error(err))
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, items)
}

// Get handles retrieving one swipe machine with its vendor name
func (s *SwipeMachines) Get(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return failure(c, http.StatusNotFound, s.Name+" not found")
	}

	defer prometheus.TrackDBOperation("get")()
	var item model.SwipeMachineView
	err := s.joined(c).Where("swipe_machines.id = ?", id).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failure(c, http.StatusNotFound, s.Name+" not found")
	}
	if err != nil {
		logger.FromContext(c).Error("Failed to get swipe machine", zap.String("id", id), zap.Error(err))
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, item)
}
