package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/supritimishra/FuelOne-1-sub007/internal/middleware"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
	"github.com/supritimishra/FuelOne-1-sub007/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// entity constrains T to model structs whose pointer implements model.Entity
type entity[T any] interface {
	*T
	model.Entity
}

// Resource serves list/get/create/update/delete of one tenant table
type Resource[T any, P entity[T]] struct {
	// Name is the singular display name used in messages, e.g. "Vendor"
	Name  string
	Order string
	// Filters maps query parameters to equality-filtered columns
	Filters Filters
}

// NewResource creates a resource ordered by newest first
func NewResource[T any, P entity[T]](name string, filters Filters) *Resource[T, P] {
	return &Resource[T, P]{Name: name, Order: "created_at DESC", Filters: filters}
}

// Register mounts the five routes of the resource on g
func (r *Resource[T, P]) Register(g *echo.Group) {
	g.GET("", r.List)
	g.GET("/:id", r.Get)
	g.POST("", r.Create)
	g.PUT("/:id", r.Update)
	g.DELETE("/:id", r.Delete)
}

func tenantDB(c echo.Context) *gorm.DB {
	return middleware.TenantDB(c).WithContext(c.Request().Context())
}

// List handles retrieving all rows with optional filtering
func (r *Resource[T, P]) List(c echo.Context) error {
	log := logger.FromContext(c)

	query, err := r.Filters.Apply(c, tenantDB(c).Order(r.Order))
	if err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("list")()
	items := []T{}
	if err := query.Find(&items).Error; err != nil {
		log.Error("Failed to list rows", zap.String("resource", r.Name), zap.Error(err))
		return failure(c, http.StatusInternalServerError, err.Error())
	}

	log.Debug("Rows retrieved", zap.String("resource", r.Name), zap.Int("count", len(items)))
	return success(c, http.StatusOK, items)
}

func (r *Resource[T, P]) find(c echo.Context, id string) (*T, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var item T
	if err := tenantDB(c).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[T, P]) notFoundOr500(c echo.Context, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failure(c, http.StatusNotFound, r.Name+" not found")
	}
	logger.FromContext(c).Error("Database error", zap.String("resource", r.Name), zap.Error(err))
	return failure(c, http.StatusInternalServerError, err.Error())
}

// Get handles retrieving one row by id
func (r *Resource[T, P]) Get(c echo.Context) error {
	defer prometheus.TrackDBOperation("get")()
	item, err := r.find(c, c.Param("id"))
	if err != nil {
		return r.notFoundOr500(c, err)
	}
	return success(c, http.StatusOK, item)
}

// bind decodes and checks a request body. Server-owned fields are cleared.
func (r *Resource[T, P]) bind(c echo.Context) (P, error) {
	var item T
	p := P(&item)
	if err := c.Bind(p); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request data: "+err.Error())
	}
	p.Reset()
	if err := c.Validate(p); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if checker, ok := any(p).(model.Checker); ok {
		if err := checker.Check(); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if preparer, ok := any(p).(model.Preparer); ok {
		preparer.Prepare()
	}
	return p, nil
}

func badRequest(c echo.Context, log *zap.Logger, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		log.Warn("Rejected request", zap.Any("reason", he.Message))
		return failure(c, he.Code, fmt.Sprint(he.Message))
	}
	return failure(c, http.StatusBadRequest, err.Error())
}

// Create handles creating a row
func (r *Resource[T, P]) Create(c echo.Context) error {
	log := logger.FromContext(c)

	item, err := r.bind(c)
	if err != nil {
		return badRequest(c, log, err)
	}

	defer prometheus.TrackDBOperation("insert")()
	if err := tenantDB(c).Create(item).Error; err != nil {
		log.Error("Failed to create row", zap.String("resource", r.Name), zap.Error(err))
		return failure(c, http.StatusInternalServerError, err.Error())
	}

	log.Info("Row created", zap.String("resource", r.Name), zap.String("id", item.PrimaryKey()))
	return success(c, http.StatusCreated, item)
}

// Update handles replacing a row. Every client-owned column is written,
// so omitted fields are reset to their zero value.
func (r *Resource[T, P]) Update(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	existing, err := r.find(c, id)
	if err != nil {
		return r.notFoundOr500(c, err)
	}

	incoming, err := r.bind(c)
	if err != nil {
		return badRequest(c, log, err)
	}

	defer prometheus.TrackDBOperation("update")()
	err = tenantDB(c).Model(P(existing)).
		Select("*").
		Omit("id", "created_at", "deleted_at").
		Updates(incoming).Error
	if err != nil {
		log.Error("Failed to update row", zap.String("resource", r.Name), zap.String("id", id), zap.Error(err))
		return failure(c, http.StatusInternalServerError, err.Error())
	}

	updated, err := r.find(c, id)
	if err != nil {
		return r.notFoundOr500(c, err)
	}

	log.Info("Row updated", zap.String("resource", r.Name), zap.String("id", id))
	return success(c, http.StatusOK, updated)
}

// Delete handles soft-deleting a row. Unknown and already deleted ids
// yield 404.
func (r *Resource[T, P]) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return failure(c, http.StatusNotFound, r.Name+" not found")
	}

	defer prometheus.TrackDBOperation("delete")()
	result := tenantDB(c).Where("id = ?", id).Delete(P(new(T)))
	if result.Error != nil {
		log.Error("Failed to delete row", zap.String("resource", r.Name), zap.String("id", id), zap.Error(result.Error))
		return failure(c, http.StatusInternalServerError, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return failure(c, http.StatusNotFound, r.Name+" not found")
	}

	log.Info("Row deleted", zap.String("resource", r.Name), zap.String("id", id))
	return success(c, http.StatusOK, echo.Map{"id": id})
}
