package handler

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/supritimishra/FuelOne-1-sub007/internal/middleware"
	"github.com/supritimishra/FuelOne-1-sub007/internal/migration"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/internal/retention"
	"github.com/supritimishra/FuelOne-1-sub007/internal/tenancy"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/jwtutil"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
	"github.com/supritimishra/FuelOne-1-sub007/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the services the HTTP API is built on
type Deps struct {
	ServiceName string
	Master      *gorm.DB
	Resolver    *tenancy.Resolver
	Tokens      *jwtutil.JWTUtil
	Developer   DeveloperCredentials
	Migrations  *migration.Runner
	Retention   retention.Runner
	Logger      *zap.Logger
}

// NewServer builds the Echo instance with middlewares and every route
func NewServer(d Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = logger.GetLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(d.Logger))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", HealthCheck(d.ServiceName, d.Master))
	e.GET("/metrics", MetricsHandler)

	developer := NewDeveloper(d.Master, d.Resolver, d.Tokens, d.Developer, d.Migrations, d.Retention)
	e.POST("/api/developer/login", developer.Login)

	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware(d.Tokens))

	// Developer-mode administration, any tenant
	dev := api.Group("/developer")
	dev.Use(middleware.RequireRole(jwtutil.RoleDeveloper))
	dev.GET("/tenants", developer.ListTenants)
	dev.GET("/tenants/:tenant_id", developer.GetTenant)
	dev.GET("/tenants/:tenant_id/migrations", developer.TenantMigrations)
	dev.GET("/tenants/:tenant_id/users/:user_id/features", developer.UserFeatures)
	dev.PUT("/tenants/:tenant_id/users/:user_id/features/:feature_key", developer.SetUserFeature)
	dev.DELETE("/tenants/:tenant_id/users/:user_id/features/:feature_key", developer.ClearUserFeature)
	dev.GET("/audit-logs", developer.AuditLogs)
	dev.POST("/retention/run", developer.RunRetention)

	// Tenant-scoped routes - the caller's tenant database is resolved first
	tenant := api.Group("", middleware.TenantContext(d.Resolver))
	tenant.GET("/tenant", CurrentTenant)
	tenant.GET("/features", MyFeatures)

	policies := NewRetentionPolicies(d.Master)
	tenant.GET("/retention-policies", policies.List)
	tenant.POST("/retention-policies", policies.Create)
	tenant.DELETE("/retention-policies/:id", policies.Delete)

	NewResource[model.FuelProduct, *model.FuelProduct]("Fuel product", Filters{
		"category":  Text("category"),
		"is_active": Flag("is_active"),
	}).Register(tenant.Group("/fuel-products"))
	NewResource[model.Employee, *model.Employee]("Employee", Filters{
		"designation": Text("designation"),
		"is_active":   Flag("is_active"),
	}).Register(tenant.Group("/employees"))
	NewResource[model.Vendor, *model.Vendor]("Vendor", Filters{
		"vendor_type": Text("vendor_type"),
		"is_active":   Flag("is_active"),
	}).Register(tenant.Group("/vendors"))
	NewResource[model.CreditCustomer, *model.CreditCustomer]("Credit customer", Filters{
		"is_active": Flag("is_active"),
	}).Register(tenant.Group("/credit-customers"))
	NewResource[model.ExpenseType, *model.ExpenseType]("Expense type", Filters{
		"effect_for": Text("effect_for"),
		"is_active":  Flag("is_active"),
	}).Register(tenant.Group("/expense-types"))
	NewResource[model.Tank, *model.Tank]("Tank", Filters{
		"fuel_product_id": Text("fuel_product_id"),
		"is_active":       Flag("is_active"),
	}).Register(tenant.Group("/tanks"))
	NewResource[model.Nozzle, *model.Nozzle]("Nozzle", Filters{
		"tank_id":         Text("tank_id"),
		"fuel_product_id": Text("fuel_product_id"),
		"is_active":       Flag("is_active"),
	}).Register(tenant.Group("/nozzles"))
	NewResource[model.DailySaleRate, *model.DailySaleRate]("Daily sale rate", Filters{
		"rate_date":       OnDate("rate_date"),
		"fuel_product_id": Text("fuel_product_id"),
	}).Register(tenant.Group("/daily-sale-rates"))
	NewResource[model.SaleEntry, *model.SaleEntry]("Sale entry", Filters{
		"sale_date": OnDate("sale_date"),
		"shift":     Text("shift"),
		"nozzle_id": Text("nozzle_id"),
	}).Register(tenant.Group("/sale-entries"))
	NewResource[model.SheetRecord, *model.SheetRecord]("Sheet record", Filters{
		"record_date": OnDate("record_date"),
	}).Register(tenant.Group("/sheet-records"))
	NewSwipeMachines().Register(tenant.Group("/swipe-machines"))

	return e
}
