// Package app wires the stores and background services shared by the API
// server and the operator CLI.
package app

import (
	"errors"
	"fmt"

	"github.com/supritimishra/FuelOne-1-sub007/internal/migration"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/internal/retention"
	"github.com/supritimishra/FuelOne-1-sub007/internal/tenancy"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/config"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/database"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the opened master store and the services built on it
type App struct {
	Config     *config.Config
	Log        *zap.Logger
	Master     *gorm.DB
	Resolver   *tenancy.Resolver
	Migrations *migration.Runner
	Retention  *retention.Job
}

// Init loads configuration and initializes the global logger
func Init(serviceName string) (*config.Config, *zap.Logger, error) {
	conf, err := config.Load(serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	return conf, logger.GetLogger(), nil
}

// New opens the master database, migrates its schema and builds the tenant
// resolver, migration runner and retention job.
func New(conf *config.Config, log *zap.Logger) (*App, error) {
	master, err := database.Open(conf.Master.URL, database.PoolConfig{
		MaxIdleConns:    conf.Master.MaxIdleConns,
		MaxOpenConns:    conf.Master.MaxOpenConns,
		ConnMaxLifetime: conf.Master.ConnMaxLifetime,
		LogLevel:        conf.Master.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("open master database: %w", err)
	}
	log.Info("Master database connected", zap.String("database_url", config.MaskDSN(conf.Master.URL)))

	if err := master.AutoMigrate(model.MasterModels()...); err != nil {
		_ = database.Close(master)
		return nil, fmt.Errorf("migrate master models: %w", err)
	}

	resolver := tenancy.NewResolver(master,
		tenancy.Config{
			Size:       conf.TenantPool.Size,
			TTL:        conf.TenantPool.TTL,
			CloseGrace: conf.TenantPool.CloseGrace,
		},
		tenancy.WithLogger(log.Named("tenancy")),
		tenancy.WithOpener(tenancy.PostgresOpener(database.PoolConfig{
			MaxIdleConns:    conf.TenantPool.MaxIdleConns,
			MaxOpenConns:    conf.TenantPool.MaxOpenConns,
			ConnMaxLifetime: conf.TenantPool.ConnMaxLifetime,
			LogLevel:        conf.Master.LogLevel,
		})),
	)

	return &App{
		Config:     conf,
		Log:        log,
		Master:     master,
		Resolver:   resolver,
		Migrations: migration.NewRunner(master, resolver, conf.Migration.Concurrency, log.Named("migration")),
		Retention:  retention.NewJob(master, resolver, retention.NewAdvisoryLocker(master), log.Named("retention")),
	}, nil
}

// Close releases tenant pools, then the master pool
func (a *App) Close() error {
	return errors.Join(a.Resolver.Close(), database.Close(a.Master))
}
