package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/supritimishra/FuelOne-1-sub007/internal/app"
	"github.com/supritimishra/FuelOne-1-sub007/internal/handler"
	"github.com/supritimishra/FuelOne-1-sub007/internal/retention"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/jwtutil"
	"go.uber.org/zap"
)

func main() {
	// Load configuration and initialize logger
	conf, log, err := app.Init("fuelone-api")
	if err != nil {
		fmt.Printf("Error starting: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log.Info("Configuration loaded", conf.LogFields()...)

	a, err := app.New(conf, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	var scheduler *retention.Scheduler
	if conf.Retention.Enabled {
		scheduler, err = retention.NewScheduler(conf.Retention.Schedule, a.Retention, log.Named("retention"))
		if err != nil {
			log.Fatal("Failed to schedule retention job", zap.Error(err))
		}
		scheduler.Start()
		log.Info("Retention job scheduled", zap.String("schedule", conf.Retention.Schedule))
	}

	// Initialize JWT utility
	tokens := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})

	e := handler.NewServer(handler.Deps{
		ServiceName: conf.ServiceName,
		Master:      a.Master,
		Resolver:    a.Resolver,
		Tokens:      tokens,
		Developer: handler.DeveloperCredentials{
			Email:        conf.Developer.Email,
			PasswordHash: conf.Developer.PasswordHash,
		},
		Migrations: a.Migrations,
		Retention:  a.Retention,
		Logger:     log,
	})

	// Start server
	go func() {
		log.Info("Starting fuelone-api on port " + conf.Server.Port)
		if err := e.Start(":" + conf.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	if err := e.Shutdown(ctx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := a.Close(); err != nil {
		log.Error("Closing databases failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
