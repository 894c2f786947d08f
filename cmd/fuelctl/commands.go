package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/supritimishra/FuelOne-1-sub007/internal/legacy"
	"github.com/supritimishra/FuelOne-1-sub007/internal/migration"
	"github.com/supritimishra/FuelOne-1-sub007/internal/tenancy"
	"go.uber.org/zap"
)

func (c *cli) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect tenant database migrations",
	}

	var (
		tenantID    string
		concurrency int
	)
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations to one or all tenant databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := c.app.Migrations
			if concurrency > 0 {
				runner = migration.NewRunner(c.app.Master, c.app.Resolver, concurrency, c.app.Log.Named("migration"))
			}
			report, err := runner.Run(cmd.Context(), tenantID)
			if report != nil {
				if perr := printJSON(cmd, report); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	up.Flags().StringVar(&tenantID, "tenant", "", "Migrate only this tenant id")
	up.Flags().IntVar(&concurrency, "concurrency", 0, "Tenants migrated in parallel (default MIGRATION_CONCURRENCY)")

	var statusTenant string
	status := &cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations of a tenant database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tenant, err := c.app.Resolver.LookupTenant(ctx, statusTenant)
			if err != nil {
				return err
			}
			db, err := c.app.Resolver.Open(tenant)
			if err != nil {
				return err
			}
			st, err := c.app.Migrations.Status(ctx, db.WithContext(ctx))
			if err != nil {
				return err
			}
			return printJSON(cmd, st)
		},
	}
	status.Flags().StringVar(&statusTenant, "tenant", "", "Tenant id")
	_ = status.MarkFlagRequired("tenant")

	cmd.AddCommand(up, status)
	return cmd
}

func (c *cli) importLegacyCommand() *cobra.Command {
	var (
		tenantID       string
		legacyTenantID string
		collections    string
	)
	cmd := &cobra.Command{
		Use:   "import-legacy",
		Short: "Copy a tenant's MongoDB documents into its PostgreSQL database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := c.app.Log.Named("legacy")
			conf := c.app.Config.Mongo

			tenant, err := c.app.Resolver.LookupTenant(ctx, tenantID)
			if err != nil {
				return err
			}
			db, err := c.app.Resolver.Open(tenant)
			if err != nil {
				return err
			}
			// business tables must exist before rows are copied
			if _, err := c.app.Migrations.Apply(ctx, db.WithContext(ctx)); err != nil {
				return fmt.Errorf("migrate tenant %s: %w", tenant.ID, err)
			}

			source, err := legacy.Connect(ctx, conf.URI, conf.Database, conf.Timeout)
			if err != nil {
				return err
			}
			defer func() {
				if err := source.Close(context.Background()); err != nil {
					log.Warn("Disconnect from mongodb failed", zap.Error(err))
				}
			}()

			if legacyTenantID == "" {
				legacyTenantID = tenant.ID
			}
			var names []string
			if collections != "" {
				names = strings.Split(collections, ",")
			}

			report, err := legacy.NewImporter(source, log).Import(ctx, db, legacyTenantID, names)
			if report != nil {
				if perr := printJSON(cmd, report); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Target tenant id")
	cmd.Flags().StringVar(&legacyTenantID, "legacy-tenant-id", "", "tenantId of the documents in MongoDB (default the tenant id)")
	cmd.Flags().StringVar(&collections, "collections", "", "Comma separated collections (default all): "+strings.Join(legacy.Collections, ","))
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func (c *cli) retentionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retention",
		Short: "Retention cleanup",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Apply every active retention policy once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.app.Retention.Run(cmd.Context())
			if report != nil {
				if perr := printJSON(cmd, report); perr != nil {
					return perr
				}
			}
			return err
		},
	})
	return cmd
}

func (c *cli) tenantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Inspect the tenant registry",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "lookup ID|EMAIL",
		Short: "Resolve a tenant by id or login email and check its database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				res *tenancy.Resolution
				err error
			)
			if strings.Contains(args[0], "@") {
				res, err = c.app.Resolver.ByUserEmail(ctx, args[0])
			} else {
				res, err = c.app.Resolver.ByTenantID(ctx, args[0])
			}
			if errors.Is(err, tenancy.ErrTenantInactive) && !strings.Contains(args[0], "@") {
				// show inactive tenants without opening their database
				tenant, lerr := c.app.Resolver.LookupTenant(ctx, args[0])
				if lerr == nil {
					_ = printJSON(cmd, tenant)
				}
				return err
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"tenant":   res.Tenant,
				"user":     res.User,
				"database": "reachable",
			})
		},
	})
	return cmd
}
