package main

import (
	"fmt"

	gormrepo "civico/internal/adapter/repo/gorm"
	"civico/internal/adapter/repo/sqlite"
	"civico/internal/config"
	"civico/migrations"

	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations to the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch cfg.Database.Backend {
			case config.BackendPostgres:
				db, err := gormrepo.OpenPostgres(cfg.Database.DSN)
				if err != nil {
					return fmt.Errorf("open postgres: %w", err)
				}
				if sqlDB, err := db.DB(); err == nil {
					defer sqlDB.Close()
				}
				applied, err := gormrepo.ApplyMigrations(cmd.Context(), db, migrations.FS, migrations.PostgresDir)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(out, "schema up to date")
				}
				for _, v := range applied {
					fmt.Fprintf(out, "applied %s\n", v)
				}
				return nil
			case config.BackendSQLite:
				// Open runs the embedded sqlite schema.
				db, err := sqlite.Open(cmd.Context(), cfg.Database.SQLitePath)
				if err != nil {
					return fmt.Errorf("open sqlite: %w", err)
				}
				fmt.Fprintf(out, "sqlite schema ready at %s\n", cfg.Database.SQLitePath)
				return db.Close()
			default:
				fmt.Fprintln(out, "memory backend has no schema")
				return nil
			}
		},
	}
}
