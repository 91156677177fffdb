package main

import (
	"delivery-sequencing-service/internal/adapters/repositories"
	"delivery-sequencing-service/internal/config"
	"delivery-sequencing-service/internal/platform/db"
	"delivery-sequencing-service/internal/platform/logging"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "dbtool",
		Short:         "Manage the delivery sequencing database",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
		},
	}
	root.PersistentFlags().StringVar(&cfg.DBDriver, "driver", cfg.DBDriver, `database driver ("sqlite" or "pgx")`)
	root.PersistentFlags().StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "database URL or sqlite file path")

	root.AddCommand(newMigrateCmd(cfg), newSeedCmd(cfg))
	return root
}

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			slog.Info("initializing database schema")
			if err := repositories.InitSchema(ctx, conn); err != nil {
				return err
			}
			slog.Info("schema ready")
			return nil
		},
	}
}

func newSeedCmd(cfg *config.Config) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reservations from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := repositories.InitSchema(ctx, conn); err != nil {
				return err
			}

			slog.Info("seeding reservations", "file", file)
			n, err := repositories.SeedFromJSON(ctx, conn, file)
			if err != nil {
				return err
			}
			slog.Info("seeding complete", "count", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.SeedPath, "path to the reservations JSON file")
	return cmd
}
