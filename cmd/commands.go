package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/config"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/database"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	nuts "github.com/vaudience/go-nuts"
	"go.uber.org/fx"
)

const (
	startTimeout = 30 * time.Second
	stopTimeout  = 30 * time.Second
)

var noBanner bool

var rootCmd = &cobra.Command{
	Use:   "geosensor",
	Short: "Sensor registry, telemetry cache and proximity search",
	Long: `geosensor keeps sensor identity in PostgreSQL, the latest readings in Redis
and static attributes with a GeoJSON location in MongoDB, and serves them over HTTP.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !noBanner {
			ClearConsole()
			DrawLogo()
		}
		nuts.L.Infof("[Main] Starting Geosensor v%s", nuts.GetVersion())

		app := fx.New(serverModule())

		startCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		if err := app.Start(startCtx); err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
		defer stopCancel()
		return app.Stop(stopCtx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the relational schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *database.Migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			nuts.L.Infof("[Migrate] Schema is up to date")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *database.Migrator) error {
			return m.Down()
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *database.Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noBanner, "no-banner", false, "Do not clear the console and draw the logo")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func withMigrator(ctx context.Context, fn func(m *database.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	db, err := database.NewPostgresDB(connectCtx, cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(database.NewMigrator(db))
}

// loadEnv loads the first .env found in the working directory or its parents.
func loadEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				nuts.L.Infof("[Main] Loaded environment from %s", path)
			}
			return
		}
		dir = filepath.Dir(dir)
	}
}
