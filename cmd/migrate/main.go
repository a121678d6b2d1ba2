package main

// Run database migrations:
//   go run ./cmd/migrate up
//   go run ./cmd/migrate down
//   go run ./cmd/migrate status

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/storage/db"
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the cover letter database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var databaseURL string

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (overrides DATABASE_URL)")

	rootCmd.AddCommand(
		migrationCmd("up", "Apply all pending migrations", db.RunMigrations),
		migrationCmd("down", "Roll back the most recent migration", db.RollbackMigration),
		migrationCmd("status", "Print the state of each migration", db.MigrationStatus),
	)
}

func migrationCmd(use, short string, run func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sqlDB, err := connect(ctx)
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := run(ctx, sqlDB); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			return nil
		},
	}
}

func connect(ctx context.Context) (*sql.DB, error) {
	url := databaseURL
	if url == "" {
		url = config.Load().DatabaseURL
	}
	if url == "" {
		return nil, fmt.Errorf("database url is required (set DATABASE_URL or use --database-url)")
	}
	sqlDB, err := db.Connect(ctx, url, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return sqlDB, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
