package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/halolight/halolight/cmd/haloctl/internal/config"
	"github.com/halolight/halolight/cmd/haloctl/internal/db/bunx"
	"github.com/halolight/halolight/cmd/haloctl/internal/migrations"
	"github.com/halolight/halolight/cmd/haloctl/internal/storage"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long: `Commands for managing the schema of the sqlite and postgres storage
backends. The database is selected by storage.dsn.`,
}

// withMigrator connects to the configured database and hands fn a migrator.
func withMigrator(ctx context.Context, fn func(ctx context.Context, db *bun.DB, m *migrate.Migrator) error) error {
	cfg := config.MustFromContext(ctx)
	if cfg.Storage.Backend != config.BackendSQLite && cfg.Storage.Backend != config.BackendPostgres {
		return fmt.Errorf("db commands need the sqlite or postgres backend (got %s)", cfg.Storage.Backend)
	}

	db, err := bunx.NewDB(ctx, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer bunx.Close(db)

	return fn(ctx, db, migrate.NewMigrator(db, migrations.Migrations))
}

// withLock runs fn while holding the migration lock.
func withLock(ctx context.Context, m *migrate.Migrator, fn func() error) error {
	if err := m.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if err := m.Unlock(ctx); err != nil {
			pterm.Warning.Printf("failed to release migration lock: %v\n", err)
		}
	}()
	return fn()
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize migration tables",
	Long:  `Creates the migration tracking tables in the database. Run this once during initial setup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, db *bun.DB, m *migrate.Migrator) error {
			if err := m.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize migrator: %w", err)
			}
			pterm.Success.Printf("Migration tables initialized (%s)\n", dialectName(db))
			return nil
		})
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Applies all pending migrations with locking to prevent concurrent migrations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, db *bun.DB, m *migrate.Migrator) error {
			if err := m.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize migrator: %w", err)
			}
			return withLock(ctx, m, func() error {
				group, err := m.Migrate(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				if group.IsZero() {
					pterm.Info.Println("No new migrations to apply")
				} else {
					pterm.Success.Printf("Applied migration group %d\n", group.ID)
				}
				return nil
			})
		})
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, db *bun.DB, m *migrate.Migrator) error {
			ms, err := m.MigrationsWithStatus(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			pterm.DefaultSection.Printf("Migrations (%s)\n", dialectName(db))
			for _, mig := range ms {
				status := "pending"
				if mig.GroupID > 0 {
					status = fmt.Sprintf("applied (group %d)", mig.GroupID)
				}
				fmt.Printf("  %s: %s\n", mig.Name, status)
			}
			return nil
		})
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback last migration group",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, db *bun.DB, m *migrate.Migrator) error {
			return withLock(ctx, m, func() error {
				group, err := m.Rollback(ctx)
				if err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				if group.IsZero() {
					pterm.Info.Println("No migrations to rollback")
				} else {
					pterm.Success.Printf("Rolled back migration group %d\n", group.ID)
				}
				return nil
			})
		})
	},
}

var dbUnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Force release migration lock",
	Long:  `Force releases the migration lock. Use this if a migration crashed while holding the lock.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, db *bun.DB, m *migrate.Migrator) error {
			if err := m.Unlock(ctx); err != nil {
				return fmt.Errorf("failed to release migration lock: %w", err)
			}
			pterm.Success.Println("Migration lock released")
			return nil
		})
	},
}

var dbEntriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List stored keys",
	Long:  `Lists the keys held in the key-value table with their last update time and value size.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		return withMigrator(cmd.Context(), func(ctx context.Context, db *bun.DB, _ *migrate.Migrator) error {
			store, err := storage.NewBunStore(ctx, db, cfg.Storage.Timeout)
			if err != nil {
				return err
			}
			entries, err := store.Entries(ctx)
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}
			if len(entries) == 0 {
				pterm.Info.Println("No stored keys")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tUPDATED_AT\tSIZE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\n", e.Key, e.UpdatedAt.Format(time.RFC3339), len(e.Value))
			}
			return w.Flush()
		})
	},
}

func dialectName(db *bun.DB) string {
	switch {
	case migrations.IsSQLite(db):
		return "sqlite"
	case migrations.IsPostgreSQL(db):
		return "postgres"
	default:
		return db.Dialect().Name().String()
	}
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbRollbackCmd)
	dbCmd.AddCommand(dbUnlockCmd)
	dbCmd.AddCommand(dbEntriesCmd)
}
