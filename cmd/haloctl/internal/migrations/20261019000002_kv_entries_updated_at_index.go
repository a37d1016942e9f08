package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20261019000002, down_20261019000002)
}

// up_20261019000002 indexes kv_entries by modification time
func up_20261019000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating kv_entries updated_at index...")

	_, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_kv_entries_updated_at ON kv_entries(updated_at)`)
	if err != nil {
		return fmt.Errorf("failed to create kv_entries updated_at index: %w", err)
	}

	fmt.Println(" OK")
	return nil
}

// down_20261019000002 drops the updated_at index
func down_20261019000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping kv_entries updated_at index...")

	_, err := db.ExecContext(ctx, `DROP INDEX IF EXISTS idx_kv_entries_updated_at`)
	if err != nil {
		return fmt.Errorf("failed to drop kv_entries updated_at index: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
