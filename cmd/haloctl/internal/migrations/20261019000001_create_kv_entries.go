package migrations

import (
	"context"
	"fmt"

	"github.com/halolight/halolight/cmd/haloctl/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20261019000001, down_20261019000001)
}

// up_20261019000001 creates the kv_entries table
func up_20261019000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating kv_entries table...")

	_, err := db.NewCreateTable().
		Model((*models.KVEntry)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create kv_entries table: %w", err)
	}

	fmt.Println(" OK")
	return nil
}

// down_20261019000001 drops the kv_entries table
func down_20261019000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping kv_entries table...")

	_, err := db.NewDropTable().
		Model((*models.KVEntry)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop kv_entries table: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
