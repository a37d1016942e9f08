package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry of schema migrations, populated by init
// functions in this package. Names come from the file names.
var Migrations = migrate.NewMigrations()
