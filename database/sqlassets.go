package sqlassets

import "embed"

// Migrations holds the versioned schema applied by golang-migrate. Files follow the
// <version>_<name>.(up|down).sql convention and are embedded so binaries stay self-contained.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the SQL files.
const MigrationsDir = "migrations"
