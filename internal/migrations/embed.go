package migrations

import "embed"

// SQLite embeds all SQLite-specific migration files.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

// Postgres embeds the Postgres migration files. The schema matches the hosted
// orders table so the postgres and postgrest drivers can share a database.
//
//go:embed postgres/*.sql
var Postgres embed.FS
