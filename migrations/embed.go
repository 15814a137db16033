// Package migrations embeds the schema of the local state database.
package migrations

import "embed"

// FS holds one directory of migrations per supported driver.
//
//go:embed sqlite3/*.sql mysql/*.sql
var FS embed.FS
