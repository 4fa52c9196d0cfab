package migrations

import "embed"

// FS contains embedded SQLite migrations for storefront catalog storage.
//
//go:embed *.sql
var FS embed.FS
