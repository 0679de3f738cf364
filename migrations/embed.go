// Package migrations embeds the bridge's SQL schema into the binary.
package migrations

import "embed"

// FS holds the .sql migration files at its root.
//
//go:embed *.sql
var FS embed.FS
