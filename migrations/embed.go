// Package migrations embeds the schema so the migrate binary carries it.
package migrations

import "embed"

// FS holds every *.sql migration.
//
//go:embed *.sql
var FS embed.FS
