// Package sweet embeds the goose migrations for the sweets schema.
package sweet

import "embed"

// FS holds the *.sql migrations in version order.
//
//go:embed *.sql
var FS embed.FS
