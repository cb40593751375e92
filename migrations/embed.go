// Package migrations embeds the goose formatted schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
