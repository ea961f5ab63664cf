// Package migrations embeds the SQL migration files that are applied with
// goose at server startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
