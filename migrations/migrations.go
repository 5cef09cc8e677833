// Package migrations embeds the SQL migration files applied by goose at
// startup. Files follow the YYYYMMDDHHMMSS_description.sql convention and
// run in order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
