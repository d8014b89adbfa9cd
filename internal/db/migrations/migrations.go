// Package migrations embeds the goose SQL migrations for the recipehub schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
