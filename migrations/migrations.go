// Package migrations embeds the goose SQL migrations for every bounded
// context. They share one goose version table, so file versions are global.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
