// Package item embeds the SQL migrations of the item service.
package item

import "embed"

// FS holds the goose migration files.
//
//go:embed *.sql
var FS embed.FS
