// Package migrations contiene el esquema SQL para STORE_DRIVER=postgres.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
