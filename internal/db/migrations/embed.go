package migrations

import "embed"

// FS contains the embedded schema migrations shared by every driver.
//
//go:embed *.sql
var FS embed.FS
