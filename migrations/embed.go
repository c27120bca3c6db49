package migrations

import "embed"

// Files stores forward-only SQL migrations embedded into the binary.
// Statements must stay portable between sqlite and postgres.
//
//go:embed *.sql
var Files embed.FS
