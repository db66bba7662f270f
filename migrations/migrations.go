// Package migrations carries the schema files in the binary so a fresh
// deployment needs nothing on disk beside the executable.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
