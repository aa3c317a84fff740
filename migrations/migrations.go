// Package migrations holds the schema for the optional order log.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
