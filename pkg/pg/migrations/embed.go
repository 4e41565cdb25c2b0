// Package migrations embeds the accountkit SQL schema for goose.
package migrations

import "embed"

// FS holds the *.sql migrations at its root.
//
//go:embed *.sql
var FS embed.FS

// Schema versions worth naming in code and tests.
const (
	VersionUsers        int64 = 1
	VersionLegacyTest   int64 = 2
	VersionRemoveModels int64 = 3
)
