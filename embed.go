// Package cardtask holds embedded assets shared by the binaries.
package cardtask

import "embed"

//go:embed migrations
var MigrationsFS embed.FS
