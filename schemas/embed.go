// Package schemas provides embedded SQL migration files.
package schemas

import "embed"

// Migrations contains the SQL migration files of every supported driver,
// one directory per driver under migrations/.
//
//go:embed migrations
var Migrations embed.FS
