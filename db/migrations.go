// Package db embeds the SQL migrations shipped with the server binary.
package db

import "embed"

// Migrations holds the golang-migrate SQL files.
//
//go:embed migrations/*.sql
var Migrations embed.FS
