// Package db establishes the GORM Postgres connection for the TPMJS server.
package db
