// Package gorm implements the store interfaces over Postgres with GORM.
package gorm
