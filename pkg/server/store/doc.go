// Package store defines the storage interfaces the server depends on.
// Implementations live in the gorm subpackage; tests substitute mocks.
package store
