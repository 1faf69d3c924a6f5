package store

import (
	"errors"

	"github.com/tpmjs/tpmjs/pkg/model"
)

// ErrPackageNotFound is returned when a package doesn't exist
var ErrPackageNotFound = errors.New("package not found")

// PackageFilter narrows and orders a package listing.
type PackageFilter struct {
	// Query matches against name, description, and keywords.
	Query string
	// Verified filters on the verified flag when non-nil.
	Verified *bool
	// Sort is one of "downloads", "health", "updated", "name" (default).
	Sort   string
	Limit  int
	Offset int
}

// PackagesStore abstracts registry package operations
type PackagesStore interface {
	// ListPackages returns one page of packages and the unpaged total.
	ListPackages(filter PackageFilter) ([]model.Package, int64, error)

	// FindPackage retrieves a package by npm name.
	// Returns ErrPackageNotFound if the package doesn't exist.
	FindPackage(name string) (*model.Package, error)

	// UpsertPackage inserts or updates a package by npm name and returns
	// the stored row.
	UpsertPackage(pkg model.Package) (*model.Package, error)

	// AllPackageNames returns every package name, for sync sweeps.
	AllPackageNames() ([]string, error)

	// SetHealthScore updates a package's rolled-up health score.
	SetHealthScore(name string, score int) error
}
