package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure PackagesStore implements store.PackagesStore
var _ store.PackagesStore = (*PackagesStore)(nil)

// PackagesStore implements store.PackagesStore using GORM
type PackagesStore struct {
	db *gorm.DB
}

// NewPackagesStore creates a new PackagesStore
func NewPackagesStore(db *gorm.DB) *PackagesStore {
	return &PackagesStore{db: db}
}

// ListPackages returns one page of packages and the unpaged total.
func (s *PackagesStore) ListPackages(filter store.PackageFilter) ([]model.Package, int64, error) {
	query := s.db.Model(&model.Package{})

	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where(
			"name ILIKE ? OR description ILIKE ? OR keywords::text ILIKE ?",
			like, like, like,
		)
	}
	if filter.Verified != nil {
		query = query.Where("verified = ?", *filter.Verified)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Sort {
	case "downloads":
		query = query.Order("downloads desc")
	case "health":
		query = query.Order("health_score desc")
	case "updated":
		query = query.Order("updated_at desc")
	default:
		query = query.Order("name asc")
	}

	var packages []model.Package
	tx := query.Limit(filter.Limit).Offset(filter.Offset).Find(&packages)
	return packages, total, tx.Error
}

// FindPackage retrieves a package by npm name.
func (s *PackagesStore) FindPackage(name string) (*model.Package, error) {
	var pkg model.Package
	tx := s.db.Where("name = ?", name).First(&pkg)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrPackageNotFound
		}
		return nil, tx.Error
	}
	return &pkg, nil
}

// UpsertPackage inserts or updates a package by npm name.
func (s *PackagesStore) UpsertPackage(pkg model.Package) (*model.Package, error) {
	var existing model.Package
	tx := s.db.Where("name = ?", pkg.Name).First(&existing)
	if tx.Error != nil {
		if tx.Error != gorm.ErrRecordNotFound {
			return nil, tx.Error
		}
		pkg.PackageID = uuid.NewString()
		now := time.Now()
		pkg.LastSyncedAt = &now
		if err := s.db.Create(&pkg).Error; err != nil {
			return nil, err
		}
		return &pkg, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"description":    pkg.Description,
		"version":        pkg.Version,
		"keywords":       pkg.Keywords,
		"readme":         pkg.Readme,
		"author":         pkg.Author,
		"homepage":       pkg.Homepage,
		"downloads":      pkg.Downloads,
		"deprecated":     pkg.Deprecated,
		"last_synced_at": &now,
	}
	if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.FindPackage(pkg.Name)
}

// AllPackageNames returns every package name.
func (s *PackagesStore) AllPackageNames() ([]string, error) {
	var names []string
	tx := s.db.Model(&model.Package{}).Order("name asc").Pluck("name", &names)
	return names, tx.Error
}

// SetHealthScore updates a package's rolled-up health score.
func (s *PackagesStore) SetHealthScore(name string, score int) error {
	return s.db.Model(&model.Package{}).
		Where("name = ?", name).
		Update("health_score", score).Error
}
