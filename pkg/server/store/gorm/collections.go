package gorm

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure CollectionsStore implements store.CollectionsStore
var _ store.CollectionsStore = (*CollectionsStore)(nil)

// CollectionsStore implements store.CollectionsStore using GORM
type CollectionsStore struct {
	db *gorm.DB
}

// NewCollectionsStore creates a new CollectionsStore
func NewCollectionsStore(db *gorm.DB) *CollectionsStore {
	return &CollectionsStore{db: db}
}

// CreateCollection creates a collection.
func (s *CollectionsStore) CreateCollection(c model.Collection) (*model.Collection, error) {
	c.CollectionID = uuid.NewString()
	if err := s.db.Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateSlug
		}
		return nil, err
	}
	return &c, nil
}

// FindCollection retrieves a collection by id.
func (s *CollectionsStore) FindCollection(id string) (*model.Collection, error) {
	var c model.Collection
	tx := s.db.Where("collection_id = ?", id).First(&c)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrCollectionNotFound
		}
		return nil, tx.Error
	}
	return &c, nil
}

// FindCollectionBySlug retrieves a collection by owner and slug.
func (s *CollectionsStore) FindCollectionBySlug(userID, slug string) (*model.Collection, error) {
	var c model.Collection
	tx := s.db.Where("user_id = ? AND slug = ?", userID, slug).First(&c)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrCollectionNotFound
		}
		return nil, tx.Error
	}
	return &c, nil
}

// ListCollections lists a user's collections.
func (s *CollectionsStore) ListCollections(userID string) ([]model.Collection, error) {
	var collections []model.Collection
	tx := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&collections)
	return collections, tx.Error
}

// UpdateCollection updates name, description, public, and mcp_enabled.
func (s *CollectionsStore) UpdateCollection(c model.Collection) (*model.Collection, error) {
	updates := map[string]interface{}{
		"name":        c.Name,
		"description": c.Description,
		"public":      c.Public,
		"mcp_enabled": c.MCPEnabled,
	}
	tx := s.db.Model(&model.Collection{}).
		Where("collection_id = ?", c.CollectionID).
		Updates(updates)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, store.ErrCollectionNotFound
	}
	return s.FindCollection(c.CollectionID)
}

// DeleteCollection removes a collection and its tool links.
func (s *CollectionsStore) DeleteCollection(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&model.CollectionTool{}).Error; err != nil {
			return err
		}
		res := tx.Where("collection_id = ?", id).Delete(&model.Collection{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrCollectionNotFound
		}
		return nil
	})
}

// AddTool links a tool into a collection. Position -1 appends.
func (s *CollectionsStore) AddTool(collectionID, toolID string, position int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if position < 0 {
			var maxPos *int
			row := tx.Model(&model.CollectionTool{}).
				Where("collection_id = ?", collectionID).
				Select("MAX(position)").Row()
			if err := row.Scan(&maxPos); err != nil {
				return err
			}
			position = 0
			if maxPos != nil {
				position = *maxPos + 1
			}
		} else {
			// Shift later entries to make room.
			if err := tx.Model(&model.CollectionTool{}).
				Where("collection_id = ? AND position >= ?", collectionID, position).
				UpdateColumn("position", gorm.Expr("position + 1")).Error; err != nil {
				return err
			}
		}
		return tx.Create(&model.CollectionTool{
			CollectionID: collectionID,
			ToolID:       toolID,
			Position:     position,
		}).Error
	})
}

// RemoveTool unlinks a tool and compacts positions.
func (s *CollectionsStore) RemoveTool(collectionID, toolID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var link model.CollectionTool
		if err := tx.Where("collection_id = ? AND tool_id = ?", collectionID, toolID).
			First(&link).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return store.ErrToolNotFound
			}
			return err
		}
		if err := tx.Where("collection_id = ? AND tool_id = ?", collectionID, toolID).
			Delete(&model.CollectionTool{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.CollectionTool{}).
			Where("collection_id = ? AND position > ?", collectionID, link.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
}

// ListTools returns a collection's tools in position order.
func (s *CollectionsStore) ListTools(collectionID string) ([]store.ToolWithPackage, error) {
	var rows []toolRow
	tx := s.db.Model(&model.Tool{}).
		Select(toolSelect).
		Joins("JOIN collection_tools ON collection_tools.tool_id = tools.tool_id").
		Joins("JOIN packages ON packages.package_id = tools.package_id").
		Where("collection_tools.collection_id = ?", collectionID).
		Order("collection_tools.position asc").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]store.ToolWithPackage, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row.toStore())
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}
