package gorm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure ToolsStore implements store.ToolsStore
var _ store.ToolsStore = (*ToolsStore)(nil)

// ToolsStore implements store.ToolsStore using GORM
type ToolsStore struct {
	db *gorm.DB
}

// NewToolsStore creates a new ToolsStore
func NewToolsStore(db *gorm.DB) *ToolsStore {
	return &ToolsStore{db: db}
}

type toolRow struct {
	model.Tool
	PackageName    string `gorm:"column:package_name"`
	PackageVersion string `gorm:"column:package_version"`
}

const toolSelect = `tools.*, packages.name AS package_name, packages.version AS package_version`

// ListToolsByPackage returns a package's tools by npm package name.
func (s *ToolsStore) ListToolsByPackage(packageName string) ([]model.Tool, error) {
	var tools []model.Tool
	tx := s.db.
		Joins("JOIN packages ON packages.package_id = tools.package_id").
		Where("packages.name = ?", packageName).
		Order("tools.name asc").
		Find(&tools)
	return tools, tx.Error
}

// FindTool retrieves one tool by npm package name and tool name.
func (s *ToolsStore) FindTool(packageName, toolName string) (*store.ToolWithPackage, error) {
	var row toolRow
	tx := s.db.Model(&model.Tool{}).
		Select(toolSelect).
		Joins("JOIN packages ON packages.package_id = tools.package_id").
		Where("packages.name = ? AND tools.name = ?", packageName, toolName).
		First(&row)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrToolNotFound
		}
		return nil, tx.Error
	}
	return row.toStore(), nil
}

// FindToolByID retrieves one tool by id.
func (s *ToolsStore) FindToolByID(toolID string) (*store.ToolWithPackage, error) {
	var row toolRow
	tx := s.db.Model(&model.Tool{}).
		Select(toolSelect).
		Joins("JOIN packages ON packages.package_id = tools.package_id").
		Where("tools.tool_id = ?", toolID).
		First(&row)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrToolNotFound
		}
		return nil, tx.Error
	}
	return row.toStore(), nil
}

// SearchTools matches q against tool names and descriptions.
func (s *ToolsStore) SearchTools(q string, limit, offset int) ([]store.ToolWithPackage, int64, error) {
	like := "%" + q + "%"
	base := s.db.Model(&model.Tool{}).
		Joins("JOIN packages ON packages.package_id = tools.package_id").
		Where("tools.name ILIKE ? OR tools.description ILIKE ?", like, like)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []toolRow
	tx := base.
		Select(toolSelect).
		Order("packages.downloads desc, tools.name asc").
		Limit(limit).Offset(offset).
		Find(&rows)
	if tx.Error != nil {
		return nil, 0, tx.Error
	}

	out := make([]store.ToolWithPackage, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row.toStore())
	}
	return out, total, nil
}

// ReplaceTools swaps a package's tool set for the given one. Ids stay
// stable for tools whose name survives the swap so collection links hold.
func (s *ToolsStore) ReplaceTools(packageID string, tools []model.Tool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing []model.Tool
		if err := tx.Where("package_id = ?", packageID).Find(&existing).Error; err != nil {
			return err
		}
		byName := make(map[string]model.Tool, len(existing))
		for _, t := range existing {
			byName[t.Name] = t
		}

		keep := make(map[string]bool, len(tools))
		for _, t := range tools {
			keep[t.Name] = true
			t.PackageID = packageID
			if prev, ok := byName[t.Name]; ok {
				t.ToolID = prev.ToolID
				updates := map[string]interface{}{
					"description":      t.Description,
					"input_schema":     t.InputSchema,
					"extraction":       t.Extraction,
					"extraction_error": t.ExtractionError,
				}
				if err := tx.Model(&model.Tool{}).Where("tool_id = ?", t.ToolID).Updates(updates).Error; err != nil {
					return err
				}
				continue
			}
			t.ToolID = uuid.NewString()
			if err := tx.Create(&t).Error; err != nil {
				return err
			}
		}

		for name, t := range byName {
			if keep[name] {
				continue
			}
			if err := tx.Where("tool_id = ?", t.ToolID).Delete(&model.CollectionTool{}).Error; err != nil {
				return err
			}
			if err := tx.Where("tool_id = ?", t.ToolID).Delete(&model.Tool{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r toolRow) toStore() *store.ToolWithPackage {
	return &store.ToolWithPackage{
		Tool:           r.Tool,
		PackageName:    r.PackageName,
		PackageVersion: r.PackageVersion,
	}
}
