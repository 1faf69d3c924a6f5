package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure APIKeysStore implements store.APIKeysStore
var _ store.APIKeysStore = (*APIKeysStore)(nil)

// APIKeysStore implements store.APIKeysStore using GORM
type APIKeysStore struct {
	db *gorm.DB
}

// NewAPIKeysStore creates a new APIKeysStore
func NewAPIKeysStore(db *gorm.DB) *APIKeysStore {
	return &APIKeysStore{db: db}
}

// CreateAPIKey stores a new key for a user.
func (s *APIKeysStore) CreateAPIKey(userID, name, prefix, digest string) (*model.APIKey, error) {
	key := model.APIKey{
		KeyID:  uuid.NewString(),
		UserID: userID,
		Name:   name,
		Prefix: prefix,
		Digest: digest,
	}
	if err := s.db.Create(&key).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

// FindAPIKeyByDigest retrieves a key by its digest.
func (s *APIKeysStore) FindAPIKeyByDigest(digest string) (*model.APIKey, error) {
	var key model.APIKey
	tx := s.db.Where("digest = ?", digest).First(&key)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrAPIKeyNotFound
		}
		return nil, tx.Error
	}
	return &key, nil
}

// FindAPIKey retrieves a key by id.
func (s *APIKeysStore) FindAPIKey(id string) (*model.APIKey, error) {
	var key model.APIKey
	tx := s.db.Where("key_id = ?", id).First(&key)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrAPIKeyNotFound
		}
		return nil, tx.Error
	}
	return &key, nil
}

// ListAPIKeys lists a user's keys, revoked ones included.
func (s *APIKeysStore) ListAPIKeys(userID string) ([]model.APIKey, error) {
	var keys []model.APIKey
	tx := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&keys)
	return keys, tx.Error
}

// RevokeAPIKey marks a user's key revoked.
func (s *APIKeysStore) RevokeAPIKey(id, userID string) error {
	tx := s.db.Model(&model.APIKey{}).
		Where("key_id = ? AND user_id = ? AND revoked_at IS NULL", id, userID).
		Update("revoked_at", time.Now())
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrAPIKeyNotFound
	}
	return nil
}

// TouchAPIKey updates a key's last-used timestamp.
func (s *APIKeysStore) TouchAPIKey(id string) error {
	return s.db.Model(&model.APIKey{}).
		Where("key_id = ?", id).
		Update("last_used_at", time.Now()).Error
}
