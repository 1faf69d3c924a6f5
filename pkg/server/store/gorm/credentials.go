package gorm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure CredentialsStore implements store.CredentialsStore
var _ store.CredentialsStore = (*CredentialsStore)(nil)

// CredentialsStore implements store.CredentialsStore using GORM
type CredentialsStore struct {
	db *gorm.DB
}

// NewCredentialsStore creates a new CredentialsStore
func NewCredentialsStore(db *gorm.DB) *CredentialsStore {
	return &CredentialsStore{db: db}
}

// UpsertCredential stores or replaces a user's credential for provider.
// A caller-supplied CredentialID is kept as-is; the ciphertext is bound to
// it as AAD, so the stored id must match the one used at encryption time.
func (s *CredentialsStore) UpsertCredential(c model.ProviderCredential) (*model.ProviderCredential, error) {
	var existing model.ProviderCredential
	tx := s.db.Where("user_id = ? AND provider = ?", c.UserID, c.Provider).First(&existing)
	if tx.Error != nil {
		if tx.Error != gorm.ErrRecordNotFound {
			return nil, tx.Error
		}
		if c.CredentialID == "" {
			c.CredentialID = uuid.NewString()
		}
		if err := s.db.Create(&c).Error; err != nil {
			return nil, err
		}
		return &c, nil
	}

	if err := s.db.Model(&model.ProviderCredential{}).
		Where("credential_id = ?", existing.CredentialID).
		Update("ciphertext", c.CipherText).Error; err != nil {
		return nil, err
	}
	return s.FindCredential(c.UserID, c.Provider)
}

// FindCredential retrieves a user's credential for provider.
func (s *CredentialsStore) FindCredential(userID, provider string) (*model.ProviderCredential, error) {
	var c model.ProviderCredential
	tx := s.db.Where("user_id = ? AND provider = ?", userID, provider).First(&c)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrCredentialNotFound
		}
		return nil, tx.Error
	}
	return &c, nil
}

// DeleteCredential removes a user's credential for provider.
func (s *CredentialsStore) DeleteCredential(userID, provider string) error {
	tx := s.db.Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&model.ProviderCredential{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrCredentialNotFound
	}
	return nil
}
