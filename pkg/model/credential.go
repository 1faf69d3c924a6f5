package model

import "time"

// ProviderCredential is a user's LLM provider API key, encrypted at rest.
// CipherText is produced by the symmetric cipher with the credential id as
// additional authenticated data.
type ProviderCredential struct {
	CredentialID string    `gorm:"column:credential_id;primaryKey"`
	UserID       string    `gorm:"column:user_id;not null;uniqueIndex:idx_credentials_user_provider"`
	Provider     string    `gorm:"column:provider;not null;uniqueIndex:idx_credentials_user_provider"`
	CipherText   []byte    `gorm:"column:ciphertext;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProviderCredential) TableName() string {
	return "provider_credentials"
}
