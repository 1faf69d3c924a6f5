package model

import "time"

// APIKey is a bearer credential for the management API. Only the SHA-256
// digest of the secret part is stored; the raw key is shown once at creation.
type APIKey struct {
	KeyID      string     `gorm:"column:key_id;primaryKey"`
	UserID     string     `gorm:"column:user_id;not null;index"`
	Name       string     `gorm:"column:name;not null"`
	Prefix     string     `gorm:"column:prefix;not null;index"`
	Digest     string     `gorm:"column:digest;not null"`
	LastUsedAt *time.Time `gorm:"column:last_used_at"`
	RevokedAt  *time.Time `gorm:"column:revoked_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (APIKey) TableName() string {
	return "api_keys"
}

// Revoked reports whether the key has been revoked.
func (k APIKey) Revoked() bool {
	return k.RevokedAt != nil
}
