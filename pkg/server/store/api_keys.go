package store

import (
	"errors"

	"github.com/tpmjs/tpmjs/pkg/model"
)

// ErrAPIKeyNotFound is returned when an API key doesn't exist
var ErrAPIKeyNotFound = errors.New("api key not found")

// APIKeysStore abstracts API key operations. Only the SHA-256 digest of a
// key is ever stored.
type APIKeysStore interface {
	// CreateAPIKey stores a new key for a user.
	CreateAPIKey(userID, name, prefix, digest string) (*model.APIKey, error)

	// FindAPIKeyByDigest retrieves a key by its digest.
	// Returns ErrAPIKeyNotFound if no key matches.
	FindAPIKeyByDigest(digest string) (*model.APIKey, error)

	// FindAPIKey retrieves a key by id.
	FindAPIKey(id string) (*model.APIKey, error)

	// ListAPIKeys lists a user's keys, revoked ones included.
	ListAPIKeys(userID string) ([]model.APIKey, error)

	// RevokeAPIKey marks a user's key revoked.
	RevokeAPIKey(id, userID string) error

	// TouchAPIKey updates a key's last-used timestamp.
	TouchAPIKey(id string) error
}
