package store

import (
	"errors"

	"github.com/tpmjs/tpmjs/pkg/model"
)

// ErrCredentialNotFound is returned when a provider credential doesn't exist
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialsStore abstracts encrypted LLM provider credential operations.
// Values arrive and leave as ciphertext; encryption happens in the caller
// with pkg/crypto.
type CredentialsStore interface {
	// UpsertCredential stores or replaces a user's credential for provider.
	UpsertCredential(c model.ProviderCredential) (*model.ProviderCredential, error)

	// FindCredential retrieves a user's credential for provider.
	// Returns ErrCredentialNotFound if it doesn't exist.
	FindCredential(userID, provider string) (*model.ProviderCredential, error)

	// DeleteCredential removes a user's credential for provider.
	DeleteCredential(userID, provider string) error
}
