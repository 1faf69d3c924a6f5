package store

import (
	"errors"

	"github.com/tpmjs/tpmjs/pkg/model"
)

// ErrUserNotFound is returned when a user doesn't exist
var ErrUserNotFound = errors.New("user not found")

// UsersStore abstracts user account operations
type UsersStore interface {
	// FindUser retrieves a user by id.
	// Returns ErrUserNotFound if the user doesn't exist.
	FindUser(id string) (*model.User, error)

	// FindUserByEmail retrieves a user by email.
	FindUserByEmail(email string) (*model.User, error)

	// CreateUser creates a user account.
	CreateUser(email, name string) (*model.User, error)
}
