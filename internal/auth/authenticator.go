package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Odenfis/sedimApp/internal/storage"
)

// Authenticator verifies credentials against the account table
type Authenticator struct {
	users storage.UserStorage
}

// NewAuthenticator creates an authenticator over users
func NewAuthenticator(users storage.UserStorage) *Authenticator {
	return &Authenticator{users: users}
}

// Login returns the principal for valid credentials. An unknown user yields
// storage.ErrUserNotFound and a wrong password ErrInvalidPassword.
func (a *Authenticator) Login(ctx context.Context, username, password string) (Principal, error) {
	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return Principal{}, storage.ErrUserNotFound
		}
		return Principal{}, fmt.Errorf("looking up user: %w", err)
	}

	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return Principal{}, err
	}

	return Principal{ID: user.ID, Username: user.Username, Name: user.Name}, nil
}
