// Package secrets keeps OAuth tokens out of the relational store. Accounts
// only hold a reference; the token payload lives in a secret store.
package secrets

import (
	"context"
	"errors"
)

var ErrSecretNotFound = errors.New("secret not found")

// Store is a name-addressed secret vault.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	// Put creates the secret or overwrites an existing one and returns the
	// reference to persist on the account.
	Put(ctx context.Context, name, value string) (string, error)
	Delete(ctx context.Context, name string) error
}
