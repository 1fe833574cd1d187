package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

// ErrSecretNotFound is returned by SecretStore.GetSecret when no secret
// exists under the requested name.
var ErrSecretNotFound = errors.New("secret not found")

// ErrEncryptionKeyNotSet is returned by the local secret store when
// SECRETWATCH_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set SECRETWATCH_SECRET_KEY")

// SecretStore resolves named secrets. It fails with ErrSecretNotFound when
// the name is absent, or with a wrapped transport error when the store is
// unreachable.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SecretAdmin is the write side of the local encrypted secret store, used by
// the secretctl command. Values are plaintext at this boundary; the adapter
// handles encryption.
type SecretAdmin interface {
	SecretStore

	// SetSecret stores or replaces the value under name.
	SetSecret(ctx context.Context, name, plaintext string) error
	// ListSecrets returns all stored secrets ordered by name.
	ListSecrets(ctx context.Context) ([]model.StoredSecret, error)
	// DeleteSecret removes the secret under name. Deleting a missing name is not an error.
	DeleteSecret(ctx context.Context, name string) error
}
