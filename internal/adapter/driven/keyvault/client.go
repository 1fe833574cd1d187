// Package keyvault implements the SecretStore port with the Azure Key Vault
// secrets client.
package keyvault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SecretStore = (*Client)(nil)

// DefaultRetryOptions is exponential from 2s, capped at 16s, at most 5
// retries. azcore retries 408, 429, 5xx and transport failures.
func DefaultRetryOptions() policy.RetryOptions {
	return policy.RetryOptions{
		MaxRetries:    5,
		RetryDelay:    2 * time.Second,
		MaxRetryDelay: 16 * time.Second,
	}
}

// Option customizes a Client.
type Option func(*azsecrets.ClientOptions)

// WithRetry replaces the retry policy.
func WithRetry(retry policy.RetryOptions) Option {
	return func(o *azsecrets.ClientOptions) { o.Retry = retry }
}

// WithTransport sends requests through t, typically an *http.Client with the
// deployment's timeout.
func WithTransport(t policy.Transporter) Option {
	return func(o *azsecrets.ClientOptions) { o.Transport = t }
}

// WithoutChallengeResourceVerification accepts an authentication challenge
// whose resource does not match the vault's domain, as with private
// endpoints behind a custom DNS name.
func WithoutChallengeResourceVerification() Option {
	return func(o *azsecrets.ClientOptions) { o.DisableChallengeResourceVerification = true }
}

// Client resolves the latest version of secrets from one vault.
type Client struct {
	secrets  *azsecrets.Client
	vaultURL string
}

// NewClient creates a Key Vault client for vaultURL, e.g.
// "https://example.vault.azure.net".
func NewClient(vaultURL string, cred azcore.TokenCredential, opts ...Option) (*Client, error) {
	options := &azsecrets.ClientOptions{}
	options.Retry = DefaultRetryOptions()
	for _, opt := range opts {
		opt(options)
	}

	secrets, err := azsecrets.NewClient(vaultURL, cred, options)
	if err != nil {
		return nil, fmt.Errorf("create key vault client for %s: %w", vaultURL, err)
	}
	return &Client{secrets: secrets, vaultURL: vaultURL}, nil
}

// GetSecret returns the current value of the named secret. A 404 maps to
// driven.ErrSecretNotFound.
func (c *Client) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := c.secrets.GetSecret(ctx, name, "", nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("get secret %q: %w", name, driven.ErrSecretNotFound)
		}
		return "", fmt.Errorf("get secret %q: %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("get secret %q: response has no value", name)
	}
	return *resp.Value, nil
}
