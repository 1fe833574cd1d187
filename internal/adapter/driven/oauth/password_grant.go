// Package oauth implements the TokenProvider port with the OAuth2 resource
// owner password grant, authenticating a delegated user without interactive
// sign-in.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

// TokenTTL is the lifetime assumed for every minted token. The issuer's
// expires_in field is ignored.
const TokenTTL = 60 * time.Minute

// Compile-time interface satisfaction check.
var _ driven.TokenProvider = (*PasswordGrantProvider)(nil)

// PasswordGrantConfig names the identity a PasswordGrantProvider signs in as.
// ClientSecretName and PasswordSecretName are SecretStore keys, never the
// secret values themselves.
type PasswordGrantConfig struct {
	// Identity labels the provider in errors and logs, e.g. "directory-reader".
	Identity string

	AuthorityHost string // e.g. "https://login.microsoftonline.com"
	TenantID      string
	// TokenURL overrides the endpoint derived from AuthorityHost and TenantID.
	TokenURL string

	ClientID           string
	ClientSecretName   string
	Username           string
	PasswordSecretName string
}

// Endpoint returns the token endpoint for the configured tenant.
func (c PasswordGrantConfig) Endpoint() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(c.AuthorityHost, "/"), c.TenantID)
}

// Option customizes a PasswordGrantProvider.
type Option func(*PasswordGrantProvider)

// WithHTTPClient sets the HTTP client used to reach the token endpoint.
func WithHTTPClient(c *http.Client) Option {
	return func(p *PasswordGrantProvider) { p.httpClient = c }
}

// WithClock replaces time.Now when computing token expiry.
func WithClock(now func() time.Time) Option {
	return func(p *PasswordGrantProvider) { p.now = now }
}

// PasswordGrantProvider mints bearer tokens with grant_type=password. It holds
// its own resolved credentials and shares no state with other providers.
type PasswordGrantProvider struct {
	identity     string
	tokenURL     string
	clientID     string
	clientSecret string
	username     string
	password     string

	httpClient *http.Client
	now        func() time.Time
}

// NewPasswordGrantProvider resolves the client secret and the user password
// through secrets and returns a ready provider. A secret that cannot be
// resolved fails construction with *model.AuthError.
func NewPasswordGrantProvider(ctx context.Context, secrets driven.SecretStore, cfg PasswordGrantConfig, opts ...Option) (*PasswordGrantProvider, error) {
	if cfg.ClientID == "" || cfg.Username == "" {
		return nil, &model.AuthError{Identity: cfg.Identity, Err: errors.New("client id and username are required")}
	}

	clientSecret, err := secrets.GetSecret(ctx, cfg.ClientSecretName)
	if err != nil {
		return nil, &model.AuthError{Identity: cfg.Identity, Err: fmt.Errorf("resolve client secret %q: %w", cfg.ClientSecretName, err)}
	}

	password, err := secrets.GetSecret(ctx, cfg.PasswordSecretName)
	if err != nil {
		return nil, &model.AuthError{Identity: cfg.Identity, Err: fmt.Errorf("resolve password %q: %w", cfg.PasswordSecretName, err)}
	}

	p := &PasswordGrantProvider{
		identity:     cfg.Identity,
		tokenURL:     cfg.Endpoint(),
		clientID:     cfg.ClientID,
		clientSecret: clientSecret,
		username:     cfg.Username,
		password:     password,
		httpClient:   http.DefaultClient,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Identity returns the label the provider was configured with.
func (p *PasswordGrantProvider) Identity() string {
	return p.identity
}

// Token performs one password grant request for scopes. The returned expiry is
// now+TokenTTL, or the access token's own exp claim when that is earlier.
// Non-2xx responses, transport failures and responses without access_token
// all fail with *model.AuthError. No retries are attempted.
func (p *PasswordGrantProvider) Token(ctx context.Context, scopes ...string) (model.AccessToken, error) {
	conf := &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  p.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: scopes,
	}

	issuedAt := p.now()
	tok, err := conf.PasswordCredentialsToken(context.WithValue(ctx, oauth2.HTTPClient, p.httpClient), p.username, p.password)
	if err != nil {
		return model.AccessToken{}, &model.AuthError{Identity: p.identity, Err: describeTokenError(err)}
	}

	token := model.AccessToken{
		Value:     tok.AccessToken,
		ExpiresAt: expiryFor(tok.AccessToken, issuedAt),
	}
	if token.Expired(issuedAt) {
		return model.AccessToken{}, &model.AuthError{Identity: p.identity, Err: errors.New("issuer returned an already expired token")}
	}
	return token, nil
}

// expiryFor caps the fixed TTL at the JWT exp claim. Opaque tokens and tokens
// without exp get the full TTL.
func expiryFor(accessToken string, issuedAt time.Time) time.Time {
	expiry := issuedAt.Add(TokenTTL)

	parsed, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return expiry
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return expiry
	}
	if exp.Time.Before(expiry) {
		return exp.Time
	}
	return expiry
}

// describeTokenError keeps the issuer's error code in the message without
// echoing the full response body.
func describeTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		if re.ErrorCode != "" {
			return fmt.Errorf("token endpoint returned %d (%s): %w", re.Response.StatusCode, re.ErrorCode, err)
		}
		return fmt.Errorf("token endpoint returned %d: %w", re.Response.StatusCode, err)
	}
	return err
}
