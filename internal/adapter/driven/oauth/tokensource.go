package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

type providerSource struct {
	ctx      context.Context
	provider driven.TokenProvider
	scopes   []string
}

func (s *providerSource) Token() (*oauth2.Token, error) {
	tok, err := s.provider.Token(s.ctx, s.scopes...)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: tok.Value,
		TokenType:   "Bearer",
		Expiry:      tok.ExpiresAt,
	}, nil
}

// NewTokenSource adapts provider to an oauth2.TokenSource that reuses a token
// until it expires. The source is meant to live for a single run; ctx bounds
// every token request it makes.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider, scopes ...string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &providerSource{ctx: ctx, provider: provider, scopes: scopes})
}

// NewHTTPClient returns a client that authorizes each request with a bearer
// token from provider. base supplies the underlying transport and may be nil.
func NewHTTPClient(ctx context.Context, base *http.Client, provider driven.TokenProvider, scopes ...string) *http.Client {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	client := oauth2.NewClient(ctx, NewTokenSource(ctx, provider, scopes...))
	if base != nil {
		client.Timeout = base.Timeout
	}
	return client
}
