package driven

import (
	"context"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

// TokenProvider mints bearer tokens for a requested scope set. Each call may
// perform a network round trip; callers that want reuse wrap the provider in
// their own caching layer. Failures are *model.AuthError.
type TokenProvider interface {
	Token(ctx context.Context, scopes ...string) (model.AccessToken, error)
}
