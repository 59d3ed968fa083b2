package auth

import (
	"context"
	"errors"

	"github.com/paycrest/cardflow/client"
	"github.com/paycrest/cardflow/types"
	"github.com/paycrest/cardflow/utils/logger"
)

// BearerProvider negotiates per-request authorization grants. Absence of a
// token is a normal outcome signaling "unauthorized" upstream, so Bearer
// never returns an error.
type BearerProvider struct {
	store *TokenStore
	auth  types.AuthCapability
}

// NewBearerProvider constructs a bearer provider over the token store and
// auth capability.
func NewBearerProvider(store *TokenStore, authCap types.AuthCapability) *BearerProvider {
	return &BearerProvider{store: store, auth: authCap}
}

// Bearer obtains a valid access token for the given target, or nil when no
// user is signed in or the grant cannot be negotiated.
func (p *BearerProvider) Bearer(ctx context.Context, targetPath, method string) *types.Token {
	if p.store.Token(ctx) == nil {
		return nil
	}
	if !p.store.RefreshIfNeeded(ctx) {
		return nil
	}

	data, err := p.auth.GetAuthorizationData(ctx, targetPath, method)
	if err != nil {
		var signIn client.ErrSignInRequired
		if errors.As(err, &signIn) {
			logger.Warnf("Authorization grant requires sign-in", logger.Fields{"Target": targetPath, "Method": method})
		} else {
			logger.Errorf("Authorization grant failed", logger.Fields{"Target": targetPath, "Method": method, "Error": err.Error()})
		}
		return nil
	}
	if data.AccessToken == "" {
		return nil
	}

	return &types.Token{AccessToken: data.AccessToken}
}
