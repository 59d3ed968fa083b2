package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/paycrest/cardflow/client"
	"github.com/paycrest/cardflow/storage"
	"github.com/paycrest/cardflow/types"
)

func TestBearerProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("signed out yields nil", func(t *testing.T) {
		capability := &fakeAuthCapability{}
		store := NewTokenStore(storage.NewMemoryKV(), capability)
		provider := NewBearerProvider(store, capability)

		assert.Nil(t, provider.Bearer(ctx, "/v1/kyc/status/last", "GET"))
	})

	t.Run("grant failure yields nil without panicking", func(t *testing.T) {
		capability := &fakeAuthCapability{authErr: client.ErrSignInRequired{}}
		store := NewTokenStore(storage.NewMemoryKV(), capability)
		assert.NoError(t, store.Save(ctx, freshToken()))
		provider := NewBearerProvider(store, capability)

		assert.Nil(t, provider.Bearer(ctx, "/v1/kyc/status/last", "GET"))
	})

	t.Run("grant success yields the per-request token", func(t *testing.T) {
		capability := &fakeAuthCapability{
			authData: &types.AuthorizationData{AccessToken: "per-request-token", ProofOfPossession: "pop"},
		}
		store := NewTokenStore(storage.NewMemoryKV(), capability)
		assert.NoError(t, store.Save(ctx, freshToken()))
		provider := NewBearerProvider(store, capability)

		token := provider.Bearer(ctx, "/v1/accounts/ibans", "GET")
		assert.NotNil(t, token)
		assert.Equal(t, "per-request-token", token.AccessToken)
	})

	t.Run("expired token is refreshed before the grant", func(t *testing.T) {
		capability := &fakeAuthCapability{
			grant: &types.TokenGrant{
				AccessToken: "refreshed",
				ExpiresAt:   time.Now().Add(time.Hour).Unix(),
			},
			authData: &types.AuthorizationData{AccessToken: "per-request-token"},
		}
		store := NewTokenStore(storage.NewMemoryKV(), capability)
		assert.NoError(t, store.Save(ctx, expiredToken()))
		provider := NewBearerProvider(store, capability)

		token := provider.Bearer(ctx, "/v1/kyc/attempts", "GET")
		assert.NotNil(t, token)
		assert.Equal(t, "refreshed", store.Token(ctx).AccessToken)
	})

	t.Run("failed refresh yields nil", func(t *testing.T) {
		capability := &fakeAuthCapability{grantErr: client.ErrSignInRequired{}}
		store := NewTokenStore(storage.NewMemoryKV(), capability)
		assert.NoError(t, store.Save(ctx, expiredToken()))
		provider := NewBearerProvider(store, capability)

		assert.Nil(t, provider.Bearer(ctx, "/v1/kyc/attempts", "GET"))
	})
}
