package auth

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/paycrest/cardflow/config"
	"github.com/paycrest/cardflow/storage"
	"github.com/paycrest/cardflow/types"
	"github.com/paycrest/cardflow/utils/logger"
)

const tokenKey = "token"

// refreshAttempt is one shared refresh execution. ok is written exactly once
// before done is closed.
type refreshAttempt struct {
	done chan struct{}
	ok   bool
}

// TokenStore owns the persisted refresh/access token pair and guards the
// refresh exchange so concurrent callers trigger at most one network
// round trip.
type TokenStore struct {
	kv   storage.KV
	auth types.AuthCapability
	conf *config.AuthConfiguration

	mu      sync.Mutex
	refresh *refreshAttempt
}

// NewTokenStore constructs a token store over the given persistence and auth
// capability.
func NewTokenStore(kv storage.KV, authCap types.AuthCapability) *TokenStore {
	return &TokenStore{
		kv:   kv,
		auth: authCap,
		conf: config.AuthConfig(),
	}
}

// Token returns the stored token pair, or nil when no user is signed in.
func (s *TokenStore) Token(ctx context.Context) *types.Token {
	raw, err := s.kv.Get(ctx, tokenKey)
	if err != nil {
		return nil
	}
	var token types.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		logger.Errorf("Stored token is unreadable, discarding", logger.Fields{"Error": err.Error()})
		_ = s.kv.Delete(ctx, tokenKey)
		return nil
	}
	return &token
}

// Save persists a token pair. The pair is written whole; partial updates
// never happen.
func (s *TokenStore) Save(ctx context.Context, token *types.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, tokenKey, string(raw))
}

// Clear removes the stored token pair, signing the user out.
func (s *TokenStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, tokenKey)
}

// RefreshIfNeeded guarantees the caller holds a usable access token when it
// returns true. A missing token is a no-op false. An unexpired token is
// reused without any network call. An expired token triggers exactly one
// exchange no matter how many callers arrive concurrently; on exchange
// failure the stale token stays in place so the host can re-prompt sign-in.
func (s *TokenStore) RefreshIfNeeded(ctx context.Context) bool {
	token := s.Token(ctx)
	if token == nil {
		return false
	}
	if !token.ExpiresWithin(s.conf.RefreshLeeway) {
		return true
	}

	s.mu.Lock()
	if attempt := s.refresh; attempt != nil {
		s.mu.Unlock()
		select {
		case <-attempt.done:
			return attempt.ok
		case <-ctx.Done():
			return false
		}
	}
	attempt := &refreshAttempt{done: make(chan struct{})}
	s.refresh = attempt
	s.mu.Unlock()

	attempt.ok = s.exchange(ctx)

	s.mu.Lock()
	s.refresh = nil
	s.mu.Unlock()
	close(attempt.done)

	return attempt.ok
}

func (s *TokenStore) exchange(ctx context.Context) bool {
	// Re-read under ownership: a refresh that completed while this caller
	// was acquiring the slot already produced a fresh token.
	token := s.Token(ctx)
	if token == nil {
		return false
	}
	if !token.ExpiresWithin(s.conf.RefreshLeeway) {
		return true
	}

	grant, err := s.auth.RequestAccessToken(ctx, token.RefreshToken)
	if err != nil {
		logger.Errorf("Token refresh failed", logger.Fields{"Error": err.Error()})
		return false
	}

	expiry := grant.ExpiresAt
	if expiry == 0 {
		expiry = expiryFromJWT(grant.AccessToken)
	}

	fresh := &types.Token{
		RefreshToken:              token.RefreshToken,
		AccessToken:               grant.AccessToken,
		AccessTokenExpirationTime: expiry,
	}
	if err := s.Save(ctx, fresh); err != nil {
		logger.Errorf("Failed to persist refreshed token", logger.Fields{"Error": err.Error()})
		return false
	}
	return true
}

// expiryFromJWT extracts the exp claim from an access token when the token
// endpoint omits an explicit expiry. The signature is not verified; the
// claim only schedules the next refresh.
func expiryFromJWT(accessToken string) int64 {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.Unix()
}
