package transport

import (
	"sync"

	"golang.org/x/oauth2"
)

// TokenCache acquires a token lazily from its source and keeps it until it
// expires or is invalidated. It is safe for concurrent use and is meant to
// live exactly as long as one provider session.
type TokenCache struct {
	source oauth2.TokenSource

	mu    sync.Mutex
	token *oauth2.Token
}

var _ oauth2.TokenSource = (*TokenCache)(nil)

// NewTokenCache wraps a token source.
func NewTokenCache(source oauth2.TokenSource) *TokenCache {
	return &TokenCache{source: source}
}

// Token returns the cached token, fetching a new one when none is valid.
func (c *TokenCache) Token() (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid() {
		return c.token, nil
	}

	token, err := c.source.Token()
	if err != nil {
		return nil, err
	}
	c.token = token
	return token, nil
}

// Invalidate drops the cached token if it is still the stale one, so that
// concurrent callers rejected with the same token trigger a single refresh.
func (c *TokenCache) Invalidate(stale *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && stale != nil && c.token.AccessToken == stale.AccessToken {
		c.token = nil
	}
}
