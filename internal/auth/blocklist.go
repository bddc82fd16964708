// File: internal/auth/blocklist.go
package auth

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenBlocklist remembers revoked token IDs until the token would have expired anyway.
type TokenBlocklist interface {
	Add(jti string, expiresAt time.Time)
	Contains(jti string) bool
}

// InMemoryBlocklist is a TokenBlocklist backed by go-cache.
type InMemoryBlocklist struct {
	cache *cache.Cache
}

// NewInMemoryBlocklist creates a new in-memory blocklist.
func NewInMemoryBlocklist() *InMemoryBlocklist {
	return &InMemoryBlocklist{cache: cache.New(time.Hour, 10*time.Minute)}
}

// Add blocklists jti; already-expired tokens are ignored.
func (b *InMemoryBlocklist) Add(jti string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return
	}
	b.cache.Set(jti, struct{}{}, ttl)
}

func (b *InMemoryBlocklist) Contains(jti string) bool {
	if jti == "" {
		return false
	}
	_, found := b.cache.Get(jti)
	return found
}
