package utils

import (
	"context"
	"fmt"
	"time"

	"earnquest-bot/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemberLookup resolves a chat member's role from the platform.
type MemberLookup interface {
	MemberRole(ctx context.Context, chatID, userID int64) (models.Role, error)
}

// RoleCache remembers successful role lookups per (chat, user) for a short
// time. Failed lookups are never cached.
type RoleCache struct {
	lookup MemberLookup
	cache  *expirable.LRU[string, models.Role]
}

// NewRoleCache creates a cache holding up to size entries for ttl.
func NewRoleCache(lookup MemberLookup, size int, ttl time.Duration) *RoleCache {
	if size <= 0 {
		size = 4096
	}
	return &RoleCache{
		lookup: lookup,
		cache:  expirable.NewLRU[string, models.Role](size, nil, ttl),
	}
}

// Role returns the sender's role, asking the platform on a miss.
func (c *RoleCache) Role(ctx context.Context, chatID, userID int64) (models.Role, error) {
	key := fmt.Sprintf("%d:%d", chatID, userID)
	if role, ok := c.cache.Get(key); ok {
		return role, nil
	}
	role, err := c.lookup.MemberRole(ctx, chatID, userID)
	if err != nil {
		return models.RoleUnknown, err
	}
	c.cache.Add(key, role)
	return role, nil
}

// Forget drops a cached role. The moderation engine calls it after a ban.
func (c *RoleCache) Forget(chatID, userID int64) {
	c.cache.Remove(fmt.Sprintf("%d:%d", chatID, userID))
}
