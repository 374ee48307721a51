package inmemory

import (
	"context"
	"sync"
	"time"

	roledomain "legacy-keeper-go/internal/domain/role"
)

type InMemoryRoleCache struct {
	mu    sync.RWMutex
	items map[string]roleItem
}

type roleItem struct {
	value     []roledomain.Descriptor
	expiresAt time.Time
}

func NewInMemoryRoleCache() *InMemoryRoleCache {
	return &InMemoryRoleCache{
		items: make(map[string]roleItem),
	}
}

func (c *InMemoryRoleCache) Get(ctx context.Context, userID string) ([]roledomain.Descriptor, bool) {
	now := time.Now()

	c.mu.RLock()
	item, ok := c.items[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[userID]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, userID)
		}
		c.mu.Unlock()
		return nil, false
	}

	return cloneDescriptors(item.value), true
}

func (c *InMemoryRoleCache) Set(ctx context.Context, userID string, descriptors []roledomain.Descriptor, ttl time.Duration) {
	if ttl <= 0 {
		c.Delete(ctx, userID)
		return
	}

	c.mu.Lock()
	c.items[userID] = roleItem{
		value:     cloneDescriptors(descriptors),
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *InMemoryRoleCache) Delete(ctx context.Context, userID string) {
	c.mu.Lock()
	delete(c.items, userID)
	c.mu.Unlock()
}

func (c *InMemoryRoleCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]roleItem)
	c.mu.Unlock()
}

func cloneDescriptors(descriptors []roledomain.Descriptor) []roledomain.Descriptor {
	result := make([]roledomain.Descriptor, len(descriptors))
	for i, desc := range descriptors {
		result[i] = desc
		if desc.RelatedUser != nil {
			owner := *desc.RelatedUser
			result[i].RelatedUser = &owner
		}
		result[i].AccessCategories = append([]string(nil), desc.AccessCategories...)
	}
	return result
}
