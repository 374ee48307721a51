package role

import (
	"context"
	"time"
)

// Cache holds the resolved delegations of a user.
type Cache interface {
	Get(ctx context.Context, userID string) ([]Descriptor, bool)
	Set(ctx context.Context, userID string, descriptors []Descriptor, ttl time.Duration)
	Delete(ctx context.Context, userID string)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]Descriptor, bool) {
	return nil, false
}

func (noopCache) Set(context.Context, string, []Descriptor, time.Duration) {}

func (noopCache) Delete(context.Context, string) {}
