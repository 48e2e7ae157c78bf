// Package cache holds the organization-tree caches. The tree is rebuilt from
// every profile and active edge, so it is cached as one document and dropped
// whenever a relationship or profile changes.
//
// Every Invalidate advances a generation counter. Get reports the generation
// it observed and Set only stores a forest built under the current one, so a
// rebuild that raced an invalidation never overwrites it with older data.
package cache

import (
	"context"
	"time"

	"github.com/kolnet/backend/internal/domain/network"
)

// TreeCache stores the most recently built organization forest.
type TreeCache interface {
	// Get returns the cached forest (nil on a miss) and the current generation
	Get(ctx context.Context) (*network.ForestResult, uint64, error)
	// Set stores forest unless the generation has moved past generation
	Set(ctx context.Context, generation uint64, forest network.ForestResult, ttl time.Duration) error
	Invalidate(ctx context.Context) error
	Close() error
}

// NopTreeCache never caches. Used when caching is disabled.
type NopTreeCache struct{}

func (NopTreeCache) Get(context.Context) (*network.ForestResult, uint64, error) { return nil, 0, nil }
func (NopTreeCache) Set(context.Context, uint64, network.ForestResult, time.Duration) error {
	return nil
}
func (NopTreeCache) Invalidate(context.Context) error { return nil }
func (NopTreeCache) Close() error                     { return nil }

var _ TreeCache = NopTreeCache{}
