// Package categories resolves a merchant's category reference into a
// dashboard route, tolerating category-table drift upstream. Availability
// beats freshness here: mis-routing a merchant is worse than routing with
// slightly stale names.
package categories

import (
	"context"
	"sync"
	"time"

	"github.com/yannickabena/mboa-storefront/pkg/logger"
)

// Category is one row of the upstream type-category table. The client
// never mutates these, it only caches a snapshot.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"nom"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// FetchFunc loads the category list from the upstream.
type FetchFunc func(ctx context.Context) ([]Category, error)

// Cache is a time-boxed snapshot of the category list. An expired snapshot
// triggers exactly one refetch attempt per lookup; a failed refetch serves
// the stale snapshot, and nil only if nothing was ever fetched.
type Cache struct {
	mu        sync.Mutex
	fetch     FetchFunc
	ttl       time.Duration
	now       func() time.Time
	logg      *logger.Logger
	snapshot  []Category
	fetchedAt time.Time
}

func NewCache(fetch FetchFunc, ttl time.Duration, logg *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		fetch: fetch,
		ttl:   ttl,
		now:   time.Now,
		logg:  logg,
	}
}

// Categories returns the current snapshot, refetching when it has aged out.
// The returned error is non-nil only when no snapshot exists at all.
func (c *Cache) Categories(ctx context.Context) ([]Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return copyCategories(c.snapshot), nil
	}

	fresh, err := c.fetch(ctx)
	if err != nil {
		if c.snapshot != nil {
			if c.logg != nil {
				c.logg.Warn(ctx, "category refetch failed, serving stale snapshot")
			}
			return copyCategories(c.snapshot), nil
		}
		return nil, err
	}

	c.snapshot = fresh
	c.fetchedAt = c.now()
	return copyCategories(c.snapshot), nil
}

// Invalidate forces the next lookup to refetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	c.fetchedAt = time.Time{}
}

func copyCategories(in []Category) []Category {
	out := make([]Category, len(in))
	copy(out, in)
	return out
}
