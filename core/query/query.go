// Package query caches remote pages by query key and keeps observers on the last committed key.
package query

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// FetchStatus is the network state of a query.
type FetchStatus string

const (
	StatusIdle     FetchStatus = "idle"
	StatusFetching FetchStatus = "fetching"
	StatusPaused   FetchStatus = "paused" // source unreachable, waiting to retry
)

// DefaultFetchTimeout bounds a shared fetch when the cache has no FetchTimeout.
const DefaultFetchTimeout = 30 * time.Second

// ErrUnavailable marks fetch errors caused by an unreachable source; observers report them as paused.
var ErrUnavailable = errors.New("query: source unavailable")

var NowFunc = time.Now // mockable

// Key is the identity of a remote page.
type Key struct {
	Resource string
	Search   string
	Page     int
	PerPage  int
	Ordering string
	Filters  map[string]string
}

// String is the canonical form of the key: equal keys give equal strings.
func (k Key) String() string {
	q := url.Values{}
	for name, val := range k.Filters {
		q.Set("f."+name, val)
	}
	q.Set("search", k.Search)
	q.Set("page", strconv.Itoa(k.Page))
	q.Set("per_page", strconv.Itoa(k.PerPage))
	q.Set("ordering", k.Ordering)
	return k.Resource + "?" + q.Encode()
}

type Fetcher[T any] func(ctx context.Context, k Key) (T, error)

type entry[T any] struct {
	data      T
	fetchedAt time.Time
}

// Cache keeps fetched results fresh for StaleTime and collapses concurrent fetches of the same key.
// A shared fetch outlives the caller that started it, up to FetchTimeout.
type Cache[T any] struct {
	StaleTime    time.Duration
	FetchTimeout time.Duration

	mu      sync.RWMutex
	entries map[string]entry[T]
	group   singleflight.Group
	fetch   Fetcher[T]
}

func NewCache[T any](fetch Fetcher[T], staleTime time.Duration) *Cache[T] {
	return &Cache[T]{
		StaleTime:    staleTime,
		FetchTimeout: DefaultFetchTimeout,
		entries:      make(map[string]entry[T]),
		fetch:        fetch,
	}
}

// Peek returns the cached data for k, fresh or not.
func (c *Cache[T]) Peek(k Key) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ent, ok := c.entries[k.String()]
	return ent.data, ok
}

func (c *Cache[T]) fresh(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ent, ok := c.entries[key]
	if !ok || NowFunc().Sub(ent.fetchedAt) >= c.StaleTime {
		var zero T
		return zero, false
	}
	return ent.data, true
}

// Get returns fresh cached data for k or fetches it. Concurrent calls for the same key share one fetch;
// a cancelled caller stops waiting without cancelling the fetch of the others.
func (c *Cache[T]) Get(ctx context.Context, k Key) (T, error) {
	var zero T
	key := k.String()
	if data, ok := c.fresh(key); ok {
		return data, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout())
		defer cancel()

		data, err := c.fetch(fetchCtx, k)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry[T]{data: data, fetchedAt: NowFunc()}
		c.mu.Unlock()
		return data, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, errors.Wrapf(res.Err, "fetching %s", key)
		}
		return res.Val.(T), nil
	}
}

func (c *Cache[T]) fetchTimeout() time.Duration {
	if c.FetchTimeout <= 0 {
		return DefaultFetchTimeout
	}
	return c.FetchTimeout
}

// Invalidate drops every cached entry of resource.
func (c *Cache[T]) Invalidate(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) > len(resource) && key[:len(resource)+1] == resource+"?" {
			delete(c.entries, key)
		}
	}
}
