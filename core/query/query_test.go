package query

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_String(t *testing.T) {
	a := Key{Resource: "courses", Search: "math", Page: 2, PerPage: 10, Filters: map[string]string{"level": "1", "teacher": "x"}}
	b := Key{Resource: "courses", PerPage: 10, Page: 2, Filters: map[string]string{"teacher": "x", "level": "1"}, Search: "math"}
	assert.Equal(t, a.String(), b.String())

	b.Page = 3
	assert.NotEqual(t, a.String(), b.String())
	assert.NotEqual(t, Key{Resource: "courses"}.String(), Key{Resource: "blogs"}.String())
}

func TestCache_Freshness(t *testing.T) {
	now := time.Date(2021, time.March, 1, 8, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	var calls int32
	cache := NewCache(func(_ context.Context, k Key) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}, time.Minute)

	k := Key{Resource: "courses", Page: 1}
	got, err := cache.Get(context.Background(), k)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, _ = cache.Get(context.Background(), k)
	assert.Equal(t, 1, got, "fresh")

	now = now.Add(time.Minute)
	got, _ = cache.Get(context.Background(), k)
	assert.Equal(t, 2, got, "stale")

	cache.Invalidate("courses")
	_, ok := cache.Peek(k)
	assert.False(t, ok)
}

func TestCache_CollapsesConcurrentFetches(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	cache := NewCache(func(_ context.Context, k Key) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return k.Search, nil
	}, time.Minute)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = cache.Get(context.Background(), Key{Resource: "users", Search: "ana"})
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, res := range results {
		assert.Equal(t, "ana", res)
	}
}

func TestCache_CancelledCallerLeavesSharedFetch(t *testing.T) {
	started, release := make(chan struct{}), make(chan struct{})
	var calls int32
	cache := NewCache(func(ctx context.Context, k Key) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return "rows for " + k.Search, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}, time.Minute)
	k := Key{Resource: "courses", Search: "algebra", Page: 1}

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(first, k)
		firstErr <- err
	}()
	<-started

	type result struct {
		data string
		err  error
	}
	second := make(chan result, 1)
	go func() {
		data, err := cache.Get(context.Background(), k)
		second <- result{data, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "rows for algebra", res.data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	cached, ok := cache.Peek(k)
	assert.True(t, ok)
	assert.Equal(t, "rows for algebra", cached)
}

func TestCache_FetchTimeout(t *testing.T) {
	cache := NewCache(func(ctx context.Context, _ Key) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}, time.Minute)
	cache.FetchTimeout = 20 * time.Millisecond

	_, err := cache.Get(context.Background(), Key{Resource: "blogs"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCache_ContextCancelled(t *testing.T) {
	cache := NewCache(func(ctx context.Context, _ Key) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}, time.Minute)
	cache.FetchTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.Get(ctx, Key{Resource: "blogs"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObserver_LastCommittedKeyWins(t *testing.T) {
	gates := map[string]chan struct{}{"a": make(chan struct{}), "b": make(chan struct{})}
	cache := NewCache(func(_ context.Context, k Key) (string, error) {
		<-gates[k.Search]
		return "rows for " + k.Search, nil
	}, time.Minute)

	var mu sync.Mutex
	var statuses []FetchStatus
	obs := NewObserver(context.Background(), cache, func(s Snapshot[string]) {
		mu.Lock()
		statuses = append(statuses, s.Status)
		mu.Unlock()
	})
	defer obs.Close()

	obs.SetKey(Key{Resource: "courses", Search: "a"})
	obs.SetKey(Key{Resource: "courses", Search: "b"})
	assert.Equal(t, StatusFetching, obs.Snapshot().Status)

	close(gates["b"])
	time.Sleep(20 * time.Millisecond)
	close(gates["a"]) // late response for a superseded key
	obs.Wait()

	snap := obs.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, "rows for b", snap.Data)
	assert.Equal(t, "b", snap.Key.Search)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []FetchStatus{StatusFetching, StatusFetching, StatusIdle}, statuses)
}

func TestObserver_KeepsPreviousData(t *testing.T) {
	gate := make(chan struct{})
	cache := NewCache(func(_ context.Context, k Key) (int, error) {
		if k.Page == 2 {
			<-gate
		}
		return k.Page * 10, nil
	}, time.Minute)
	obs := NewObserver[int](context.Background(), cache, nil)
	defer obs.Close()

	obs.SetKey(Key{Resource: "courses", Page: 1})
	obs.Wait()
	assert.Equal(t, 10, obs.Snapshot().Data)

	obs.SetKey(Key{Resource: "courses", Page: 1})
	assert.Equal(t, StatusIdle, obs.Snapshot().Status, "same key, already loaded")

	obs.SetKey(Key{Resource: "courses", Page: 2})
	snap := obs.Snapshot()
	assert.Equal(t, StatusFetching, snap.Status)
	assert.True(t, snap.HasData)
	assert.Equal(t, 10, snap.Data, "previous page kept while fetching")

	close(gate)
	obs.Wait()
	assert.Equal(t, 20, obs.Snapshot().Data)
}

func TestObserver_Errors(t *testing.T) {
	cache := NewCache(func(_ context.Context, k Key) (int, error) {
		if k.Resource == "offline" {
			return 0, errors.Wrap(ErrUnavailable, "dial tcp")
		}
		return 0, errors.New("boom")
	}, time.Minute)
	obs := NewObserver[int](context.Background(), cache, nil)
	defer obs.Close()

	obs.SetKey(Key{Resource: "offline"})
	obs.Wait()
	assert.Equal(t, StatusPaused, obs.Snapshot().Status)

	obs.SetKey(Key{Resource: "broken"})
	obs.Wait()
	snap := obs.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Error(t, snap.Err)
	assert.False(t, snap.HasData)
}

func TestObserver_CloseStopsWaiting(t *testing.T) {
	started := make(chan struct{})
	cache := NewCache(func(ctx context.Context, _ Key) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	}, time.Minute)
	cache.FetchTimeout = 50 * time.Millisecond
	var changes int32
	obs := NewObserver(context.Background(), cache, func(Snapshot[int]) { atomic.AddInt32(&changes, 1) })

	obs.SetKey(Key{Resource: "courses"})
	<-started
	obs.Close()
	obs.Close()
	obs.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&changes), "no update after close")
	obs.SetKey(Key{Resource: "blogs"})
	assert.Equal(t, int32(1), atomic.LoadInt32(&changes))
}
