package query

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Snapshot is what an observer currently shows.
type Snapshot[T any] struct {
	Key     Key
	Data    T
	HasData bool
	Status  FetchStatus
	Err     error
}

// Observer follows one committed key at a time. Data of the previous key is kept while the next one
// is fetching, and results for keys that are no longer committed are dropped.
type Observer[T any] struct {
	cache    *Cache[T]
	onChange func(Snapshot[T])

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	key     Key
	keyStr  string
	data    T
	hasData bool
	status  FetchStatus
	err     error
	closed  bool
	wg      sync.WaitGroup

	notifyMu sync.Mutex
}

// NewObserver returns an idle observer. onChange (may be nil) is called after every state change
// with the state current at call time; calls never overlap.
func NewObserver[T any](ctx context.Context, cache *Cache[T], onChange func(Snapshot[T])) *Observer[T] {
	ctx, cancel := context.WithCancel(ctx)
	return &Observer[T]{
		cache:    cache,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
		status:   StatusIdle,
	}
}

func (o *Observer[T]) Snapshot() Snapshot[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

func (o *Observer[T]) snapshot() Snapshot[T] {
	return Snapshot[T]{Key: o.key, Data: o.data, HasData: o.hasData, Status: o.status, Err: o.err}
}

// SetKey commits k and fetches it in the background. Committing the current key again is a no-op
// unless the last fetch failed.
func (o *Observer[T]) SetKey(k Key) {
	ks := k.String()

	o.mu.Lock()
	if o.closed || (ks == o.keyStr && o.status == StatusFetching) || (ks == o.keyStr && o.hasData && o.err == nil) {
		o.mu.Unlock()
		return
	}
	o.key, o.keyStr = k, ks
	o.status, o.err = StatusFetching, nil
	ctx := o.ctx
	o.wg.Add(1)
	o.mu.Unlock()

	o.notify()
	go o.fetch(ctx, k, ks)
}

func (o *Observer[T]) fetch(ctx context.Context, k Key, ks string) {
	defer o.wg.Done()
	data, err := o.cache.Get(ctx, k)

	o.mu.Lock()
	if o.closed || ks != o.keyStr {
		// superseded by a later key
		o.mu.Unlock()
		return
	}
	switch {
	case err == nil:
		o.data, o.hasData, o.status = data, true, StatusIdle
	case errors.Is(err, ErrUnavailable):
		o.status, o.err = StatusPaused, err
	default:
		o.status, o.err = StatusIdle, err
	}
	o.mu.Unlock()

	o.notify()
}

func (o *Observer[T]) notify() {
	if o.onChange == nil {
		return
	}
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()
	o.onChange(o.Snapshot())
}

// Wait blocks until in-flight fetches returned.
func (o *Observer[T]) Wait() { o.wg.Wait() }

// Close stops waiting on the in-flight fetch; later results and keys are ignored. Safe to call repeatedly.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cancel()
}
