// Package debounce delays a value until it has stopped changing for a quiet period.
package debounce

import (
	"sync"
	"time"
	"unicode/utf8"
)

// Timer is the part of *time.Timer the debouncer uses.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn after d.
var AfterFunc = func(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) } // mockable

const (
	ShortTermDelay = 800 * time.Millisecond
	TermDelay      = 400 * time.Millisecond
)

// SearchDelay is the quiet period of a search box: longer for 1-2 rune terms.
func SearchDelay(s string) time.Duration {
	if n := utf8.RuneCountInString(s); n > 0 && n <= 2 {
		return ShortTermDelay
	}
	return TermDelay
}

// Debouncer holds a draft value and settles it once no new value was pushed for delay(draft).
type Debouncer[T comparable] struct {
	mu       sync.Mutex
	draft    T
	value    T
	gen      uint64
	timer    Timer
	stopped  bool
	delay    func(T) time.Duration
	onSettle func(T)
}

// New returns a Debouncer whose settled value starts at initial.
// onSettle is called (outside of the lock) each time the settled value changes. It may be nil.
func New[T comparable](initial T, delay func(T) time.Duration, onSettle func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		draft:    initial,
		value:    initial,
		delay:    delay,
		onSettle: onSettle,
	}
}

// Push stores v as the draft and restarts the quiet period. Only the latest timer settles.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.draft = v
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = AfterFunc(d.delay(v), func() { d.settle(gen) })
}

func (d *Debouncer[T]) settle(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	changed := d.value != d.draft
	d.value = d.draft
	value, fn := d.value, d.onSettle
	d.mu.Unlock()

	if changed && fn != nil {
		fn(value)
	}
}

// Flush settles the current draft immediately.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	gen := d.gen
	d.mu.Unlock()

	d.settle(gen)
}

// Stop cancels the pending timer; the debouncer ignores pushes afterwards. Safe to call repeatedly.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Draft returns the latest pushed value.
func (d *Debouncer[T]) Draft() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// Value returns the settled value.
func (d *Debouncer[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Pending reports whether a draft is waiting to settle.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
