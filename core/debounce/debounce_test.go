package debounce

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock records scheduled funcs instead of running timers.
type fakeClock struct {
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (ft *fakeTimer) Stop() bool {
	wasActive := !ft.stopped && !ft.fired
	ft.stopped = true
	return wasActive
}

func (fc *fakeClock) afterFunc(d time.Duration, fn func()) Timer {
	ft := &fakeTimer{at: fc.now + d, fn: fn}
	fc.timers = append(fc.timers, ft)
	return ft
}

// advance moves the clock, firing due timers in order. Stopped timers still fire when forced,
// simulating a callback that raced with Stop.
func (fc *fakeClock) advance(d time.Duration, force bool) {
	fc.now += d
	due := make([]*fakeTimer, 0)
	for _, ft := range fc.timers {
		if !ft.fired && ft.at <= fc.now && (force || !ft.stopped) {
			due = append(due, ft)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, ft := range due {
		ft.fired = true
		ft.fn()
	}
}

func useFakeClock(t *testing.T) *fakeClock {
	fc := &fakeClock{}
	orig := AfterFunc
	AfterFunc = fc.afterFunc
	t.Cleanup(func() { AfterFunc = orig })
	return fc
}

func TestSearchDelay(t *testing.T) {
	tests := []struct {
		term string
		want time.Duration
	}{
		{"", TermDelay},
		{"a", ShortTermDelay},
		{"go", ShortTermDelay},
		{"éé", ShortTermDelay},
		{"php", TermDelay},
		{"golang", TermDelay},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SearchDelay(tt.term), "%q", tt.term)
	}
}

func TestDebouncer_SettlesOncePerQuietPeriod(t *testing.T) {
	fc := useFakeClock(t)
	var settled []string
	d := New("", SearchDelay, func(v string) { settled = append(settled, v) })

	d.Push("m")
	d.Push("ma")
	d.Push("mat")
	d.Push("math")
	assert.Equal(t, "math", d.Draft())
	assert.Equal(t, "", d.Value())
	assert.True(t, d.Pending())

	fc.advance(399*time.Millisecond, false)
	assert.Empty(t, settled)

	fc.advance(time.Millisecond, false)
	assert.Equal(t, []string{"math"}, settled)
	assert.Equal(t, "math", d.Value())
	assert.False(t, d.Pending())
}

func TestDebouncer_OnlyLatestTimerSettles(t *testing.T) {
	fc := useFakeClock(t)
	var settled []string
	d := New("", SearchDelay, func(v string) { settled = append(settled, v) })

	d.Push("ab")  // 800ms
	d.Push("abc") // 400ms

	// the stale timer fires anyway
	fc.advance(time.Second, true)
	assert.Equal(t, []string{"abc"}, settled)
}

func TestDebouncer_UnchangedValueDoesNotSettle(t *testing.T) {
	fc := useFakeClock(t)
	calls := 0
	d := New("math", SearchDelay, func(string) { calls++ })

	d.Push("mathx")
	d.Push("math")
	fc.advance(time.Second, false)
	assert.Zero(t, calls)
	assert.Equal(t, "math", d.Value())
}

func TestDebouncer_FlushAndStop(t *testing.T) {
	fc := useFakeClock(t)
	var settled []string
	d := New("", SearchDelay, func(v string) { settled = append(settled, v) })

	d.Push("biology")
	d.Flush()
	assert.Equal(t, []string{"biology"}, settled)
	fc.advance(time.Second, true)
	assert.Equal(t, []string{"biology"}, settled, "flushed timer is stale")

	d.Push("chemistry")
	d.Stop()
	d.Stop()
	fc.advance(time.Second, true)
	assert.Equal(t, []string{"biology"}, settled, "stopped debouncer never settles")

	d.Push("physics")
	assert.Equal(t, "chemistry", d.Draft(), "pushes ignored after stop")
	assert.False(t, d.Pending())
}

func TestDebouncer_RealTimer(t *testing.T) {
	done := make(chan int, 1)
	d := New(0, func(int) time.Duration { return 10 * time.Millisecond }, func(v int) { done <- v })
	defer d.Stop()

	d.Push(1)
	d.Push(2)
	select {
	case v := <-done:
		assert.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("value never settled")
	}
}
