// Package keyboard models global keydown listeners (a browser window's keydown subscriptions).
package keyboard

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Event is a keydown event.
type Event struct {
	Key   string `json:"key"`
	Meta  bool   `json:"metaKey"`
	Ctrl  bool   `json:"ctrlKey"`
	Alt   bool   `json:"altKey"`
	Shift bool   `json:"shiftKey"`

	defaultPrevented bool
}

// PreventDefault suppresses the default handling of the key combination.
func (ev *Event) PreventDefault() { ev.defaultPrevented = true }

func (ev *Event) DefaultPrevented() bool { return ev.defaultPrevented }

type Listener func(ev *Event)

// Window holds the global keydown listeners of one page.
type Window struct {
	mu        sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64
}

func NewWindow() *Window {
	return &Window{listeners: make(map[uint64]Listener)}
}

// AddListener subscribes fn to keydown events. The returned func removes it; calling it more than once is a no-op.
func (w *Window) AddListener(fn Listener) (remove func()) {
	w.mu.Lock()
	w.nextID++
	id := w.nextID
	w.listeners[id] = fn
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.listeners, id)
			w.mu.Unlock()
		})
	}
}

// Dispatch delivers ev to every listener, in subscription order.
func (w *Window) Dispatch(ev *Event) {
	w.mu.Lock()
	ids := make([]uint64, 0, len(w.listeners))
	for id := range w.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, w.listeners[id])
	}
	w.mu.Unlock()

	// listeners may (un)subscribe while handling
	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of live listeners.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}

// Shortcut is a letter key pressed together with the platform modifier (meta or ctrl).
type Shortcut struct {
	Key string
}

// Matches reports whether ev is the shortcut: exact key, meta or ctrl held, neither alt nor shift.
func (s Shortcut) Matches(ev Event) bool {
	return ev.Key == s.Key && (ev.Meta || ev.Ctrl) && !ev.Alt && !ev.Shift
}

// Guard is the same predicate as a JS expression over a KeyboardEvent named `evt`.
func (s Shortcut) Guard() string {
	return fmt.Sprintf("evt.key === %q && (evt.metaKey || evt.ctrlKey) && !evt.altKey && !evt.shiftKey", s.Key)
}

func (s Shortcut) String() string {
	return "Ctrl+" + strings.ToUpper(s.Key)
}
