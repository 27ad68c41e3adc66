// Package sidebar owns the presentation state of the primary navigation panel:
// expanded/collapsed on desktop, a transient overlay on mobile, persisted in a preference store
// and toggled with a global keyboard shortcut.
package sidebar

import (
	"strconv"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-web/core/keyboard"
	"github.com/trezcool/masomo-web/core/prefs"
)

const (
	CookieName       = "sidebar_state"
	CookieMaxAge     = 7 * 24 * time.Hour // 604800 seconds
	MobileBreakpoint = 768                // px
)

// Shortcut toggles the sidebar (Ctrl+B / Cmd+B).
var Shortcut = keyboard.Shortcut{Key: "b"}

// State is the derived, exposed open state. Consumers branch on it, never on the raw open flag.
type State string

const (
	Expanded  State = "expanded"
	Collapsed State = "collapsed"
)

// StateOf maps the open flag to a State.
func StateOf(open bool) State {
	if open {
		return Expanded
	}
	return Collapsed
}

// Options configure a Provider.
type Options struct {
	// DefaultOpen is used when neither a controlled value nor a persisted preference exists.
	DefaultOpen bool
	// Open puts the provider in controlled mode when valid: the parent owns the value.
	Open null.Bool
	// OnOpenChange receives every open change in controlled mode instead of local state.
	OnOpenChange func(open bool)
	// Store persists the open flag. nil means no persistence (eg. pre-render).
	Store prefs.Store
	// IsMobile is the initial viewport classification.
	IsMobile bool
}

// Snapshot is a consistent read of the provider state.
type Snapshot struct {
	State      State `json:"state"`
	Open       bool  `json:"open"`
	OpenMobile bool  `json:"open_mobile"`
	IsMobile   bool  `json:"is_mobile"`
}

// Provider is the single writer of one page tree's sidebar state; children get it injected.
type Provider struct {
	mu           sync.RWMutex
	open         bool // uncontrolled value
	controlled   null.Bool
	openMobile   bool
	isMobile     bool
	onOpenChange func(bool)
	store        prefs.Store
	unmount      func()
}

// NewProvider initializes the sidebar state: controlled value first, then the persisted preference,
// then DefaultOpen. It never blocks and never fails.
func NewProvider(opts Options) *Provider {
	p := &Provider{
		open:         opts.DefaultOpen,
		controlled:   opts.Open,
		onOpenChange: opts.OnOpenChange,
		store:        opts.Store,
		isMobile:     opts.IsMobile,
	}
	if !p.controlled.Valid {
		if persisted, ok := readPersisted(p.store); ok {
			p.open = persisted
		}
	}
	return p
}

func readPersisted(store prefs.Store) (bool, bool) {
	if store == nil {
		return false, false
	}
	val := store.Get(CookieName)
	if !val.Valid {
		return false, false
	}
	open, err := strconv.ParseBool(val.String)
	if err != nil {
		return false, false
	}
	return open, true
}

func (p *Provider) currentOpen() bool {
	if p.controlled.Valid {
		return p.controlled.Bool
	}
	return p.open
}

// State returns the derived state.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return StateOf(p.currentOpen())
}

// Open returns the effective desktop open flag.
func (p *Provider) Open() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentOpen()
}

func (p *Provider) OpenMobile() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.openMobile
}

func (p *Provider) IsMobile() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isMobile
}

func (p *Provider) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	open := p.currentOpen()
	return Snapshot{
		State:      StateOf(open),
		Open:       open,
		OpenMobile: p.openMobile,
		IsMobile:   p.isMobile,
	}
}

// SetOpen sets the desktop open flag.
func (p *Provider) SetOpen(open bool) {
	p.UpdateOpen(func(bool) bool { return open })
}

// UpdateOpen computes the next open flag from the current one.
// In controlled mode with an OnOpenChange handler the handler receives the value and local state is left alone.
// The resolved value is always persisted.
func (p *Provider) UpdateOpen(update func(prev bool) bool) {
	p.mu.Lock()
	next := update(p.currentOpen())
	handler := p.onOpenChange
	if !(p.controlled.Valid && handler != nil) {
		p.open = next
		handler = nil
	}
	store := p.store
	p.mu.Unlock()

	if handler != nil {
		handler(next)
	}
	if store != nil {
		_ = store.Set(CookieName, strconv.FormatBool(next), CookieMaxAge) // no store available: keep defaults
	}
}

// SetControlled updates the parent-owned value; an invalid value returns to uncontrolled mode.
func (p *Provider) SetControlled(open null.Bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.controlled = open
}

// SetOpenMobile sets the transient mobile overlay flag. It is never persisted.
func (p *Provider) SetOpenMobile(open bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openMobile = open
}

// ToggleSidebar flips the mobile overlay on mobile and the persisted desktop flag otherwise.
func (p *Provider) ToggleSidebar() {
	p.mu.Lock()
	if p.isMobile {
		p.openMobile = !p.openMobile
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.UpdateOpen(func(prev bool) bool { return !prev })
}

// Resize reclassifies the viewport.
func (p *Provider) Resize(width int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isMobile = IsMobileWidth(width)
}

// IsMobileWidth reports whether a viewport width (px) is below the mobile breakpoint.
func IsMobileWidth(width int) bool {
	return width > 0 && width < MobileBreakpoint
}

// Mount subscribes the shortcut listener to w. Mounting again first removes the previous listener.
func (p *Provider) Mount(w *keyboard.Window) {
	remove := w.AddListener(p.HandleKey)

	p.mu.Lock()
	prev := p.unmount
	p.unmount = remove
	p.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Unmount removes the shortcut listener and resets the transient mobile state. Safe to call repeatedly.
func (p *Provider) Unmount() {
	p.mu.Lock()
	remove := p.unmount
	p.unmount = nil
	p.openMobile = false
	p.mu.Unlock()

	if remove != nil {
		remove()
	}
}

// HandleKey toggles the sidebar when ev is the shortcut, suppressing the default action.
func (p *Provider) HandleKey(ev *keyboard.Event) {
	if !Shortcut.Matches(*ev) {
		return
	}
	ev.PreventDefault()
	p.ToggleSidebar()
}
