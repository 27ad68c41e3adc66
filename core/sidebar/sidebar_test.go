package sidebar

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-web/core/keyboard"
	"github.com/trezcool/masomo-web/core/prefs"
)

type brokenStore struct{ sets int }

func (s *brokenStore) Get(string) null.String { return null.String{} }

func (s *brokenStore) Set(string, string, time.Duration) error {
	s.sets++
	return errors.New("document is not defined")
}

func TestNewProvider(t *testing.T) {
	stored := func(v string) prefs.Store {
		s := prefs.NewMemory()
		_ = s.Set(CookieName, v, CookieMaxAge)
		return s
	}

	tests := []struct {
		name string
		opts Options
		want State
	}{
		{name: "default open", opts: Options{DefaultOpen: true}, want: Expanded},
		{name: "default closed", opts: Options{}, want: Collapsed},
		{name: "nil store", opts: Options{DefaultOpen: true, Store: nil}, want: Expanded},
		{name: "persisted true", opts: Options{Store: stored("true")}, want: Expanded},
		{name: "persisted false", opts: Options{DefaultOpen: true, Store: stored("false")}, want: Collapsed},
		{name: "unparsable", opts: Options{DefaultOpen: true, Store: stored("maybe")}, want: Expanded},
		{name: "broken store", opts: Options{DefaultOpen: true, Store: &brokenStore{}}, want: Expanded},
		{name: "controlled wins", opts: Options{Open: null.BoolFrom(false), DefaultOpen: true, Store: stored("true")}, want: Collapsed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(tt.opts)
			assert.Equal(t, tt.want, p.State())
			assert.Equal(t, tt.want == Expanded, p.Open())
		})
	}
}

func TestProvider_CookieRoundTrip(t *testing.T) {
	for _, b := range []bool{true, false} {
		store := prefs.NewMemory()
		NewProvider(Options{DefaultOpen: !b, Store: store}).SetOpen(b)

		assert.Equal(t, b, NewProvider(Options{DefaultOpen: !b, Store: store}).Open(), "next mount sees %v", b)
	}
}

func TestProvider_StateIsDerived(t *testing.T) {
	p := NewProvider(Options{DefaultOpen: true})
	for _, open := range []bool{false, true, true, false} {
		p.SetOpen(open)
		snap := p.Snapshot()
		assert.Equal(t, open, snap.Open)
		assert.Equal(t, open, snap.State == Expanded)
	}
	p.UpdateOpen(func(prev bool) bool { return !prev })
	p.UpdateOpen(func(prev bool) bool { return !prev })
	assert.Equal(t, Collapsed, p.State(), "two updater toggles")
}

func TestProvider_Controlled(t *testing.T) {
	store := prefs.NewMemory()
	var got []bool
	p := NewProvider(Options{
		Open:         null.BoolFrom(true),
		OnOpenChange: func(open bool) { got = append(got, open) },
		Store:        store,
	})

	p.ToggleSidebar()
	assert.Equal(t, []bool{false}, got, "handler receives the next value")
	assert.Equal(t, Expanded, p.State(), "parent owns the value")
	assert.Equal(t, "false", store.Get(CookieName).String, "cookie written in controlled mode")

	p.SetControlled(null.BoolFrom(false))
	assert.Equal(t, Collapsed, p.State())

	p.SetControlled(null.Bool{})
	assert.Equal(t, false, p.Open(), "back to the local value")
}

func TestProvider_ControlledWithoutHandler(t *testing.T) {
	p := NewProvider(Options{Open: null.BoolFrom(true)})
	p.SetOpen(false)
	assert.Equal(t, Expanded, p.State(), "controlled value still wins")

	p.SetControlled(null.Bool{})
	assert.Equal(t, Collapsed, p.State(), "local value was tracked")
}

func TestProvider_StoreErrorsSwallowed(t *testing.T) {
	store := &brokenStore{}
	p := NewProvider(Options{DefaultOpen: true, Store: store})
	assert.NotPanics(t, func() { p.ToggleSidebar() })
	assert.Equal(t, Collapsed, p.State())
	assert.Equal(t, 1, store.sets)
}

func TestProvider_Mobile(t *testing.T) {
	store := prefs.NewMemory()
	p := NewProvider(Options{DefaultOpen: true, Store: store, IsMobile: true})

	p.ToggleSidebar()
	assert.True(t, p.OpenMobile())
	assert.Equal(t, Expanded, p.State(), "desktop flag untouched")
	assert.False(t, store.Get(CookieName).Valid, "mobile overlay never persisted")

	p.ToggleSidebar()
	assert.False(t, p.OpenMobile())

	p.Resize(1280)
	assert.False(t, p.IsMobile())
	p.ToggleSidebar()
	assert.Equal(t, Collapsed, p.State())
	assert.Equal(t, "false", store.Get(CookieName).String)

	p.Resize(500)
	assert.True(t, p.IsMobile())
}

func TestIsMobileWidth(t *testing.T) {
	assert.True(t, IsMobileWidth(375))
	assert.True(t, IsMobileWidth(767))
	assert.False(t, IsMobileWidth(768))
	assert.False(t, IsMobileWidth(0), "unknown width")
}

func TestProvider_Shortcut(t *testing.T) {
	// cookie absent, defaultOpen, desktop: Ctrl+B collapses and rewrites the cookie
	store := prefs.NewMemory()
	w := keyboard.NewWindow()
	p := NewProvider(Options{DefaultOpen: true, Store: store})
	p.Mount(w)
	defer p.Unmount()

	require.Equal(t, Expanded, p.State())

	ev := &keyboard.Event{Key: "b", Ctrl: true}
	w.Dispatch(ev)
	assert.Equal(t, Collapsed, p.State())
	assert.Equal(t, "false", store.Get(CookieName).String)
	assert.True(t, ev.DefaultPrevented())

	for _, ev := range []*keyboard.Event{
		{Key: "b"},
		{Key: "b", Ctrl: true, Alt: true},
		{Key: "b", Meta: true, Shift: true},
		{Key: "n", Meta: true},
	} {
		w.Dispatch(ev)
		assert.Equal(t, Collapsed, p.State(), "%+v must not toggle", *ev)
		assert.False(t, ev.DefaultPrevented())
	}

	w.Dispatch(&keyboard.Event{Key: "b", Meta: true})
	assert.Equal(t, Expanded, p.State())
}

func TestProvider_MountIdempotent(t *testing.T) {
	w := keyboard.NewWindow()
	p := NewProvider(Options{DefaultOpen: true})

	for i := 0; i < 3; i++ {
		p.Mount(w)
	}
	assert.Equal(t, 1, w.Len(), "one listener per mounted provider")

	w.Dispatch(&keyboard.Event{Key: "b", Ctrl: true})
	assert.Equal(t, Collapsed, p.State(), "one toggle per keypress")

	p.SetOpenMobile(true)
	p.Unmount()
	p.Unmount()
	assert.Zero(t, w.Len(), "no leaked listener")
	assert.False(t, p.OpenMobile())

	w.Dispatch(&keyboard.Event{Key: "b", Ctrl: true})
	assert.Equal(t, Collapsed, p.State(), "unmounted provider ignores keys")
}

func TestResolve(t *testing.T) {
	tests := []struct {
		state       State
		collapsible Collapsible
		mobile      bool
		strategy    Strategy
		mode        VisualMode
	}{
		{Expanded, CollapsibleNone, false, StrategyStatic, ModeExpanded},
		{Collapsed, CollapsibleNone, true, StrategyStatic, ModeExpanded},
		{Expanded, CollapsibleOffcanvas, true, StrategySheet, ModeOffcanvasHidden},
		{Collapsed, CollapsibleIcon, true, StrategySheet, ModeOffcanvasHidden},
		{Expanded, CollapsibleIcon, false, StrategyRail, ModeExpanded},
		{Expanded, CollapsibleOffcanvas, false, StrategyRail, ModeExpanded},
		{Collapsed, CollapsibleIcon, false, StrategyRail, ModeIconCollapsed},
		{Collapsed, CollapsibleOffcanvas, false, StrategyRail, ModeOffcanvasHidden},
	}
	for _, tt := range tests {
		strategy, mode := Resolve(tt.state, tt.collapsible, tt.mobile)
		assert.Equal(t, tt.strategy, strategy, "%s/%s/mobile=%v", tt.state, tt.collapsible, tt.mobile)
		assert.Equal(t, tt.mode, mode, "%s/%s/mobile=%v", tt.state, tt.collapsible, tt.mobile)
	}
}

func TestProvider_Layout(t *testing.T) {
	p := NewProvider(Options{DefaultOpen: false})

	l := p.Layout(Config{Collapsible: CollapsibleIcon})
	assert.Equal(t, ModeIconCollapsed, l.Mode)
	assert.Equal(t, WidthIcon, l.Width)
	assert.Equal(t, SideLeft, l.Side)
	assert.Equal(t, VariantSidebar, l.Variant)

	l = p.Layout(Config{})
	assert.Equal(t, CollapsibleOffcanvas, l.Collapsible)
	assert.Equal(t, ModeOffcanvasHidden, l.Mode)
	assert.Equal(t, "0", l.GapWidth)

	p.SetOpen(true)
	l = p.Layout(Config{Side: SideRight})
	assert.Equal(t, ModeExpanded, l.Mode)
	assert.Equal(t, Width, l.Width)

	p.Resize(400)
	l = p.Layout(Config{})
	assert.Equal(t, StrategySheet, l.Strategy)
	assert.Equal(t, WidthMobile, l.Width)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{}.Normalize().Validate())
	assert.Error(t, Config{Collapsible: "folded"}.Normalize().Validate())
	assert.Error(t, Config{Side: "top"}.Normalize().Validate())
	assert.Error(t, Config{Variant: "glass"}.Normalize().Validate())
}

func TestContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.Equal(t, ErrNoProvider, err)
	assert.PanicsWithValue(t, ErrNoProvider, func() { MustFromContext(context.Background()) })

	p := NewProvider(Options{})
	ctx := NewContext(context.Background(), p)
	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, p, got)
}
