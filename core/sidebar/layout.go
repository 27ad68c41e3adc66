package sidebar

import "github.com/pkg/errors"

const (
	Width       = "16rem"
	WidthMobile = "18rem"
	WidthIcon   = "3rem"
)

// Collapsible is how the sidebar hides when not expanded.
type Collapsible string

const (
	CollapsibleOffcanvas Collapsible = "offcanvas"
	CollapsibleIcon      Collapsible = "icon"
	CollapsibleNone      Collapsible = "none"
)

type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

type Variant string

const (
	VariantSidebar  Variant = "sidebar"
	VariantFloating Variant = "floating"
	VariantInset    Variant = "inset"
)

// Strategy is the render strategy of the sidebar component.
type Strategy string

const (
	StrategyStatic Strategy = "static" // never collapses
	StrategySheet  Strategy = "sheet"  // mobile overlay
	StrategyRail   Strategy = "rail"   // desktop panel + rail
)

// VisualMode is the one visual mode active on a given render.
type VisualMode string

const (
	ModeExpanded        VisualMode = "expanded"
	ModeIconCollapsed   VisualMode = "icon-collapsed"
	ModeOffcanvasHidden VisualMode = "offcanvas-hidden"
)

// Config is the consumer side configuration of the sidebar component.
type Config struct {
	Collapsible Collapsible
	Side        Side
	Variant     Variant
}

// Normalize fills unset fields with defaults (offcanvas, left, sidebar).
func (c Config) Normalize() Config {
	if c.Collapsible == "" {
		c.Collapsible = CollapsibleOffcanvas
	}
	if c.Side == "" {
		c.Side = SideLeft
	}
	if c.Variant == "" {
		c.Variant = VariantSidebar
	}
	return c
}

func (c Config) Validate() error {
	switch c.Collapsible {
	case CollapsibleOffcanvas, CollapsibleIcon, CollapsibleNone:
	default:
		return errors.Errorf("invalid collapsible %q", c.Collapsible)
	}
	switch c.Side {
	case SideLeft, SideRight:
	default:
		return errors.Errorf("invalid side %q", c.Side)
	}
	switch c.Variant {
	case VariantSidebar, VariantFloating, VariantInset:
	default:
		return errors.Errorf("invalid variant %q", c.Variant)
	}
	return nil
}

// Layout is everything a template needs to draw the sidebar for one render.
type Layout struct {
	Strategy    Strategy
	Mode        VisualMode
	State       State
	Collapsible Collapsible
	Side        Side
	Variant     Variant
	Width       string // width of the panel
	GapWidth    string // space reserved in the page flow
	OpenMobile  bool
}

// Resolve computes the strategy and visual mode from (state, collapsible, isMobile) only.
func Resolve(state State, collapsible Collapsible, isMobile bool) (Strategy, VisualMode) {
	switch {
	case collapsible == CollapsibleNone:
		return StrategyStatic, ModeExpanded
	case isMobile:
		// the sheet overlays the page, nothing is reserved in the flow
		return StrategySheet, ModeOffcanvasHidden
	case state == Expanded:
		return StrategyRail, ModeExpanded
	case collapsible == CollapsibleIcon:
		return StrategyRail, ModeIconCollapsed
	default:
		return StrategyRail, ModeOffcanvasHidden
	}
}

// Layout resolves the render layout from one consistent snapshot of the provider.
func (p *Provider) Layout(cfg Config) Layout {
	cfg = cfg.Normalize()
	snap := p.Snapshot()
	strategy, mode := Resolve(snap.State, cfg.Collapsible, snap.IsMobile)

	l := Layout{
		Strategy:    strategy,
		Mode:        mode,
		State:       snap.State,
		Collapsible: cfg.Collapsible,
		Side:        cfg.Side,
		Variant:     cfg.Variant,
		OpenMobile:  snap.OpenMobile,
	}
	switch mode {
	case ModeExpanded:
		l.Width, l.GapWidth = Width, Width
	case ModeIconCollapsed:
		l.Width, l.GapWidth = WidthIcon, WidthIcon
	case ModeOffcanvasHidden:
		l.Width, l.GapWidth = Width, "0"
	}
	if strategy == StrategySheet {
		l.Width = WidthMobile
	}
	return l
}
