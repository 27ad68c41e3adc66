package echoportal

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core/keyboard"
	"github.com/trezcool/masomo-web/core/sidebar"
)

// sidebarResponse is the sidebar state the client applies after a toggle.
type sidebarResponse struct {
	sidebar.Snapshot
	Strategy  sidebar.Strategy   `json:"strategy"`
	Mode      sidebar.VisualMode `json:"mode"`
	Width     string             `json:"width"`
	GapWidth  string             `json:"gap_width"`
	Prevented bool               `json:"prevented"`
}

func newSidebarResponse(p *sidebar.Provider) sidebarResponse {
	layout := p.Layout(sidebarConfig)
	return sidebarResponse{
		Snapshot: p.Snapshot(),
		Strategy: layout.Strategy,
		Mode:     layout.Mode,
		Width:    layout.Width,
		GapWidth: layout.GapWidth,
	}
}

// restore applies the client side state the request carries to the provider of the request.
func (req sidebarRequest) restore(p *sidebar.Provider) {
	if req.Width > 0 {
		p.Resize(req.Width)
	}
	p.SetOpenMobile(req.OpenMobile)
}

// toggleSidebar flips the mobile overlay on mobile and the persisted open flag on desktop.
func (s *server) toggleSidebar(ctx echo.Context) error {
	var req sidebarRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding sidebar request")
	}
	if err := s.Validate.Struct(req); err != nil {
		return err
	}

	p := getSidebar(ctx)
	req.restore(p)
	p.ToggleSidebar()
	return ctx.JSON(http.StatusOK, newSidebarResponse(p))
}

type keydownRequest struct {
	keyboard.Event
	sidebarRequest
}

// sidebarKeydown delivers a keydown event to the sidebar shortcut listener.
func (s *server) sidebarKeydown(ctx echo.Context) error {
	var req keydownRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding keydown request")
	}
	if err := s.Validate.Struct(req.sidebarRequest); err != nil {
		return err
	}

	p := getSidebar(ctx)
	req.restore(p)

	window := keyboard.NewWindow()
	p.Mount(window)
	ev := req.Event
	window.Dispatch(&ev)

	res := newSidebarResponse(p)
	res.Prevented = ev.DefaultPrevented()
	p.Unmount()
	return ctx.JSON(http.StatusOK, res)
}
