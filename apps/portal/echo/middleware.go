package echoportal

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-web/core/prefs"
	"github.com/trezcool/masomo-web/core/sidebar"
)

const (
	clientCookie       = "client_id"
	clientCookieMaxAge = 365 * 24 * time.Hour
	contextClientKey   = "clientID"
)

// cookieStore is the prefs.Store of one request: it reads the request cookies and writes Set-Cookie headers.
// Reads see the writes made earlier in the same request.
type cookieStore struct {
	ctx     echo.Context
	written map[string]string
}

var _ prefs.Store = (*cookieStore)(nil)

func newCookieStore(ctx echo.Context) *cookieStore {
	return &cookieStore{ctx: ctx, written: make(map[string]string)}
}

func (cs *cookieStore) Get(key string) null.String {
	if val, ok := cs.written[key]; ok {
		return null.StringFrom(val)
	}
	cookie, err := cs.ctx.Cookie(key)
	if err != nil {
		return null.String{}
	}
	return null.StringFrom(cookie.Value)
}

func (cs *cookieStore) Set(key, value string, ttl time.Duration) error {
	cookie := &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
	}
	cs.ctx.SetCookie(cookie)
	cs.written[key] = value
	return nil
}

// clientMiddleware identifies the browser with a long lived random id (search sessions, server side prefs).
func clientMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var id string
		if cookie, err := ctx.Cookie(clientCookie); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			ctx.SetCookie(&http.Cookie{
				Name:     clientCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(clientCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx.Set(contextClientKey, id)
		return next(ctx)
	}
}

func getClientID(ctx echo.Context) string {
	id, _ := ctx.Get(contextClientKey).(string)
	return id
}

// sidebarMiddleware gives every request its own sidebar provider, initialized from the preference store
// and the viewport hints of the request.
func (s *server) sidebarMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		provider := sidebar.NewProvider(sidebar.Options{
			DefaultOpen: true,
			Store:       s.prefsFor(ctx),
			IsMobile:    isMobileRequest(ctx.Request()),
		})
		req := ctx.Request()
		ctx.SetRequest(req.WithContext(sidebar.NewContext(req.Context(), provider)))
		ctx.Response().Header().Add("Accept-CH", "Sec-CH-Viewport-Width")
		return next(ctx)
	}
}

func (s *server) prefsFor(ctx echo.Context) prefs.Store {
	if s.Prefs != nil {
		return s.Prefs.For(getClientID(ctx))
	}
	return newCookieStore(ctx)
}

// getSidebar panics when the request did not go through sidebarMiddleware.
func getSidebar(ctx echo.Context) *sidebar.Provider {
	return sidebar.MustFromContext(ctx.Request().Context())
}

// viewportWidth reads the client hints, 0 when unknown.
func viewportWidth(r *http.Request) int {
	for _, header := range []string{"Sec-CH-Viewport-Width", "Viewport-Width"} {
		if w, err := strconv.Atoi(strings.TrimSpace(r.Header.Get(header))); err == nil && w > 0 {
			return w
		}
	}
	return 0
}

func isMobileRequest(r *http.Request) bool {
	if w := viewportWidth(r); w > 0 {
		return sidebar.IsMobileWidth(w)
	}
	if mobile := r.Header.Get("Sec-CH-UA-Mobile"); mobile != "" {
		return mobile == "?1"
	}
	return strings.Contains(r.UserAgent(), "Mobi")
}

// isAPIRequest reports whether the client expects data (JSON, SSE) rather than a page.
func isAPIRequest(r *http.Request) bool {
	if r.Header.Get("Datastar-Request") != "" || strings.HasPrefix(r.URL.Path, "/ui/") {
		return true
	}
	accept := r.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}
