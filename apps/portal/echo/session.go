package echoportal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/datatable"
	"github.com/trezcool/masomo-web/core/debounce"
	"github.com/trezcool/masomo-web/core/query"
)

type closer interface {
	close()
}

// sessionRegistry keeps the live search session of every (client, tab, screen).
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]closer
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]closer)}
}

func sessionKey(clientID, tab, path string) string {
	return clientID + " " + tab + " " + path
}

// open registers sess under key, closing the session it replaces (the same tab reconnecting).
func (r *sessionRegistry) open(key string, sess closer) {
	r.mu.Lock()
	prev := r.sessions[key]
	r.sessions[key] = sess
	r.mu.Unlock()

	if prev != nil {
		prev.close()
	}
}

func (r *sessionRegistry) get(key string) closer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[key]
}

// remove drops sess unless it was already replaced.
func (r *sessionRegistry) remove(key string, sess closer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[key] == sess {
		delete(r.sessions, key)
	}
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// closeAll closes every session (shutdown).
func (r *sessionRegistry) closeAll() {
	r.mu.Lock()
	sessions := make([]closer, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}

// searchSession is the live search of one browser tab on one screen: the draft search text settles through
// a debouncer, the settled value is written to the session URL and the matching page is observed.
// Every change pings updates; the SSE stream then sends the current state.
type searchSession[T any] struct {
	scr      *listScreen[T]
	key      string
	claims   Claims
	observer *query.Observer[core.Page[T]]
	search   *debounce.Debouncer[string]
	updates  chan struct{}
	done     chan struct{}
	once     sync.Once

	mu      sync.Mutex
	ctrl    *datatable.Controller
	replace string // URL to write with history.replaceState
}

func (scr *listScreen[T]) newSession(ctx context.Context, key string, u url.URL, claims Claims) *searchSession[T] {
	sess := &searchSession[T]{
		scr:     scr,
		key:     key,
		claims:  claims,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	sess.ctrl = datatable.NewController(u, datatable.Config{Navigate: sess.replaceState})
	sess.observer = query.NewObserver(ctx, scr.cache, func(query.Snapshot[core.Page[T]]) { sess.ping() })
	sess.search = debounce.New(sess.ctrl.Search(), debounce.SearchDelay, sess.settle)
	return sess
}

// ping wakes the stream up; pings are collapsed while the stream is busy.
func (sess *searchSession[T]) ping() {
	select {
	case sess.updates <- struct{}{}:
	default:
	}
}

// replaceState is the Navigator of the session controller. It runs with sess.mu held.
func (sess *searchSession[T]) replaceState(u *url.URL) error {
	sess.replace = u.RequestURI()
	return nil
}

// settle commits the settled search term: back to the first page, then observe the new key.
func (sess *searchSession[T]) settle(term string) {
	sess.mu.Lock()
	err := sess.ctrl.SetSearch(term)
	k := sess.scr.key(sess.ctrl, sess.claims)
	sess.mu.Unlock()

	if err != nil {
		sess.scr.srv.Logger.Error("search session: updating url", err, sess.claims.User())
		return
	}
	sess.observer.SetKey(k)
	sess.ping()
}

func (sess *searchSession[T]) push(term string) {
	sess.search.Push(term)
}

// send patches the table with the current state, then rewrites the address bar if the URL changed.
func (sess *searchSession[T]) send(sse *datastar.ServerSentEventGenerator) error {
	sess.mu.Lock()
	replace := sess.replace
	sess.replace = ""
	data := sess.scr.table(sess.ctrl, sess.observer.Snapshot())
	sess.mu.Unlock()

	html, err := sess.scr.srv.renderer.fragment("table", data)
	if err != nil {
		return err
	}
	if err = sse.PatchElements(html); err != nil {
		return errors.Wrap(err, "patching table")
	}
	if replace == "" {
		return nil
	}
	href, err := json.Marshal(replace)
	if err != nil {
		return errors.Wrap(err, "encoding url")
	}
	return errors.Wrap(sse.ExecuteScript("history.replaceState(null, '', "+string(href)+")"), "replacing url")
}

// close stops the timer, stops waiting on the fetch and unregisters the session. Safe to call repeatedly.
func (sess *searchSession[T]) close() {
	sess.once.Do(func() {
		sess.search.Stop()
		sess.observer.Close()
		sess.scr.srv.sessions.remove(sess.key, sess)
		close(sess.done)
	})
}

// sessionURL is the page the stream was opened from, the screen itself when unknown.
func (scr *listScreen[T]) sessionURL(ctx echo.Context) url.URL {
	if ref, err := url.Parse(ctx.Request().Referer()); err == nil && ref.Path == scr.path() {
		return url.URL{Path: ref.Path, RawQuery: ref.RawQuery}
	}
	return url.URL{Path: scr.path()}
}

// readSignals reads and validates the datastar signals of the request.
func (scr *listScreen[T]) readSignals(ctx echo.Context) (searchSignals, error) {
	var signals searchSignals
	if err := datastar.ReadSignals(ctx.Request(), &signals); err != nil {
		return signals, echo.NewHTTPError(http.StatusBadRequest, "invalid signals").SetInternal(err)
	}
	if err := scr.srv.Validate.Struct(signals); err != nil {
		return signals, err
	}
	return signals, nil
}

// updates is the long-lived SSE stream of the tab. It does not send an initial state: the page is
// already rendered.
func (scr *listScreen[T]) updates(ctx echo.Context) error {
	signals, err := scr.readSignals(ctx)
	if err != nil {
		return err
	}
	claims, _ := getContextClaims(ctx)
	key := sessionKey(getClientID(ctx), signals.Tab, scr.path())

	sess := scr.newSession(requestContext(ctx), key, scr.sessionURL(ctx), claims)
	scr.srv.sessions.open(key, sess)
	defer sess.close()

	sse := datastar.NewSSE(ctx.Response(), ctx.Request())
	reqCtx := ctx.Request().Context()
	for {
		select {
		case <-reqCtx.Done():
			return nil
		case <-sess.done:
			return nil
		case <-sess.updates:
			if err := sess.send(sse); err != nil {
				scr.srv.Logger.Warn("search session: sending update", err, claims.User())
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// search pushes the draft search text into the live session of the tab.
// Without a live session the browser is sent to the filtered URL.
func (scr *listScreen[T]) search(ctx echo.Context) error {
	signals, err := scr.readSignals(ctx)
	if err != nil {
		return err
	}

	if sess, ok := scr.srv.sessions.get(sessionKey(getClientID(ctx), signals.Tab, scr.path())).(*searchSession[T]); ok {
		sess.push(signals.Search)
		return ctx.NoContent(http.StatusNoContent)
	}

	ctrl := datatable.NewController(scr.sessionURL(ctx), datatable.Config{})
	if err := ctrl.SetSearch(signals.Search); err != nil {
		return errors.Wrap(err, "setting search")
	}
	href, err := json.Marshal(ctrl.URL().RequestURI())
	if err != nil {
		return errors.Wrap(err, "encoding url")
	}
	sse := datastar.NewSSE(ctx.Response(), ctx.Request())
	return errors.Wrap(sse.ExecuteScript("window.location.assign("+string(href)+")"), "redirecting")
}
