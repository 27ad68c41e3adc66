package echoportal

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/datatable"
	"github.com/trezcool/masomo-web/core/query"
	"github.com/trezcool/masomo-web/services/backend"
)

// cacheStaleTime is how long a fetched page is served without refetching.
const cacheStaleTime = 30 * time.Second

// listScreen is a searchable, paginated table of T, backed by the query cache.
type listScreen[T any] struct {
	srv      *server
	portal   string
	name     string
	title    string
	resource string
	// orderings are the fields the screen can be sorted by ({queryField: dbColumn}).
	orderings map[string]string
	columns   []datatable.Column[T]
	cache     *query.Cache[core.Page[T]]
	// filters returns the per-user filters of the screen (eg. the teacher's own courses).
	filters func(claims Claims) map[string]string
}

func newListScreen[T any](
	srv *server,
	portal, name, title, resource string,
	orderings map[string]string,
	columns []datatable.Column[T],
	fetch query.Fetcher[core.Page[T]],
) *listScreen[T] {
	cache := query.NewCache(fetch, cacheStaleTime)
	if srv.Conf.Backend.Timeout > 0 {
		cache.FetchTimeout = srv.Conf.Backend.Timeout
	}
	return &listScreen[T]{
		srv:       srv,
		portal:    portal,
		name:      name,
		title:     title,
		resource:  resource,
		orderings: orderings,
		columns:   columns,
		cache:     cache,
		filters:   func(Claims) map[string]string { return nil },
	}
}

// mount registers the screen routes on the portal group.
func mount[T any](g *echo.Group, scr *listScreen[T]) {
	g.GET("/"+scr.name, scr.list)
	g.POST("/"+scr.name+"/search", scr.search)
	g.GET("/"+scr.name+"/updates", scr.updates)
}

func (scr *listScreen[T]) path() string {
	return "/" + scr.portal + "/" + scr.name
}

func (scr *listScreen[T]) id() string {
	return "table-" + scr.portal + "-" + scr.name
}

// key is the query key of what the controller URL shows.
func (scr *listScreen[T]) key(ctrl *datatable.Controller, claims Claims) query.Key {
	ordering := ctrl.URL().Query().Get("ordering")
	if err := scr.srv.Validate.Var(ordering, "omitempty,ordering"); err != nil {
		ordering = ""
	}
	return query.Key{
		Resource: scr.resource,
		Search:   ctrl.Search(),
		Page:     ctrl.Page(),
		PerPage:  scr.srv.Conf.PerPage,
		Ordering: ordering,
		Filters:  scr.filters(claims),
	}
}

// checkOrdering rejects the fields the screen cannot be sorted by.
func (scr *listScreen[T]) checkOrdering(ordering string) error {
	var unknown []string
	for _, ord := range parseOrdering(ordering) {
		if _, ok := scr.orderings[ord.Field]; !ok {
			unknown = append(unknown, ord.Field)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return core.NewValidationError(
		errors.Errorf("%s cannot be sorted by %s", scr.resource, strings.Join(unknown, ", ")),
		core.FieldError{Field: "ordering", Error: "unknown field: " + strings.Join(unknown, ", ")},
	)
}

// requestContext forwards the user token to the data source.
func requestContext(ctx echo.Context) context.Context {
	reqCtx := ctx.Request().Context()
	if token := getContextToken(ctx); token != "" {
		reqCtx = backend.WithToken(reqCtx, token)
	}
	return reqCtx
}

// table builds the table view of snap. The controller learns the page count of the dataset on the way.
func (scr *listScreen[T]) table(ctrl *datatable.Controller, snap query.Snapshot[core.Page[T]]) tableData {
	var rows []T
	if snap.HasData {
		rows = snap.Data.Items
		ctrl.SetTotalPages(snap.Data.TotalPages)
	}
	view := datatable.Render(datatable.Props[T]{
		Columns:    scr.columns,
		Rows:       rows,
		Status:     snap.Status,
		Page:       ctrl.Page(),
		TotalPages: ctrl.TotalPages(),
	})
	return tableData{
		ID:          scr.id(),
		Title:       scr.title,
		View:        view,
		Pager:       ctrl.Pager(),
		Banner:      scr.banner(snap),
		Search:      ctrl.Search(),
		SearchParam: ctrl.SearchParam(),
		SearchURL:   scr.path() + "/search",
		UpdatesURL:  scr.path() + "/updates",
	}
}

func (scr *listScreen[T]) banner(snap query.Snapshot[core.Page[T]]) string {
	switch {
	case snap.Err == nil:
		return ""
	case snap.Status == query.StatusPaused:
		return "The data source cannot be reached right now. Showing the last known results."
	default:
		return "Could not load " + scr.title + "."
	}
}

// list renders the screen for the request URL, sending out of range pages to the last page.
func (scr *listScreen[T]) list(ctx echo.Context) error {
	var params listParams
	if err := params.bind(ctx, scr.srv.Validate); err != nil {
		return err
	}
	if err := scr.checkOrdering(params.Ordering); err != nil {
		return err
	}

	ctrl := datatable.NewController(*ctx.Request().URL, datatable.Config{
		Navigate: func(u *url.URL) error {
			return ctx.Redirect(http.StatusSeeOther, u.RequestURI())
		},
	})
	claims, _ := getContextClaims(ctx)
	k := scr.key(ctrl, claims)

	snap := query.Snapshot[core.Page[T]]{Key: k, Status: query.StatusIdle}
	res, err := scr.cache.Get(requestContext(ctx), k)
	switch {
	case err == nil:
		snap.Data, snap.HasData = res, true
	case errors.Is(err, query.ErrUnavailable):
		scr.srv.Logger.Warn("data source unavailable", err, claims.User())
		snap.Status, snap.Err = query.StatusPaused, err
		if stale, ok := scr.cache.Peek(k); ok {
			snap.Data, snap.HasData = stale, true
		}
	default:
		return errors.Wrapf(err, "listing %s", scr.resource)
	}

	data := scr.table(ctrl, snap)
	if ctrl.OutOfRange() {
		return ctrl.GoTo(ctrl.TotalPages())
	}
	data.Tab = uuid.NewString()
	return ctx.Render(http.StatusOK, "list", scr.srv.page(ctx, scr.portal, scr.title, data))
}
