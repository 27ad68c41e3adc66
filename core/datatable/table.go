// Package datatable turns a page of remote rows into a renderable table and drives pagination from the URL.
package datatable

import (
	"html/template"

	"github.com/trezcool/masomo-web/core/query"
)

const (
	NoResults           = "No results."
	DefaultSkeletonRows = 5
)

// Column describes how one column reads and renders a row.
// Cell wins over Accessor; the Accessor text is HTML escaped.
type Column[T any] struct {
	ID       string
	Header   string
	Accessor func(T) string
	Cell     func(T) template.HTML
}

func (col Column[T]) render(row T) template.HTML {
	switch {
	case col.Cell != nil:
		return col.Cell(row)
	case col.Accessor != nil:
		return template.HTML(template.HTMLEscapeString(col.Accessor(row)))
	default:
		return ""
	}
}

// Props are the inputs of one table render. Rows may be nil while the first page loads.
type Props[T any] struct {
	Columns      []Column[T]
	Rows         []T
	Status       query.FetchStatus
	Page         int
	TotalPages   int
	SkeletonRows int
}

type (
	View struct {
		Headers []Header
		Rows    []Row
		// Loading shows Skeleton placeholder rows over the (possibly stale) Rows.
		Loading  bool
		Skeleton []int
		// Empty renders Message in a single row spanning Colspan columns.
		Empty      bool
		Message    string
		Colspan    int
		Page       int
		TotalPages int
	}

	Header struct {
		ID    string
		Label string
	}

	Row struct {
		Cells []template.HTML
	}
)

// Render builds the view for props. It never panics on nil rows or empty columns.
func Render[T any](props Props[T]) View {
	view := View{
		Headers:    make([]Header, 0, len(props.Columns)),
		Rows:       make([]Row, 0, len(props.Rows)),
		Colspan:    len(props.Columns),
		Page:       props.Page,
		TotalPages: props.TotalPages,
	}
	if view.Colspan == 0 {
		view.Colspan = 1
	}
	if view.Page < 1 {
		view.Page = 1
	}
	if view.TotalPages < view.Page {
		view.TotalPages = view.Page
	}

	for _, col := range props.Columns {
		view.Headers = append(view.Headers, Header{ID: col.ID, Label: col.Header})
	}
	for _, row := range props.Rows {
		cells := make([]template.HTML, 0, len(props.Columns))
		for _, col := range props.Columns {
			cells = append(cells, col.render(row))
		}
		view.Rows = append(view.Rows, Row{Cells: cells})
	}

	if props.Status == query.StatusFetching {
		n := props.SkeletonRows
		if n <= 0 {
			n = DefaultSkeletonRows
		}
		if len(view.Rows) > n {
			n = len(view.Rows)
		}
		view.Loading = true
		view.Skeleton = make([]int, n)
		for i := range view.Skeleton {
			view.Skeleton[i] = i
		}
		return view
	}

	if len(view.Rows) == 0 {
		view.Empty = true
		view.Message = NoResults
	}
	return view
}
