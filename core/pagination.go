package core

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PageRequest asks a repository for one 1-based page of results.
type PageRequest struct {
	Page     int
	PerPage  int
	Ordering []DBOrdering
}

// Normalize clamps the request to sane bounds.
func (pr PageRequest) Normalize() PageRequest {
	if pr.Page < 1 {
		pr.Page = 1
	}
	if pr.PerPage < 1 {
		pr.PerPage = DefaultPerPage
	} else if pr.PerPage > MaxPerPage {
		pr.PerPage = MaxPerPage
	}
	return pr
}

// Offset is the number of items to skip for this page.
func (pr PageRequest) Offset() int {
	pr = pr.Normalize()
	return (pr.Page - 1) * pr.PerPage
}

// Page is one page of a remote, paginated dataset.
type Page[T any] struct {
	Items      []T `json:"data"`
	Page       int `json:"page"`
	PerPage    int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPage builds a Page for the given request out of the page items and the total item count.
func NewPage[T any](items []T, req PageRequest, total int) Page[T] {
	req = req.Normalize()
	return Page[T]{
		Items:      items,
		Page:       req.Page,
		PerPage:    req.PerPage,
		Total:      total,
		TotalPages: TotalPages(total, req.PerPage),
	}
}

// TotalPages returns the number of pages needed for `total` items; an empty dataset still has one page.
func TotalPages(total, perPage int) int {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// Paginate slices an in-memory result set down to the requested page.
func Paginate[T any](items []T, req PageRequest) Page[T] {
	req = req.Normalize()
	total := len(items)
	start := req.Offset()
	if start > total {
		start = total
	}
	end := start + req.PerPage
	if end > total {
		end = total
	}
	return NewPage(items[start:end], req, total)
}
