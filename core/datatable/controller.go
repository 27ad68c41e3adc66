package datatable

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	PageParam   = "page"
	SearchParam = "q"
	// InputParam is the search key some screens use instead of q.
	InputParam = "input"
)

// Navigator rewrites the address bar to u (redirect, history.replaceState...).
type Navigator func(u *url.URL) error

type Config struct {
	// SearchParam is the search key of the screen; empty means q, or input when only input is present.
	SearchParam string
	Navigate    Navigator
}

// Controller reads the current page and search term from the URL and writes every change back to it.
// The URL is the only state: there is no page index kept beside it.
type Controller struct {
	u           url.URL
	searchParam string
	totalPages  int
	navigate    Navigator
}

func NewController(u url.URL, conf Config) *Controller {
	param := conf.SearchParam
	if param == "" {
		param = SearchParam
		q := u.Query()
		if _, ok := q[SearchParam]; !ok {
			if _, ok := q[InputParam]; ok {
				param = InputParam
			}
		}
	}
	u.RawQuery = u.Query().Encode()
	return &Controller{
		u:           u,
		searchParam: param,
		navigate:    conf.Navigate,
	}
}

// ParsePage leniently parses a 1-based page number: anything invalid or below 1 is page 1.
func ParsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (c *Controller) Page() int {
	return ParsePage(c.u.Query().Get(PageParam))
}

func (c *Controller) Search() string {
	return strings.TrimSpace(c.u.Query().Get(c.searchParam))
}

func (c *Controller) SearchParam() string { return c.searchParam }

// URL returns a copy of the current URL.
func (c *Controller) URL() *url.URL {
	u := c.u
	return &u
}

// TotalPages returns the last known page count, 0 while unknown.
func (c *Controller) TotalPages() int { return c.totalPages }

// SetTotalPages records the page count of the remote dataset; it may lag behind the URL.
func (c *Controller) SetTotalPages(n int) {
	if n < 1 {
		n = 1
	}
	c.totalPages = n
}

// OutOfRange reports whether the URL page is past the last known page.
func (c *Controller) OutOfRange() bool {
	return c.totalPages > 0 && c.Page() > c.totalPages
}

// PageIndex is the 0-based page index used by table widgets.
func (c *Controller) PageIndex() int { return c.Page() - 1 }

// GoToIndex navigates to the 0-based page index i.
func (c *Controller) GoToIndex(i int) error { return c.GoTo(i + 1) }

// GoTo navigates to page n. Pages past the last known page are ignored and pages below 1 clamp to 1.
// The URL is rewritten (through the Navigator) before the controller state changes.
func (c *Controller) GoTo(n int) error {
	if c.totalPages > 0 && n > c.totalPages {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n == c.Page() && c.u.Query().Get(PageParam) == strconv.Itoa(n) {
		return nil
	}
	return c.commit(c.with(func(q url.Values) { q.Set(PageParam, strconv.Itoa(n)) }))
}

func (c *Controller) Next() error { return c.GoTo(c.Page() + 1) }

// Prev goes one page back, to the last known page when the URL is past it.
func (c *Controller) Prev() error {
	if c.Page() <= 1 {
		return nil
	}
	prev := c.Page() - 1
	if c.totalPages > 0 {
		prev = min(prev, c.totalPages)
	}
	return c.GoTo(prev)
}

func (c *Controller) CanNext() bool { return c.totalPages > 0 && c.Page() < c.totalPages }

func (c *Controller) CanPrev() bool { return c.Page() > 1 }

// SetSearch changes the search term and goes back to the first page.
func (c *Controller) SetSearch(term string) error {
	term = strings.TrimSpace(term)
	if term == c.Search() {
		return nil
	}
	return c.commit(c.with(func(q url.Values) {
		if term == "" {
			q.Del(c.searchParam)
		} else {
			q.Set(c.searchParam, term)
		}
		q.Del(PageParam)
	}))
}

// Href is the link to page n, clamped to the known page range.
func (c *Controller) Href(n int) string {
	if c.totalPages > 0 && n > c.totalPages {
		n = c.totalPages
	}
	if n < 1 {
		n = 1
	}
	u := c.with(func(q url.Values) { q.Set(PageParam, strconv.Itoa(n)) })
	return u.RequestURI()
}

func (c *Controller) with(update func(q url.Values)) url.URL {
	u := c.u
	q := u.Query()
	update(q)
	u.RawQuery = q.Encode()
	return u
}

func (c *Controller) commit(u url.URL) error {
	if c.navigate != nil {
		if err := c.navigate(&u); err != nil {
			return errors.Wrap(err, "navigating")
		}
	}
	c.u = u
	return nil
}
