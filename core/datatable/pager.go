package datatable

// PagerWindow is how many page links are shown around the current page.
const PagerWindow = 2

type (
	Pager struct {
		Page       int
		TotalPages int
		Prev       Link
		Next       Link
		Links      []Link
	}

	Link struct {
		Page     int
		Href     string
		Current  bool
		Disabled bool
		Gap      bool // an ellipsis between page links
	}
)

// Pager is the pager view: first and last pages, a window around the current page, prev/next.
func (c *Controller) Pager() Pager {
	page, total := c.Page(), c.totalPages
	if total < 1 {
		total = 1
	}
	if page > total {
		page = total
	}

	p := Pager{
		Page:       page,
		TotalPages: total,
		Prev:       Link{Page: page - 1, Href: c.Href(page - 1), Disabled: page <= 1},
		Next:       Link{Page: page + 1, Href: c.Href(page + 1), Disabled: page >= total},
	}

	// only the links shown are visited: total comes from the data source
	lo, hi := max(page-PagerWindow, 2), min(page+PagerWindow, total-1)
	p.Links = append(p.Links, c.pageLink(1, page))
	if lo > 2 {
		p.Links = append(p.Links, Link{Gap: true, Disabled: true})
	}
	for n := lo; n <= hi; n++ {
		p.Links = append(p.Links, c.pageLink(n, page))
	}
	if hi < total-1 {
		p.Links = append(p.Links, Link{Gap: true, Disabled: true})
	}
	if total > 1 {
		p.Links = append(p.Links, c.pageLink(total, page))
	}
	return p
}

func (c *Controller) pageLink(n, current int) Link {
	return Link{Page: n, Href: c.Href(n), Current: n == current}
}
