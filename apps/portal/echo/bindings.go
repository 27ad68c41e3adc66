package echoportal

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core"
)

// parseOrdering reads `-created_at,title` style orderings; a leading "-" means descending.
func parseOrdering(s string) []core.DBOrdering {
	var orderings []core.DBOrdering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

// listParams are the query params of the list screens. The page number is parsed leniently by the table controller.
type listParams struct {
	Search   string `query:"q" validate:"nocontrol,max=100"`
	Input    string `query:"input" validate:"nocontrol,max=100"`
	Ordering string `query:"ordering" validate:"omitempty,ordering"`
}

func (p *listParams) bind(ctx echo.Context, validate *validator.Validate) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, p); err != nil {
		return errors.Wrap(err, "binding list params")
	}
	return validate.Struct(p)
}

// searchSignals are the datastar signals of a list page, sent by the search box and the updates stream.
// Tab identifies the rendered page, one per browser tab.
type searchSignals struct {
	Tab    string `json:"tab" validate:"omitempty,uuid"`
	Search string `json:"search" validate:"nocontrol,max=100"`
}

// sidebarRequest carries the client side state the server cannot know: the transient mobile overlay flag
// and the viewport width.
type sidebarRequest struct {
	OpenMobile bool `json:"open_mobile" form:"open_mobile"`
	Width      int  `json:"width" form:"width" validate:"min=0"`
}
