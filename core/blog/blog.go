package blog

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core"
)

const Resource = "blogs"

var Orderings = map[string]string{
	"title":      "title",
	"author":     "author",
	"created_at": "created_at",
}

type Post struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	Published bool      `json:"published" db:"published"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

type QueryFilter struct {
	Search    string `query:"q" validate:"nocontrol,max=100"`
	Published *bool  `query:"published"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Match is a case-insensitive match of Search on one of Post.Title or Post.Author.
func (qf QueryFilter) Match(p Post) bool {
	if qf.Search != "" {
		term := strings.ToLower(qf.Search)
		if !strings.Contains(strings.ToLower(p.Title), term) && !strings.Contains(strings.ToLower(p.Author), term) {
			return false
		}
	}
	return qf.Published == nil || p.Published == *qf.Published
}

type (
	Repository interface {
		QueryPosts(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[Post], error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[Post], error) {
	filter.Clean()
	res, err := svc.repo.QueryPosts(ctx, filter, page.Normalize())
	if err != nil {
		return core.Page[Post]{}, errors.Wrap(err, "querying posts")
	}
	return res, nil
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	res, err := svc.Query(ctx, filter, core.PageRequest{Page: 1, PerPage: 1})
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}
