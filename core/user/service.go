package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core"
)

const Resource = "users"

var (
	// errors
	ErrNotFound = errors.New("user not found")

	// Orderings maps the `ordering` query fields to columns.
	Orderings = map[string]string{
		"name":       "name",
		"username":   "username",
		"email":      "email",
		"created_at": "created_at",
		"last_login": "last_login",
	}
)

type (
	Repository interface {
		// QueryUsers applies AND operation on available QueryFilter fields and returns the requested page.
		QueryUsers(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[User], error)
		GetUserByID(ctx context.Context, id string) (User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[User], error) {
	filter.Clean()
	res, err := svc.repo.QueryUsers(ctx, filter, page.Normalize())
	if err != nil {
		return core.Page[User]{}, errors.Wrap(err, "querying users")
	}
	return res, nil
}

// QueryRole lists the users holding one of the roles starting with `role` (eg. RoleStudent).
func (svc *Service) QueryRole(ctx context.Context, role string, filter QueryFilter, page core.PageRequest) (core.Page[User], error) {
	filter.Roles = []string{role}
	return svc.Query(ctx, filter, page)
}

// Count returns the number of users matching filter.
func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	res, err := svc.Query(ctx, filter, core.PageRequest{Page: 1, PerPage: 1})
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}
