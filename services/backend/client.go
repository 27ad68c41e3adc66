// Package backend reads the LMS datasets from the REST backend.
package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/blog"
	"github.com/trezcool/masomo-web/core/course"
	"github.com/trezcool/masomo-web/core/query"
	"github.com/trezcool/masomo-web/core/user"
)

type tokenKey struct{}

// WithToken returns a copy of ctx whose backend calls carry the bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

type Client struct {
	baseURL string
	rest    *rest.Client
}

var (
	_ user.Repository   = (*Client)(nil)
	_ course.Repository = (*Client)(nil)
	_ blog.Repository   = (*Client)(nil)
)

func NewClient(conf core.BackendConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: conf.Timeout}},
	}
}

func pageParams(page core.PageRequest) map[string]string {
	page = page.Normalize()
	params := map[string]string{
		"page":      strconv.Itoa(page.Page),
		"page_size": strconv.Itoa(page.PerPage),
	}
	if len(page.Ordering) > 0 {
		fields := make([]string, 0, len(page.Ordering))
		for _, ord := range page.Ordering {
			if ord.Ascending {
				fields = append(fields, ord.Field)
			} else {
				fields = append(fields, "-"+ord.Field)
			}
		}
		params["ordering"] = strings.Join(fields, ",")
	}
	return params
}

func setIf(params map[string]string, key, val string) {
	if val != "" {
		params[key] = val
	}
}

func setBool(params map[string]string, key string, val *bool) {
	if val != nil {
		params[key] = strconv.FormatBool(*val)
	}
}

// get calls GET {baseURL}{path} and decodes the JSON body into dst.
func (c *Client) get(ctx context.Context, path string, params map[string]string, dst interface{}) error {
	req := rest.Request{
		Method:      rest.Get,
		BaseURL:     c.baseURL + path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: params,
	}
	if token, ok := ctx.Value(tokenKey{}).(string); ok && token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}

	resp, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(query.ErrUnavailable, err.Error())
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusBadGateway:
		return errors.Wrapf(query.ErrUnavailable, "GET %s: %d", path, resp.StatusCode)
	case resp.StatusCode >= 300:
		return errors.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err = json.Unmarshal([]byte(resp.Body), dst); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	return nil
}

var errNotFound = errors.New("not found")

func (c *Client) QueryUsers(ctx context.Context, filter user.QueryFilter, page core.PageRequest) (core.Page[user.User], error) {
	params := pageParams(page)
	setIf(params, "q", filter.Search)
	setIf(params, "role", strings.Join(filter.Roles, ","))
	setBool(params, "is_active", filter.IsActive)

	var res core.Page[user.User]
	if err := c.get(ctx, "/users", params, &res); err != nil {
		return core.Page[user.User]{}, errors.Wrap(err, "fetching users")
	}
	return normalize(res, page), nil
}

func (c *Client) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var usr user.User
	err := c.get(ctx, "/users/"+id, nil, &usr)
	if err == errNotFound {
		return user.User{}, user.ErrNotFound
	}
	return usr, errors.Wrap(err, "fetching user")
}

func (c *Client) QueryCourses(ctx context.Context, filter course.QueryFilter, page core.PageRequest) (core.Page[course.Course], error) {
	params := pageParams(page)
	setIf(params, "q", filter.Search)
	setIf(params, "category", filter.Category)
	setIf(params, "teacher", filter.Teacher)
	if filter.Level != 0 {
		params["level"] = strconv.Itoa(filter.Level)
	}
	setBool(params, "published", filter.Published)

	var res core.Page[course.Course]
	if err := c.get(ctx, "/courses", params, &res); err != nil {
		return core.Page[course.Course]{}, errors.Wrap(err, "fetching courses")
	}
	return normalize(res, page), nil
}

func (c *Client) QueryPosts(ctx context.Context, filter blog.QueryFilter, page core.PageRequest) (core.Page[blog.Post], error) {
	params := pageParams(page)
	setIf(params, "q", filter.Search)
	setBool(params, "published", filter.Published)

	var res core.Page[blog.Post]
	if err := c.get(ctx, "/blogs", params, &res); err != nil {
		return core.Page[blog.Post]{}, errors.Wrap(err, "fetching posts")
	}
	return normalize(res, page), nil
}

// normalize fills what older backend versions leave out of the envelope.
func normalize[T any](res core.Page[T], req core.PageRequest) core.Page[T] {
	req = req.Normalize()
	if res.Items == nil {
		res.Items = []T{}
	}
	if res.Page < 1 {
		res.Page = req.Page
	}
	if res.PerPage < 1 {
		res.PerPage = req.PerPage
	}
	if res.TotalPages < 1 {
		res.TotalPages = core.TotalPages(res.Total, res.PerPage)
	}
	return res
}

// Ping checks that the backend answers.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var res core.Page[json.RawMessage]
	return c.get(ctx, "/courses", map[string]string{"page_size": "1"}, &res)
}
