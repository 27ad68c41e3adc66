package echoportal

import (
	"context"
	"html/template"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/blog"
	"github.com/trezcool/masomo-web/core/course"
	"github.com/trezcool/masomo-web/core/datatable"
	"github.com/trezcool/masomo-web/core/query"
	"github.com/trezcool/masomo-web/core/user"
)

const dateLayout = "Jan 2, 2006"

func pageRequest(k query.Key) core.PageRequest {
	return core.PageRequest{Page: k.Page, PerPage: k.PerPage, Ordering: parseOrdering(k.Ordering)}
}

func badge(ok bool, yes, no string) template.HTML {
	if ok {
		return template.HTML(`<span class="badge badge-success">` + template.HTMLEscapeString(yes) + `</span>`)
	}
	return template.HTML(`<span class="badge">` + template.HTMLEscapeString(no) + `</span>`)
}

var (
	courseColumns = []datatable.Column[course.Course]{
		{ID: "title", Header: "Title", Accessor: func(c course.Course) string { return c.Title }},
		{ID: "category", Header: "Category", Accessor: func(c course.Course) string { return c.Category }},
		{ID: "level", Header: "Level", Accessor: course.Course.LevelName},
		{ID: "teacher", Header: "Teacher", Accessor: func(c course.Course) string { return c.Teacher }},
		{ID: "students", Header: "Students", Accessor: func(c course.Course) string { return strconv.Itoa(c.Students) }},
		{ID: "published", Header: "Status", Cell: func(c course.Course) template.HTML { return badge(c.Published, "Published", "Draft") }},
	}

	catalogColumns = []datatable.Column[course.Course]{
		{ID: "title", Header: "Title", Accessor: func(c course.Course) string { return c.Title }},
		{ID: "category", Header: "Category", Accessor: func(c course.Course) string { return c.Category }},
		{ID: "level", Header: "Level", Accessor: course.Course.LevelName},
		{ID: "teacher", Header: "Teacher", Accessor: func(c course.Course) string { return c.Teacher }},
	}

	userColumns = []datatable.Column[user.User]{
		{ID: "name", Header: "Name", Accessor: func(u user.User) string { return u.Name }},
		{ID: "username", Header: "Username", Accessor: func(u user.User) string { return u.Username }},
		{ID: "email", Header: "Email", Accessor: func(u user.User) string { return u.Email }},
		{ID: "role", Header: "Role", Accessor: func(u user.User) string { return u.RoleLabel() }},
		{ID: "is_active", Header: "Status", Cell: func(u user.User) template.HTML { return badge(u.IsActive, "Active", "Inactive") }},
		{ID: "created_at", Header: "Joined", Accessor: func(u user.User) string { return u.CreatedAt.Format(dateLayout) }},
	}

	postColumns = []datatable.Column[blog.Post]{
		{ID: "title", Header: "Title", Accessor: func(p blog.Post) string { return p.Title }},
		{ID: "author", Header: "Author", Accessor: func(p blog.Post) string { return p.Author }},
		{ID: "published", Header: "Status", Cell: func(p blog.Post) template.HTML { return badge(p.Published, "Published", "Draft") }},
		{ID: "created_at", Header: "Date", Accessor: func(p blog.Post) string { return p.CreatedAt.Format(dateLayout) }},
	}
)

func courseFetcher(list func(ctx context.Context, filter course.QueryFilter, page core.PageRequest) (core.Page[course.Course], error)) query.Fetcher[core.Page[course.Course]] {
	return func(ctx context.Context, k query.Key) (core.Page[course.Course], error) {
		return list(ctx, course.QueryFilter{Search: k.Search, Teacher: k.Filters["teacher"]}, pageRequest(k))
	}
}

func (s *server) roleFetcher(role string) query.Fetcher[core.Page[user.User]] {
	return func(ctx context.Context, k query.Key) (core.Page[user.User], error) {
		return s.UserSvc.QueryRole(ctx, role, user.QueryFilter{Search: k.Search}, pageRequest(k))
	}
}

func (s *server) postFetcher(ctx context.Context, k query.Key) (core.Page[blog.Post], error) {
	return s.BlogSvc.Query(ctx, blog.QueryFilter{Search: k.Search}, pageRequest(k))
}

func (s *server) registerPortals() {
	loginURL := s.Conf.LoginURL

	// Admin portal
	admin := s.app.Group("/"+portalAdmin, portalMiddleware(portalAdmin, loginURL))
	admin.GET("", s.adminDashboard)
	mount(admin, newListScreen(s, portalAdmin, "courses", "Courses", course.Resource, course.Orderings, courseColumns, courseFetcher(s.CourseSvc.Query)))
	mount(admin, newListScreen(s, portalAdmin, "students", "Students", user.Resource, user.Orderings, userColumns, s.roleFetcher(user.RoleStudent)))
	mount(admin, newListScreen(s, portalAdmin, "teachers", "Teachers", user.Resource, user.Orderings, userColumns, s.roleFetcher(user.RoleTeacher)))
	mount(admin, newListScreen(s, portalAdmin, "blogs", "Blogs", blog.Resource, blog.Orderings, postColumns, s.postFetcher))

	// Teacher console
	teacher := s.app.Group("/"+portalTeacher, portalMiddleware(portalTeacher, loginURL))
	teacher.GET("", s.teacherDashboard)
	taught := newListScreen(s, portalTeacher, "courses", "My Courses", course.Resource, course.Orderings, courseColumns, courseFetcher(s.CourseSvc.Query))
	taught.filters = func(claims Claims) map[string]string {
		return map[string]string{"teacher": claims.Username}
	}
	mount(teacher, taught)

	// Student portal
	student := s.app.Group("/"+portalStudent, portalMiddleware(portalStudent, loginURL))
	student.GET("", s.studentDashboard)
	mount(student, newListScreen(s, portalStudent, "courses", "Courses", course.Resource, course.Orderings, catalogColumns, courseFetcher(s.CourseSvc.Catalog)))
}

// home lists the portals the visitor can open.
func (s *server) home(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	links := make([]navItem, 0)
	for _, portal := range []string{portalAdmin, portalTeacher, portalStudent} {
		if err == nil && claims.CanAccess(portal) {
			links = append(links, navItem{Label: portalTitles[portal], Href: "/" + portal})
		}
	}
	if len(links) == 0 {
		links = append(links, navItem{Label: "Log in", Href: loginRedirect(s.Conf.LoginURL, "/")})
	}
	return ctx.Render(http.StatusOK, "home", s.page(ctx, "", "Welcome", dashboardData{Links: links}))
}

// counts runs the count queries concurrently.
func counts(ctx context.Context, fns ...func(ctx context.Context) (int, error)) ([]int, error) {
	res := make([]int, len(fns))
	g, gctx := errgroup.WithContext(ctx)
	for i, fn := range fns {
		g.Go(func() error {
			n, err := fn(gctx)
			res[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "counting")
	}
	return res, nil
}

func (s *server) adminDashboard(ctx echo.Context) error {
	n, err := counts(requestContext(ctx),
		func(ctx context.Context) (int, error) {
			return s.UserSvc.Count(ctx, user.QueryFilter{Roles: []string{user.RoleStudent}})
		},
		func(ctx context.Context) (int, error) {
			return s.UserSvc.Count(ctx, user.QueryFilter{Roles: []string{user.RoleTeacher}})
		},
		func(ctx context.Context) (int, error) { return s.CourseSvc.Count(ctx, course.QueryFilter{}) },
		func(ctx context.Context) (int, error) { return s.BlogSvc.Count(ctx, blog.QueryFilter{}) },
	)
	if err != nil {
		return err
	}
	data := dashboardData{Stats: []stat{
		{Label: "Students", Value: n[0], Href: "/admin/students"},
		{Label: "Teachers", Value: n[1], Href: "/admin/teachers"},
		{Label: "Courses", Value: n[2], Href: "/admin/courses"},
		{Label: "Blog posts", Value: n[3], Href: "/admin/blogs"},
	}}
	return ctx.Render(http.StatusOK, "dashboard", s.page(ctx, portalAdmin, portalTitles[portalAdmin], data))
}

func (s *server) teacherDashboard(ctx echo.Context) error {
	claims, _ := getContextClaims(ctx)
	published := true
	n, err := counts(requestContext(ctx),
		func(ctx context.Context) (int, error) {
			return s.CourseSvc.Count(ctx, course.QueryFilter{Teacher: claims.Username})
		},
		func(ctx context.Context) (int, error) {
			return s.CourseSvc.Count(ctx, course.QueryFilter{Teacher: claims.Username, Published: &published})
		},
	)
	if err != nil {
		return err
	}
	data := dashboardData{Stats: []stat{
		{Label: "Courses", Value: n[0], Href: "/teacher/courses"},
		{Label: "Published", Value: n[1], Href: "/teacher/courses"},
	}}
	return ctx.Render(http.StatusOK, "dashboard", s.page(ctx, portalTeacher, portalTitles[portalTeacher], data))
}

func (s *server) studentDashboard(ctx echo.Context) error {
	published := true
	n, err := counts(requestContext(ctx),
		func(ctx context.Context) (int, error) {
			return s.CourseSvc.Count(ctx, course.QueryFilter{Published: &published})
		},
	)
	if err != nil {
		return err
	}
	data := dashboardData{Stats: []stat{
		{Label: "Courses available", Value: n[0], Href: "/student/courses"},
	}}
	return ctx.Render(http.StatusOK, "dashboard", s.page(ctx, portalStudent, portalTitles[portalStudent], data))
}
