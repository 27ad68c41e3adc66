package echoportal

import (
	"html/template"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-web/core/datatable"
	"github.com/trezcool/masomo-web/core/sidebar"
)

// sidebarConfig is how the portal sidebar collapses: to an icon rail on desktop.
var sidebarConfig = sidebar.Config{
	Collapsible: sidebar.CollapsibleIcon,
	Side:        sidebar.SideLeft,
	Variant:     sidebar.VariantInset,
}

type (
	pageData struct {
		AppName string
		Title   string
		Portal  string
		User    string
		Sidebar sidebarView
		Content interface{}
	}

	sidebarView struct {
		Layout   sidebar.Layout
		Items    []navItem
		Shortcut string
		Guard    template.JS
	}

	navItem struct {
		Label  string
		Href   string
		Active bool
	}

	tableData struct {
		ID          string
		Title       string
		View        datatable.View
		Pager       datatable.Pager
		Banner      string
		Search      string
		SearchParam string
		SearchURL   string
		UpdatesURL  string
		Tab         string // id of the rendered page, keys its live search session
	}

	dashboardData struct {
		Stats []stat
		Links []navItem
	}

	stat struct {
		Label string
		Value int
		Href  string
	}

	errorData struct {
		Code    int
		Message string
	}
)

var portalNav = map[string][]navItem{
	portalAdmin: {
		{Label: "Dashboard", Href: "/admin"},
		{Label: "Courses", Href: "/admin/courses"},
		{Label: "Students", Href: "/admin/students"},
		{Label: "Teachers", Href: "/admin/teachers"},
		{Label: "Blogs", Href: "/admin/blogs"},
	},
	portalTeacher: {
		{Label: "Dashboard", Href: "/teacher"},
		{Label: "My Courses", Href: "/teacher/courses"},
	},
	portalStudent: {
		{Label: "Dashboard", Href: "/student"},
		{Label: "Courses", Href: "/student/courses"},
	},
}

var portalTitles = map[string]string{
	portalAdmin:   "Admin Portal",
	portalTeacher: "Teacher Console",
	portalStudent: "Student Portal",
}

// navItems lists the links of the current portal followed by the other portals the user may open.
func navItems(portal, currentPath string, claims Claims) []navItem {
	items := make([]navItem, 0)
	for _, item := range portalNav[portal] {
		item.Active = item.Href == currentPath ||
			(strings.Count(item.Href, "/") > 1 && strings.HasPrefix(currentPath, item.Href+"/"))
		items = append(items, item)
	}
	for _, other := range []string{portalAdmin, portalTeacher, portalStudent} {
		if other != portal && claims.CanAccess(other) {
			items = append(items, navItem{Label: portalTitles[other], Href: "/" + other})
		}
	}
	return items
}

func (s *server) page(ctx echo.Context, portal, title string, content interface{}) pageData {
	claims, _ := getContextClaims(ctx)
	return pageData{
		AppName: s.Conf.AppName,
		Title:   title,
		Portal:  portal,
		User:    claims.Username,
		Sidebar: sidebarView{
			Layout:   getSidebar(ctx).Layout(sidebarConfig),
			Items:    navItems(portal, ctx.Request().URL.Path, claims),
			Shortcut: sidebar.Shortcut.String(),
			Guard:    template.JS(sidebar.Shortcut.Guard()),
		},
		Content: content,
	}
}
