package echoportal

import (
	"html/template"
	"net/http"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/sidebar"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Pages get the error page, JSON & SSE clients get a JSON body.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, s *server) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if fldErrs := origErr.FieldErrors(); fldErrs != nil {
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			claims, _ := getContextClaims(ctx)
			logger.Error(msg, errors.Wrap(err, msg), claims.User(), map[string]interface{}{
				"method": ctx.Request().Method,
				"path":   ctx.Request().URL.Path,
			})
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		// Send response
		if ctx.Response().Committed {
			return
		}
		switch {
		case ctx.Request().Method == http.MethodHead: // Issue #608
			err = ctx.NoContent(code)
		case isAPIRequest(ctx.Request()):
			if m, ok := message.(string); ok {
				message = echo.Map{"error": m}
			}
			err = ctx.JSON(code, message)
		default:
			err = ctx.Render(code, "error", s.errorPage(ctx, code, message))
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

// errorPage does not need the request to have a sidebar provider (eg. errors raised by middlewares).
func (s *server) errorPage(ctx echo.Context, code int, message interface{}) pageData {
	data := errorData{Code: code}
	switch m := message.(type) {
	case string:
		data.Message = m
	case map[string]string:
		msgs := make([]string, 0, len(m))
		for fld, msg := range m {
			msgs = append(msgs, fld+": "+msg)
		}
		sort.Strings(msgs)
		data.Message = strings.Join(msgs, "; ")
	default:
		data.Message = http.StatusText(code)
	}

	provider, err := sidebar.FromContext(ctx.Request().Context())
	if err != nil {
		provider = sidebar.NewProvider(sidebar.Options{DefaultOpen: true})
	}
	claims, _ := getContextClaims(ctx)
	return pageData{
		AppName: s.Conf.AppName,
		Title:   http.StatusText(code),
		User:    claims.Username,
		Sidebar: sidebarView{
			Layout:   provider.Layout(sidebarConfig),
			Items:    navItems("", ctx.Request().URL.Path, claims),
			Shortcut: sidebar.Shortcut.String(),
			Guard:    template.JS(sidebar.Shortcut.Guard()),
		},
		Content: data,
	}
}
