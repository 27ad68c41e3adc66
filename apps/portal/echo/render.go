package echoportal

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"json": func(v interface{}) (string, error) {
		data, err := json.Marshal(v)
		return string(data), err
	},
}

// renderer is the echo.Renderer of the portal. Every page template is parsed together with the shared
// `_*.gohtml` templates (layout & partials) and executed through the "base" layout.
type renderer struct {
	shared *template.Template
	pages  map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer(strict bool) (*renderer, error) {
	shared, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/_*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "parsing shared templates")
	}
	if strict {
		shared = shared.Option("missingkey=error")
	}

	fps, err := fs.Glob(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}
	r := &renderer{shared: shared, pages: make(map[string]*template.Template)}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := shared.Clone()
		if err != nil {
			return nil, errors.Wrap(err, "cloning shared templates")
		}
		if tmpl, err = tmpl.ParseFS(templateFS, fp); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fname)
		}
		r.pages[strings.TrimSuffix(fname, path.Ext(fname))] = tmpl
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// fragment renders one shared template on its own (SSE patches).
func (r *renderer) fragment(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := r.shared.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "rendering %s", name)
	}
	return buf.String(), nil
}
