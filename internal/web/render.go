package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	layoutFile  = "templates/base.layout.html"
	partialGlob = "templates/*.partial.html"
	rootName    = "base"
)

// Renderer implements gin's HTMLRender with one template set per page, each
// combined with the shared layout and partials.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"value": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"date": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"contains": func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	},
	"join": strings.Join,
	"year": func() int { return time.Now().Year() },
}

func NewRenderer() (*Renderer, error) {
	pages, err := fs.Glob(templatesFS, "templates/*.page.html")
	if err != nil {
		return nil, err
	}

	partials, err := fs.Glob(templatesFS, partialGlob)
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".page.html")

		files := append([]string{layoutFile}, partials...)
		files = append(files, page)

		tmpl, err := template.New(rootName).Funcs(funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[name] = tmpl
	}

	if _, ok := r.pages[PageError]; !ok {
		return nil, fmt.Errorf("missing %s page", PageError)
	}
	return r, nil
}

// Instance is called by gin's c.HTML. Unknown pages render the error page.
func (r *Renderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.pages[name]
	if !ok {
		tmpl = r.pages[PageError]
	}
	return render.HTML{Template: tmpl, Name: rootName, Data: data}
}
