// Package views renders the site's HTML pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/overdrive/techfest/internal/catalog"
	"github.com/overdrive/techfest/internal/forms"
)

//go:embed layouts/*.tmpl partials/*.tmpl pages/*.tmpl
var files embed.FS

// Views holds the shared layouts. Each page is parsed onto a clone per render.
type Views struct {
	base    *template.Template
	socials []catalog.Link
}

func New() (*Views, error) {
	base, err := template.New("").Funcs(funcs()).ParseFS(files, "layouts/*.tmpl", "partials/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}
	return &Views{base: base}, nil
}

func Must() *Views {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// WithSocials returns a copy of v whose footer lists links.
func (v *Views) WithSocials(links []catalog.Link) *Views {
	return &Views{base: v.base, socials: append([]catalog.Link(nil), links...)}
}

// Render executes page (a file under pages/) into w with status. Output is
// buffered so a template error never leaves a half-written page.
func (v *Views) Render(w http.ResponseWriter, status int, page string, data map[string]any) error {
	view, err := v.base.Clone()
	if err != nil {
		return err
	}
	view.Funcs(template.FuncMap{"socials": func() []catalog.Link { return v.socials }})
	if _, err := view.ParseFS(files, "pages/"+page); err != nil {
		return fmt.Errorf("parse %s: %w", page, err)
	}
	var buf bytes.Buffer
	if err := view.ExecuteTemplate(&buf, page, data); err != nil {
		return fmt.Errorf("execute %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"year":        func() string { return time.Now().In(tzKolkata).Format("2006") },
		"fee":         fee,
		"socials":     func() []catalog.Link { return nil },
		"fmtDate":     fmtDate,
		"fmtDateTime": fmtDateTime,
		"add":         func(a, b int) int { return a + b },
		"path":        func(i int, field string) string { return fmt.Sprintf("members.%d.%s", i, field) },
		"label":       forms.Label,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"derefInt": func(n *int) string {
			if n == nil {
				return "-"
			}
			return fmt.Sprint(*n)
		},
	}
}

func fee(n int) string {
	if n <= 0 {
		return "Free"
	}
	return fmt.Sprintf("₹%d", n)
}
