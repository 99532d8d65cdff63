package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize"
)

//go:embed templates
var templateFS embed.FS

// layouts maps each page directory to the layout it is rendered in.
var layouts = map[string]string{
	"admin":  "templates/layout/admin.html",
	"public": "templates/layout/public.html",
	"errors": "templates/layout/public.html",
}

// Renderer holds one parsed template set per page, keyed "dir/name".
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every embedded page together with its layout.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for dir, layout := range layouts {
		files, err := fs.Glob(templateFS, "templates/"+dir+"/*.html")
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			t, err := template.New(path.Base(layout)).Funcs(funcMap()).ParseFS(templateFS, layout, file)
			if err != nil {
				return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
			}
			r.pages[dir+"/"+strings.TrimSuffix(path.Base(file), ".html")] = t
		}
	}
	return r, nil
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func funcMap() template.FuncMap {
	funcs := sprig.HtmlFuncMap()
	funcs["ago"] = ago
	funcs["bytes"] = func(n any) string { return humanize.Bytes(uint64(max(toInt64(n), 0))) }
	funcs["comma"] = func(n any) string { return humanize.Comma(toInt64(n)) }
	return funcs
}

func ago(t any) string {
	switch v := t.(type) {
	case time.Time:
		return humanize.Time(v)
	case *time.Time:
		if v != nil {
			return humanize.Time(*v)
		}
	}
	return ""
}

func toInt64(n any) int64 {
	switch v := n.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case uint64:
		return int64(v)
	}
	return 0
}
