package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"course-notes-admin/internal/dto"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData contains common fields used across all page templates.
type PageData struct {
	Title string
}

type CategoryPageData struct {
	PageData
	Category *dto.CategoryCoursesResponse
}

type AddNotesPageData struct {
	PageData
	Draft       *dto.NoteDraftResponse
	CourseURL   string
	FormAction  string
	StatusURL   string
	ProgressURL string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() *Renderer {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return NewRendererFS(sub)
}

// NewRendererFS parses layout.html plus one file per page from templateFS.
func NewRendererFS(templateFS fs.FS) *Renderer {
	funcMap := template.FuncMap{
		"percent": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"category":  "category.html",
		"add_notes": "add_notes.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{templates: templates}
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute template %q: %w", name, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
