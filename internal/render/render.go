// Package render turns view models into HTML pages. Each page is parsed
// together with the shared layout once, at construction.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

const (
	PageTaskList      = "task_list"
	PageTaskForm      = "task_form"
	PageConfirmDelete = "task_confirm_delete"
	PageError         = "error"
)

//go:embed templates/*.html
var templatesFS embed.FS

type HTMLRenderer struct {
	pages map[string]*template.Template
}

func New() (*HTMLRenderer, error) {
	names := []string{PageTaskList, PageTaskForm, PageConfirmDelete, PageError}
	pages := make(map[string]*template.Template, len(names))

	for _, name := range names {
		tmpl, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &HTMLRenderer{pages: pages}, nil
}

// Render executes into a buffer first so a template failure never leaves a
// half-written 200 response behind.
func (r *HTMLRenderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render page %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
