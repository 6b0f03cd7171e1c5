// Package web renders the bookmark page: an error banner, the add form and
// the color-coded list.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/MrSnakeDoc/recall/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

// EmptyMessage is shown when the collection is empty.
const EmptyMessage = "No bookmarks yet. Add your first bookmark!"

// Page is the data of the single page template.
type Page struct {
	Banner     string
	Loading    bool
	Form       FormView
	Items      []ListItem
	URLMessage string
	Version    string
}

// Renderer executes the embedded templates.
type Renderer struct {
	tpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tpl, err := template.New("").Funcs(template.FuncMap{
		"emptyMessage": func() string { return EmptyMessage },
		// tints are fixed constants from ListBuilder, never user input
		"css": func(s string) template.CSS { return template.CSS(s) },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Render writes the page with status. The template is executed into a buffer
// first so a template error never produces a half-written 200.
func (r *Renderer) Render(w http.ResponseWriter, status int, page Page) error {
	if page.URLMessage == "" {
		page.URLMessage = domain.URLErrorMessage
	}

	var buf bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buf, "index.html", page); err != nil {
		return fmt.Errorf("render index: %w", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
