// Package render turns page descriptors into HTML using the templates
// embedded in the binary.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/Sternrassler/wpgraphql-pages/pkg/pages"
	"github.com/Sternrassler/wpgraphql-pages/pkg/wordpress"
)

var (
	// ErrUnknownTemplate is returned for a page whose template is not registered.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrInvalidContext is returned when a page context does not match its template.
	ErrInvalidContext = errors.New("invalid page context")
)

// templateFiles maps template names to their content files.
var templateFiles = map[string]string{
	pages.TemplateCategory:        "templates/category.gohtml",
	pages.TemplateCategoryArchive: "templates/category-archive.gohtml",
}

// view is the data every template executes with.
type view struct {
	SiteTitle string
	Title     string
	Classes   string
	Data      any
}

// Renderer renders pages to HTML.
type Renderer struct {
	siteTitle string
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer(siteTitle string) (*Renderer, error) {
	base, err := template.New("base").Funcs(funcs()).ParseFS(templateFS,
		"templates/layout.gohtml", "templates/post-entry.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{
		siteTitle: siteTitle,
		templates: make(map[string]*template.Template, len(templateFiles)),
	}
	for name, file := range templateFiles {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render writes the HTML of page to w. Nothing is written on error.
func (r *Renderer) Render(w io.Writer, page pages.Page) error {
	t, ok := r.templates[page.Template]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, page.Template)
	}

	v, err := r.view(page)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("render %s: %w", page.Path, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// Templates returns the names of the registered templates.
func (r *Renderer) Templates() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}

func (r *Renderer) view(page pages.Page) (view, error) {
	v := view{SiteTitle: r.siteTitle, Data: page.Context}

	switch page.Template {
	case pages.TemplateCategory:
		category, ok := page.Context.(wordpress.Category)
		if !ok {
			return v, fmt.Errorf("%w: %s needs wordpress.Category, got %T", ErrInvalidContext, page.Template, page.Context)
		}
		v.Title = category.Name
		v.Classes = "archive category category-" + category.Slug
	case pages.TemplateCategoryArchive:
		archive, ok := page.Context.(pages.ArchiveContext)
		if !ok {
			return v, fmt.Errorf("%w: %s needs pages.ArchiveContext, got %T", ErrInvalidContext, page.Template, page.Context)
		}
		v.Title = "Categories"
		if archive.PageNumber > 0 {
			v.Title = fmt.Sprintf("Categories - Page %d", archive.PageNumber+1)
		}
		v.Classes = "archive paged-" + fmt.Sprint(archive.PageNumber+1)
	}
	return v, nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"categoryPath": pages.CategoryPath,
		"archiveURL":   pages.ArchivePageURL,
		"published":    publishedDate,
		// Excerpts are HTML produced by WordPress itself.
		"trusted": func(s string) template.HTML { return template.HTML(s) },
		"add":     func(a, b int) int { return a + b },
		"sub":     func(a, b int) int { return a - b },
	}
}

// publishedDate formats a post date the way WordPress themes display it,
// falling back to the raw value.
func publishedDate(p wordpress.Post) string {
	t, err := p.Published()
	if err != nil {
		return p.Date
	}
	return t.Format("January 2, 2006")
}
