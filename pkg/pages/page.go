// Package pages turns WordPress category data into page descriptors and hands
// them to a page creator.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/wpgraphql-pages/pkg/wordpress"
)

// ErrInvalidSlug is returned for a category slug that cannot be used as a
// single path segment.
var ErrInvalidSlug = errors.New("invalid category slug")

// ErrDuplicateSlug is returned when two categories share a slug.
var ErrDuplicateSlug = errors.New("duplicate category slug")

// Template names understood by the renderer.
const (
	TemplateCategory        = "category"
	TemplateCategoryArchive = "category-archive"
)

// Page describes one page to create.
type Page struct {
	// Path is the URL path the page lives at, e.g. /blog/category/news.
	Path string `json:"path"`

	// Template selects the presentation component.
	Template string `json:"template"`

	// Context is the data handed to the template: a wordpress.Category for
	// TemplateCategory, an ArchiveContext for TemplateCategoryArchive.
	Context any `json:"-"`
}

// ArchiveContext is the data of a paginated category archive page.
type ArchiveContext struct {
	Nodes       []wordpress.Category
	PageNumber  int
	HasNextPage bool
}

// Creator receives every generated page.
type Creator interface {
	CreatePage(ctx context.Context, page Page) error
}

// CreatorFunc adapts a function to Creator.
type CreatorFunc func(ctx context.Context, page Page) error

// CreatePage implements Creator.
func (f CreatorFunc) CreatePage(ctx context.Context, page Page) error {
	return f(ctx, page)
}

// ArchivePath returns the path of archive page pageNumber. The page fetched
// without a cursor lives at /categories/, later pages at /categories/page/<n>.
func ArchivePath(pageNumber int, first bool) string {
	if first {
		return "/categories/"
	}
	return fmt.Sprintf("/categories/page/%d", pageNumber)
}

// ArchivePageURL returns the link target of archive page n, for navigation.
func ArchivePageURL(n int) string {
	return ArchivePath(n, n == 0)
}

// ValidateSlug checks that slug is a single path segment. Empty slugs, slugs
// containing a slash or backslash, and dot-only slugs such as ".." would write
// over other pages.
func ValidateSlug(slug string) error {
	switch {
	case slug == "":
		return fmt.Errorf("%w: empty", ErrInvalidSlug)
	case strings.ContainsAny(slug, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidSlug, slug)
	case strings.Trim(slug, ".") == "":
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// CategoryPath returns the path of the single category page for slug.
func CategoryPath(slug string) string {
	return "/blog/category/" + strings.Trim(slug, "/")
}
