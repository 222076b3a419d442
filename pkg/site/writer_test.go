package site

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/wpgraphql-pages/pkg/pages"
	"github.com/Sternrassler/wpgraphql-pages/pkg/render"
	"github.com/Sternrassler/wpgraphql-pages/pkg/wordpress"
)

type stubRenderer struct {
	err error
}

func (s stubRenderer) Render(w io.Writer, page pages.Page) error {
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, "<html>"+page.Path+"</html>")
	return err
}

func TestFilePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/categories/", "categories/index.html"},
		{"/categories/page/2", "categories/page/2/index.html"},
		{"/blog/category/news", "blog/category/news/index.html"},
		{"/", "index.html"},
		{"", "index.html"},
		{"/blog/category/../../../etc", "etc/index.html"},
		{"../outside", "outside/index.html"},
	}

	for _, tt := range tests {
		if got := FilePath(tt.path); got != tt.want {
			t.Errorf("FilePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestWriter_CreatePage(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, stubRenderer{})

	page := pages.Page{Path: "/blog/category/news", Template: pages.TemplateCategory}
	if err := w.CreatePage(context.Background(), page); err != nil {
		t.Fatalf("CreatePage() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "blog", "category", "news", "index.html"))
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if string(data) != "<html>/blog/category/news</html>" {
		t.Errorf("page content = %q", data)
	}

	entries := w.Entries()
	if len(entries) != 1 || entries[0].File != "blog/category/news/index.html" {
		t.Errorf("Entries() = %+v", entries)
	}
}

func TestWriter_CreatePage_RenderError(t *testing.T) {
	dir := t.TempDir()
	renderErr := errors.New("template failed")
	w := NewWriter(dir, stubRenderer{err: renderErr})

	err := w.CreatePage(context.Background(), pages.Page{Path: "/categories/", Template: pages.TemplateCategoryArchive})
	if !errors.Is(err, renderErr) {
		t.Fatalf("expected render error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "categories")); !os.IsNotExist(err) {
		t.Error("expected nothing written on render error")
	}
	if len(w.Entries()) != 0 {
		t.Error("failed page must not be listed")
	}
}

func TestWriter_CreatePage_ContextCancelled(t *testing.T) {
	w := NewWriter(t.TempDir(), stubRenderer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.CreatePage(ctx, pages.Page{Path: "/categories/"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWriter_WriteManifest(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, stubRenderer{})
	ctx := context.Background()

	for _, p := range []pages.Page{
		{Path: "/blog/category/news", Template: pages.TemplateCategory},
		{Path: "/categories/", Template: pages.TemplateCategoryArchive},
	} {
		if err := w.CreatePage(ctx, p); err != nil {
			t.Fatalf("CreatePage(%s) error = %v", p.Path, err)
		}
	}

	if err := w.WriteManifest(); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var manifest struct {
		Pages []ManifestEntry `json:"pages"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}

	want := []ManifestEntry{
		{Path: "/blog/category/news", Template: pages.TemplateCategory, File: "blog/category/news/index.html"},
		{Path: "/categories/", Template: pages.TemplateCategoryArchive, File: "categories/index.html"},
	}
	if len(manifest.Pages) != len(want) {
		t.Fatalf("manifest has %d pages, want %d", len(manifest.Pages), len(want))
	}
	for i := range want {
		if manifest.Pages[i] != want[i] {
			t.Errorf("manifest page %d = %+v, want %+v", i, manifest.Pages[i], want[i])
		}
	}
}

func TestWriter_WithRenderer(t *testing.T) {
	dir := t.TempDir()
	r, err := render.NewRenderer("Blog")
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	w := NewWriter(dir, r)

	page := pages.Page{
		Path:     "/blog/category/news",
		Template: pages.TemplateCategory,
		Context:  wordpress.Category{Name: "News", Slug: "news"},
	}
	if err := w.CreatePage(context.Background(), page); err != nil {
		t.Fatalf("CreatePage() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "blog", "category", "news", "index.html"))
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if !strings.Contains(string(data), "Category Archives:") {
		t.Errorf("expected rendered category page, got %q", data)
	}
}

func TestWriter_CreatePage_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, stubRenderer{})
	ctx := context.Background()

	if err := w.CreatePage(ctx, pages.Page{Path: "/blog/", Template: pages.TemplateCategoryArchive}); err != nil {
		t.Fatalf("CreatePage() error = %v", err)
	}

	tests := []string{
		"/blog/",
		"/blog/category/..",
		"/blog/./",
	}
	for _, p := range tests {
		err := w.CreatePage(ctx, pages.Page{Path: p, Template: pages.TemplateCategory})
		if !errors.Is(err, ErrPageExists) {
			t.Errorf("CreatePage(%q) error = %v, want ErrPageExists", p, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "blog", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<html>/blog/</html>" {
		t.Errorf("first page was overwritten: %q", data)
	}
	if len(w.Entries()) != 1 {
		t.Errorf("Entries() = %d, want 1", len(w.Entries()))
	}
}

func TestWriter_CreatePage_RetryAfterRenderError(t *testing.T) {
	dir := t.TempDir()
	page := pages.Page{Path: "/categories/", Template: pages.TemplateCategoryArchive}

	w := NewWriter(dir, stubRenderer{err: errors.New("template failed")})
	if err := w.CreatePage(context.Background(), page); err == nil {
		t.Fatal("expected render error")
	}

	// A failed page does not reserve its file.
	w.renderer = stubRenderer{}
	if err := w.CreatePage(context.Background(), page); err != nil {
		t.Errorf("CreatePage() after failure error = %v", err)
	}
}
