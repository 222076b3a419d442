// Package site writes rendered pages to a static output directory.
package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Sternrassler/wpgraphql-pages/pkg/pages"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ManifestFile is the name of the page index written by WriteManifest.
const ManifestFile = "manifest.json"

// ErrPageExists is returned when two pages resolve to the same file.
var ErrPageExists = errors.New("page already written")

// Renderer renders a page to HTML. *render.Renderer implements it.
type Renderer interface {
	Render(w io.Writer, page pages.Page) error
}

// ManifestEntry describes one written page.
type ManifestEntry struct {
	Path     string `json:"path"`
	Template string `json:"template"`
	File     string `json:"file"`
}

// Writer implements pages.Creator by rendering each page into
// <outDir>/<path>/index.html.
type Writer struct {
	outDir   string
	renderer Renderer
	logger   zerolog.Logger

	mu      sync.Mutex
	entries []ManifestEntry
	written map[string]string
}

// NewWriter creates a Writer rooted at outDir.
func NewWriter(outDir string, renderer Renderer) *Writer {
	return &Writer{
		outDir:   outDir,
		renderer: renderer,
		written:  make(map[string]string),
		logger:   log.With().Str("component", "site").Str("out_dir", outDir).Logger(),
	}
}

// FilePath returns the file, relative to the output directory, a page path is
// written to. The path is cleaned so it cannot leave the output directory.
func FilePath(pagePath string) string {
	clean := strings.TrimPrefix(path.Clean("/"+pagePath), "/")
	return path.Join(clean, "index.html")
}

// CreatePage renders page and writes it to disk.
func (w *Writer) CreatePage(ctx context.Context, page pages.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel := FilePath(page.Path)
	if err := w.claim(rel, page.Path); err != nil {
		writeErrors.WithLabelValues(page.Template).Inc()
		return err
	}

	var buf bytes.Buffer
	if err := w.renderer.Render(&buf, page); err != nil {
		w.release(rel)
		writeErrors.WithLabelValues(page.Template).Inc()
		return err
	}

	file := filepath.Join(w.outDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		w.release(rel)
		writeErrors.WithLabelValues(page.Template).Inc()
		return fmt.Errorf("create directory for %s: %w", page.Path, err)
	}
	if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil {
		w.release(rel)
		writeErrors.WithLabelValues(page.Template).Inc()
		return fmt.Errorf("write %s: %w", page.Path, err)
	}

	pagesWritten.WithLabelValues(page.Template).Inc()
	bytesWritten.Add(float64(buf.Len()))

	w.mu.Lock()
	w.entries = append(w.entries, ManifestEntry{Path: page.Path, Template: page.Template, File: rel})
	w.mu.Unlock()

	w.logger.Debug().
		Str("path", page.Path).
		Str("template", page.Template).
		Int("bytes", buf.Len()).
		Msg("Wrote page")

	return nil
}

// claim reserves rel for pagePath, failing if another page already owns it.
func (w *Writer) claim(rel, pagePath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if owner, ok := w.written[rel]; ok {
		return fmt.Errorf("%w: %s and %s both map to %s", ErrPageExists, owner, pagePath, rel)
	}
	w.written[rel] = pagePath
	return nil
}

func (w *Writer) release(rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.written, rel)
}

// Entries returns the pages written so far, in write order.
func (w *Writer) Entries() []ManifestEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]ManifestEntry, len(w.entries))
	copy(out, w.entries)
	return out
}

// WriteManifest writes manifest.json listing every page written so far.
func (w *Writer) WriteManifest() error {
	entries := w.Entries()
	data, err := json.MarshalIndent(struct {
		Pages []ManifestEntry `json:"pages"`
	}{Pages: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file := filepath.Join(w.outDir, ManifestFile)
	if err := os.WriteFile(file, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	w.logger.Info().Int("pages", len(entries)).Str("file", file).Msg("Wrote manifest")
	return nil
}
