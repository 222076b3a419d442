package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrStalledCursor is returned when a page claims more data but its
	// endCursor is empty or repeats the cursor it was requested with.
	ErrStalledCursor = errors.New("pagination cursor did not advance")

	// ErrTooManyPages is returned when Config.MaxPages is exceeded.
	ErrTooManyPages = errors.New("pagination page limit exceeded")
)

// Config holds walker configuration.
type Config struct {
	// PageSize is the "first" argument sent with every request.
	PageSize int

	// MaxPages caps the number of pages fetched. Zero means unlimited.
	MaxPages int

	// Timeout per page fetch.
	Timeout time.Duration

	// Name labels log lines, e.g. "categories".
	Name string
}

// DefaultConfig returns the defaults used for WordPress archives.
func DefaultConfig() Config {
	return Config{
		PageSize: 10,
		Timeout:  30 * time.Second,
		Name:     "items",
	}
}

// PageInfo mirrors the Relay pageInfo block.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// Page is one fetched page of a connection.
type Page[T any] struct {
	Nodes    []T
	PageInfo PageInfo

	// After is the cursor this page was requested with; empty for the first page.
	After string
}

// PageFetcher fetches a single page of a connection.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, first int, after string) (Page[T], error)
}

// FetcherFunc adapts a function to PageFetcher.
type FetcherFunc[T any] func(ctx context.Context, first int, after string) (Page[T], error)

// FetchPage implements PageFetcher.
func (f FetcherFunc[T]) FetchPage(ctx context.Context, first int, after string) (Page[T], error) {
	return f(ctx, first, after)
}

// VisitFunc is called for every fetched page, in order, with its zero-based page number.
type VisitFunc[T any] func(pageNumber int, page Page[T]) error

// Walk fetches every page of a connection sequentially and returns all nodes
// in fetch order. visit may be nil.
func Walk[T any](ctx context.Context, fetcher PageFetcher[T], cfg Config, visit VisitFunc[T]) ([]T, error) {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "items"
	}

	logger := log.With().Str("component", "pagination").Str("connection", cfg.Name).Logger()
	start := time.Now()

	var (
		all        []T
		after      string
		pageNumber int
	)

	for {
		if err := ctx.Err(); err != nil {
			return all, fmt.Errorf("fetch %s page %d: %w", cfg.Name, pageNumber, err)
		}
		if cfg.MaxPages > 0 && pageNumber >= cfg.MaxPages {
			return all, fmt.Errorf("%w: %d pages of %s", ErrTooManyPages, cfg.MaxPages, cfg.Name)
		}

		pageCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		page, err := fetcher.FetchPage(pageCtx, cfg.PageSize, after)
		cancel()
		if err != nil {
			return all, fmt.Errorf("fetch %s page %d: %w", cfg.Name, pageNumber, err)
		}
		page.After = after

		if visit != nil {
			if err := visit(pageNumber, page); err != nil {
				return all, fmt.Errorf("visit %s page %d: %w", cfg.Name, pageNumber, err)
			}
		}
		all = append(all, page.Nodes...)

		logger.Debug().
			Int("page", pageNumber).
			Int("nodes", len(page.Nodes)).
			Bool("has_next_page", page.PageInfo.HasNextPage).
			Msg("Fetched page")

		if !page.PageInfo.HasNextPage {
			break
		}

		next := page.PageInfo.EndCursor
		if next == "" || next == after {
			return all, fmt.Errorf("%w: %s page %d (cursor %q)", ErrStalledCursor, cfg.Name, pageNumber, next)
		}
		after = next
		pageNumber++

		logger.Info().Msgf("fetch page %d of %s...", pageNumber, cfg.Name)
	}

	logger.Info().
		Int("pages", pageNumber+1).
		Int("nodes", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return all, nil
}
