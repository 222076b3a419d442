package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/wpgraphql-pages/pkg/pagination"
	"github.com/Sternrassler/wpgraphql-pages/pkg/wordpress"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Result summarises a generation run.
type Result struct {
	CategoryPages int
	ArchivePages  int
	Duration      time.Duration
}

// Generator builds category and category archive pages.
type Generator struct {
	fetcher pagination.PageFetcher[wordpress.Category]
	creator Creator
	config  pagination.Config
	logger  zerolog.Logger
}

// NewGenerator creates a Generator. cfg.Name defaults to "categories".
func NewGenerator(fetcher pagination.PageFetcher[wordpress.Category], creator Creator, cfg pagination.Config) *Generator {
	if cfg.Name == "" {
		cfg.Name = "categories"
	}
	return &Generator{
		fetcher: fetcher,
		creator: creator,
		config:  cfg,
		logger:  log.With().Str("component", "pages").Logger(),
	}
}

// CreateCategories fetches every category, then creates one page per category
// followed by one archive page per fetched page. Nothing is created if any
// fetch fails.
func (g *Generator) CreateCategories(ctx context.Context) (Result, error) {
	start := time.Now()

	var archives []Page
	categories, err := pagination.Walk(ctx, g.fetcher, g.config,
		func(pageNumber int, page pagination.Page[wordpress.Category]) error {
			archives = append(archives, Page{
				Path:     ArchivePath(pageNumber, page.After == ""),
				Template: TemplateCategoryArchive,
				Context: ArchiveContext{
					Nodes:       page.Nodes,
					PageNumber:  pageNumber,
					HasNextPage: page.PageInfo.HasNextPage,
				},
			})
			return nil
		})
	if err != nil {
		return Result{}, fmt.Errorf("fetch categories: %w", err)
	}

	if err := checkSlugs(categories); err != nil {
		return Result{}, err
	}

	var res Result
	for _, category := range categories {
		g.logger.Info().Str("slug", category.Slug).Msgf("create category: %s", category.Slug)
		page := Page{
			Path:     CategoryPath(category.Slug),
			Template: TemplateCategory,
			Context:  category,
		}
		if err := g.creator.CreatePage(ctx, page); err != nil {
			return res, fmt.Errorf("create category page %s: %w", page.Path, err)
		}
		res.CategoryPages++
	}

	for _, archive := range archives {
		pageNumber := archive.Context.(ArchiveContext).PageNumber
		g.logger.Info().Int("page", pageNumber).Msgf("create category archive page %d", pageNumber)
		if err := g.creator.CreatePage(ctx, archive); err != nil {
			return res, fmt.Errorf("create category archive page %s: %w", archive.Path, err)
		}
		res.ArchivePages++
	}

	res.Duration = time.Since(start)
	g.logger.Info().
		Int("category_pages", res.CategoryPages).
		Int("archive_pages", res.ArchivePages).
		Dur("duration", res.Duration).
		Msg("Category pages created")

	return res, nil
}

// checkSlugs rejects unusable or repeated slugs before any page is created.
func checkSlugs(categories []wordpress.Category) error {
	seen := make(map[string]bool, len(categories))
	for _, category := range categories {
		if err := ValidateSlug(category.Slug); err != nil {
			return fmt.Errorf("category %q: %w", category.Name, err)
		}
		if seen[category.Slug] {
			return fmt.Errorf("category %q: %w: %q", category.Name, ErrDuplicateSlug, category.Slug)
		}
		seen[category.Slug] = true
	}
	return nil
}
