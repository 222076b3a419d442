package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/wpgraphql-pages/internal/config"
	"github.com/Sternrassler/wpgraphql-pages/pkg/cache"
	"github.com/Sternrassler/wpgraphql-pages/pkg/graphql"
	"github.com/Sternrassler/wpgraphql-pages/pkg/logging"
	"github.com/Sternrassler/wpgraphql-pages/pkg/metrics"
	"github.com/Sternrassler/wpgraphql-pages/pkg/pages"
	"github.com/Sternrassler/wpgraphql-pages/pkg/pagination"
	"github.com/Sternrassler/wpgraphql-pages/pkg/ratelimit"
	"github.com/Sternrassler/wpgraphql-pages/pkg/render"
	"github.com/Sternrassler/wpgraphql-pages/pkg/site"
	"github.com/Sternrassler/wpgraphql-pages/pkg/wordpress"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const usage = `usage: wp-pages <command>

commands:
  build    fetch categories from WordPress and write the static pages
  serve    serve the output directory with /health and /metrics
  version  print the version
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		stop()
		log.Fatal().Err(err).Msg("wp-pages failed")
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return errors.New("missing command")
	}

	cmd := args[0]
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "wp-pages %s\n", version)
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	case "build", "serve":
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	if cmd == "serve" {
		return serve(ctx, cfg)
	}

	res, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "created %d category pages and %d archive pages in %s\n",
		res.CategoryPages, res.ArchivePages, cfg.OutputDir)
	return nil
}

// build generates the category pages into cfg.OutputDir.
func build(ctx context.Context, cfg *config.Config) (pages.Result, error) {
	logger := logging.NewLogger("build")

	gqlCfg := clientConfig(cfg)

	if cfg.RedisURL != "" {
		redisClient, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return pages.Result{}, err
		}
		defer redisClient.Close()

		gqlCfg.Cache = cache.NewManager(redisClient)
		if cfg.PurgeCache {
			n, err := gqlCfg.Cache.Purge(ctx)
			if err != nil {
				return pages.Result{}, fmt.Errorf("purge cache: %w", err)
			}
			logger.Info().Int("keys", n).Msg("Purged response cache")
		}
	}

	client, err := graphql.New(gqlCfg)
	if err != nil {
		return pages.Result{}, fmt.Errorf("create graphql client: %w", err)
	}

	renderer, err := render.NewRenderer(cfg.SiteTitle)
	if err != nil {
		return pages.Result{}, fmt.Errorf("create renderer: %w", err)
	}
	writer := site.NewWriter(cfg.OutputDir, renderer)

	gen := pages.NewGenerator(wordpress.NewService(client), writer, pagination.Config{
		PageSize: cfg.PageSize,
		MaxPages: cfg.MaxPages,
		Timeout:  pageTimeout(gqlCfg),
		Name:     "categories",
	})

	logger.Info().
		Str("endpoint", client.Endpoint()).
		Str("out_dir", cfg.OutputDir).
		Bool("cache", gqlCfg.Cache != nil).
		Msg("Building category pages")

	res, err := gen.CreateCategories(ctx)
	if err != nil {
		return res, err
	}
	if err := writer.WriteManifest(); err != nil {
		return res, err
	}
	return res, nil
}

// clientConfig maps the environment configuration onto the GraphQL client.
func clientConfig(cfg *config.Config) graphql.Config {
	gqlCfg := graphql.DefaultConfig(cfg.Endpoint())
	gqlCfg.UserAgent = cfg.UserAgent
	gqlCfg.Timeout = cfg.RequestTimeout
	gqlCfg.Retry.MaxAttempts = cfg.MaxRetries + 1
	gqlCfg.CacheTTL = cfg.CacheTTL
	gqlCfg.RateLimiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             1,
	}, logging.NewLogger("ratelimit"))
	return gqlCfg
}

// pageTimeout bounds one page fetch including every retry and its
// worst-case backoff.
func pageTimeout(cfg graphql.Config) time.Duration {
	attempts := time.Duration(cfg.Retry.MaxAttempts)
	if attempts < 1 {
		attempts = 1
	}
	return attempts*cfg.Timeout + cfg.Retry.MaxTotalBackoff()
}

// newRedisClient accepts a redis:// URL or a bare host:port and checks the
// connection.
func newRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	log.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	return client, nil
}

// serve exposes the generated site until ctx is done.
func serve(ctx context.Context, cfg *config.Config) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newMux(cfg.OutputDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("dir", cfg.OutputDir).Msg("Starting static server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("Shutting down server")
	return srv.Shutdown(shutdownCtx)
}

func newMux(dir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", http.FileServer(http.Dir(dir)))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}
