// Package config loads the wp-pages configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingWordPressURL is returned when WORDPRESS_URL is not set.
var ErrMissingWordPressURL = errors.New("WORDPRESS_URL is required")

// Config holds the runtime configuration.
type Config struct {
	WordPressURL   string
	GraphQLPath    string
	OutputDir      string
	SiteTitle      string
	PageSize       int
	MaxPages       int
	RequestTimeout time.Duration
	RateLimit      float64

	// MaxRetries counts retries after the first attempt; zero disables retrying.
	MaxRetries int

	RedisURL       string
	CacheTTL       time.Duration
	PurgeCache     bool
	UserAgent      string
	LogLevel       string
	LogPretty      bool
	Port           string
}

// Endpoint returns the GraphQL endpoint URL.
func (c *Config) Endpoint() string {
	p := c.GraphQLPath
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(c.WordPressURL, "/") + p
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is fine; real environment variables take precedence.
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a lookup function such as os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	p := parser{lookup: lookup}

	cfg := &Config{
		WordPressURL:   p.getString("WORDPRESS_URL", ""),
		GraphQLPath:    p.getString("GRAPHQL_PATH", "/graphql"),
		OutputDir:      p.getString("OUTPUT_DIR", "public"),
		SiteTitle:      p.getString("SITE_TITLE", ""),
		PageSize:       p.getInt("PAGE_SIZE", 10),
		MaxPages:       p.getInt("MAX_PAGES", 0),
		RequestTimeout: p.getDuration("REQUEST_TIMEOUT", 30*time.Second),
		RateLimit:      p.getFloat("RATE_LIMIT", 5),
		MaxRetries:     p.getInt("MAX_RETRIES", 3),
		RedisURL:       p.getString("REDIS_URL", ""),
		CacheTTL:       p.getDuration("CACHE_TTL", 5*time.Minute),
		PurgeCache:     p.getBool("CACHE_PURGE", false),
		UserAgent:      p.getString("USER_AGENT", "wpgraphql-pages/0.1.0"),
		LogLevel:       p.getString("LOG_LEVEL", "info"),
		LogPretty:      p.getBool("LOG_PRETTY", false),
		Port:           p.getString("PORT", "8080"),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.WordPressURL == "" {
		return ErrMissingWordPressURL
	}
	if !strings.HasPrefix(c.WordPressURL, "http://") && !strings.HasPrefix(c.WordPressURL, "https://") {
		return fmt.Errorf("WORDPRESS_URL must be an http(s) URL (got %q)", c.WordPressURL)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive (got %d)", c.PageSize)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("MAX_PAGES must not be negative (got %d)", c.MaxPages)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive (got %s)", c.RequestTimeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT must not be negative (got %g)", c.RateLimit)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative (got %d)", c.MaxRetries)
	}
	return nil
}

// parser keeps the first conversion error so Load can report it after
// reading every variable.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) raw(key string) (string, bool) {
	v, ok := p.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func (p *parser) getString(key, def string) string {
	if v, ok := p.raw(key); ok {
		return v
	}
	return def
}

func (p *parser) getInt(key string, def int) int {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) getFloat(key string, def float64) float64 {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) getBool(key string, def bool) bool {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) getDuration(key string, def time.Duration) time.Duration {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}
