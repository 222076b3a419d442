// Package cache stores WPGraphQL responses in Redis so repeated builds do not
// re-query an unchanged WordPress installation.
//
// GraphQL requests are POSTs, so responses are keyed by a hash of the endpoint,
// the query document and its variables rather than by URL:
//
//	key := cache.CacheKey{
//		Endpoint:  "https://example.com/graphql",
//		Operation: "GET_CATEGORIES",
//		Query:     wordpress.CategoriesQuery,
//		Variables: map[string]any{"first": 10, "after": nil},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from WordPress
//	}
//
// # Conditional Requests
//
// When WordPress (or a caching proxy in front of it) returns an ETag or
// Last-Modified header the entry is revalidated with If-None-Match or
// If-Modified-Since, and a 304 response is served from the cache.
//
// # Expiry
//
// Entries honour the Expires header when present. WPGraphQL normally sends
// none, in which case the client's fallback TTL applies.
//
// # Metrics
//
//   - wpgql_cache_hits_total{layer="redis"}
//   - wpgql_cache_misses_total
//   - wpgql_cache_size_bytes{layer="redis"}
//   - wpgql_304_responses_total
//   - wpgql_conditional_requests_total
//   - wpgql_cache_errors_total{operation}
package cache
