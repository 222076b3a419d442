// Package testutil provides a mock WPGraphQL server for tests.
package testutil

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// GraphQLPath is where the mock serves GraphQL, matching WPGraphQL's default.
const GraphQLPath = "/graphql"

// GraphQLRequest is the decoded body of a request received by the mock.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// MockWPGraphQL is a configurable WPGraphQL stand-in serving a fixed list of
// categories with cursor pagination.
type MockWPGraphQL struct {
	server *httptest.Server

	mu         sync.RWMutex
	categories []map[string]any
	handler    http.HandlerFunc
	etag       string
	failures   []int

	requests         []GraphQLRequest
	conditionalCount int
}

// NewMockWPGraphQL starts a mock serving the given category nodes.
func NewMockWPGraphQL(categories []map[string]any) *MockWPGraphQL {
	m := &MockWPGraphQL{categories: categories}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the WordPress base URL (without the /graphql path).
func (m *MockWPGraphQL) URL() string {
	return m.server.URL
}

// Endpoint returns the full GraphQL endpoint URL.
func (m *MockWPGraphQL) Endpoint() string {
	return m.server.URL + GraphQLPath
}

// Close shuts down the mock server.
func (m *MockWPGraphQL) Close() {
	m.server.Close()
}

// SetHandler replaces the default category handler.
func (m *MockWPGraphQL) SetHandler(h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// SetETag makes the mock answer with an ETag and honour If-None-Match.
func (m *MockWPGraphQL) SetETag(etag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.etag = etag
}

// FailNext makes the next len(statuses) requests fail with the given status codes.
func (m *MockWPGraphQL) FailNext(statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, statuses...)
}

// Requests returns a copy of every request received so far.
func (m *MockWPGraphQL) Requests() []GraphQLRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]GraphQLRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests received.
func (m *MockWPGraphQL) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// ConditionalCount returns how many requests carried If-None-Match.
func (m *MockWPGraphQL) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

func (m *MockWPGraphQL) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != GraphQLPath || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"errors":[{"message":"invalid body"}]}`, http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	if r.Header.Get("If-None-Match") != "" {
		m.conditionalCount++
	}
	handler := m.handler
	etag := m.etag
	fail := 0
	if len(m.failures) > 0 {
		fail = m.failures[0]
		m.failures = m.failures[1:]
	}
	m.mu.Unlock()

	if fail != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fail)
		fmt.Fprintf(w, `{"errors":[{"message":"mock failure %d"}]}`, fail)
		return
	}

	if handler != nil {
		handler(w, r)
		return
	}

	if etag != "" {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	first := 10
	if v, ok := req.Variables["first"].(float64); ok && v > 0 {
		first = int(v)
	}
	offset := 0
	if after, ok := req.Variables["after"].(string); ok && after != "" {
		n, err := DecodeCursor(after)
		if err != nil {
			WriteGraphQLErrors(w, "Invalid cursor")
			return
		}
		offset = n + 1
	}

	m.mu.RLock()
	total := len(m.categories)
	end := offset + first
	if end > total {
		end = total
	}
	if offset > total {
		offset = total
	}
	nodes := m.categories[offset:end]
	m.mu.RUnlock()

	endCursor := any(nil)
	if len(nodes) > 0 {
		endCursor = EncodeCursor(end - 1)
	}

	WriteData(w, map[string]any{
		"categories": map[string]any{
			"pageInfo": map[string]any{
				"hasNextPage": end < total,
				"endCursor":   endCursor,
			},
			"nodes": nodes,
		},
	})
}

// EncodeCursor builds a WPGraphQL-style opaque cursor for an offset.
func EncodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte("arrayconnection:" + strconv.Itoa(offset)))
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(cursor string) (int, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimPrefix(string(raw), "arrayconnection:"))
}

// WriteData writes a successful GraphQL response.
func WriteData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

// WriteGraphQLErrors writes a 200 response carrying an "errors" array.
func WriteGraphQLErrors(w http.ResponseWriter, messages ...string) {
	items := make([]map[string]any, 0, len(messages))
	for _, msg := range messages {
		items = append(items, map[string]any{"message": msg})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]any{"data": nil, "errors": items})
}

// WritePartialData writes a 200 response carrying data together with a single
// field error at path, as WPGraphQL does when a resolver fails.
func WritePartialData(w http.ResponseWriter, data any, message string, path ...any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]any{
		"data":   data,
		"errors": []map[string]any{{"message": message, "path": path}},
	})
}

// Category builds a category node with n posts in the WPGraphQL shape.
func Category(name, slug string, n int) map[string]any {
	posts := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		posts = append(posts, Post(slug, i))
	}
	return map[string]any{
		"name":  name,
		"slug":  slug,
		"posts": map[string]any{"nodes": posts},
	}
}

// Post builds a post node belonging to the category slug.
func Post(categorySlug string, i int) map[string]any {
	slug := fmt.Sprintf("%s-post-%d", categorySlug, i)
	return map[string]any{
		"id":      base64.StdEncoding.EncodeToString([]byte("post:" + slug)),
		"postId":  i,
		"title":   fmt.Sprintf("Post %d in %s", i, categorySlug),
		"slug":    slug,
		"excerpt": fmt.Sprintf("<p>Excerpt of <em>%s</em></p>", slug),
		"uri":     "/" + slug + "/",
		"date":    fmt.Sprintf("2019-03-%02dT10:00:00", i%28+1),
		"author": map[string]any{
			"name":   "Jason Bahl",
			"slug":   "jasonbahl",
			"avatar": map[string]any{"url": "https://secure.gravatar.com/avatar/abc?s=50"},
		},
		"categories": map[string]any{
			"nodes": []map[string]any{{"name": categorySlug, "slug": categorySlug}},
		},
		"tags": map[string]any{
			"nodes": []map[string]any{{"name": "GraphQL", "slug": "graphql"}},
		},
	}
}

// Categories builds n categories named "Category 1".."Category n" with
// postsEach posts.
func Categories(n, postsEach int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Category(fmt.Sprintf("Category %d", i), fmt.Sprintf("category-%d", i), postsEach))
	}
	return out
}
