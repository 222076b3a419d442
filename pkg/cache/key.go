package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// KeyPrefix namespaces every key this package writes.
const KeyPrefix = "wpgql"

// CacheKey identifies a cached GraphQL response.
type CacheKey struct {
	// Endpoint is the full GraphQL endpoint URL.
	Endpoint string

	// Operation is the GraphQL operation name, kept readable in the key.
	Operation string

	// Query is the GraphQL document.
	Query string

	// Variables are the request variables. Map keys are marshalled in sorted
	// order, so equal variable sets hash identically.
	Variables map[string]any
}

// String generates a deterministic cache key string.
// Format: wpgql:<operation>:<sha256 of endpoint, query and variables>
//
// Example:
//
//	wpgql:get_categories:9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08
func (k CacheKey) String() string {
	op := strings.ToLower(strings.TrimSpace(k.Operation))
	if op == "" {
		op = "anonymous"
	}

	h := sha256.New()
	h.Write([]byte(strings.TrimRight(k.Endpoint, "/")))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(k.Query)))
	h.Write([]byte{0})
	if len(k.Variables) > 0 {
		// Variables come from our own request structs; a marshal failure
		// leaves them out of the hash rather than failing the request.
		if vars, err := json.Marshal(k.Variables); err == nil {
			h.Write(vars)
		}
	}

	return KeyPrefix + ":" + op + ":" + hex.EncodeToString(h.Sum(nil))
}
