// Package pagination walks cursor-paginated GraphQL connections.
//
// Relay-style connections (as exposed by WPGraphQL) return a pageInfo block
// with hasNextPage and endCursor; the next page can only be requested once the
// previous cursor is known, so pages are fetched strictly one after another.
//
// Example usage:
//
//	nodes, err := pagination.Walk(ctx, fetcher, pagination.DefaultConfig(),
//		func(n int, page pagination.Page[wordpress.Category]) error {
//			// record an archive page for page n
//			return nil
//		})
//
// The walker:
//   - fetches page 0 with an empty cursor
//   - hands every page to the visit callback together with its page number
//   - accumulates all nodes in fetch order
//   - stops when hasNextPage is false, the context is done, or a guard trips
package pagination
