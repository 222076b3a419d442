package wordpress

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/wpgraphql-pages/pkg/graphql"
	"github.com/Sternrassler/wpgraphql-pages/pkg/pagination"
)

// ErrMalformedResponse is returned when the response lacks the categories connection.
var ErrMalformedResponse = errors.New("malformed categories response")

// Doer executes a GraphQL request. *graphql.Client implements it.
type Doer interface {
	Do(ctx context.Context, req graphql.Request, out any) error
}

// Service fetches category data from a WordPress site.
type Service struct {
	client Doer
}

// NewService creates a Service on top of a GraphQL client.
func NewService(client Doer) *Service {
	return &Service{client: client}
}

type categoriesResponse struct {
	Categories *CategoryConnection `json:"categories"`
}

// FetchPage requests up to first categories after the given cursor.
// An empty cursor requests the first page and is sent as null.
func (s *Service) FetchPage(ctx context.Context, first int, after string) (pagination.Page[Category], error) {
	vars := map[string]any{"first": first, "after": nil}
	if after != "" {
		vars["after"] = after
	}

	var resp categoriesResponse
	err := s.client.Do(ctx, graphql.Request{
		Query:         CategoriesQuery,
		OperationName: CategoriesOperation,
		Variables:     vars,
	}, &resp)
	if err != nil {
		return pagination.Page[Category]{}, fmt.Errorf("query categories: %w", err)
	}
	if resp.Categories == nil {
		return pagination.Page[Category]{}, ErrMalformedResponse
	}

	page := pagination.Page[Category]{
		Nodes: resp.Categories.Nodes,
		PageInfo: pagination.PageInfo{
			HasNextPage: resp.Categories.PageInfo.HasNextPage,
		},
	}
	if c := resp.Categories.PageInfo.EndCursor; c != nil {
		page.PageInfo.EndCursor = *c
	}
	return page, nil
}
