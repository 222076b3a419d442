// Package wordpress models the parts of the WPGraphQL schema used to build
// category pages and fetches them page by page.
package wordpress

import (
	"fmt"
	"time"
)

// Term is a category or tag reference attached to a post.
type Term struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TermConnection is a { nodes { ... } } list of terms.
type TermConnection struct {
	Nodes []Term `json:"nodes"`
}

// Avatar is the author's avatar at the requested size.
type Avatar struct {
	URL string `json:"url"`
}

// Author is a post author.
type Author struct {
	Name   string  `json:"name"`
	Slug   string  `json:"slug"`
	Avatar *Avatar `json:"avatar,omitempty"`
}

// AvatarURL returns the avatar URL or "" when WordPress sent none.
func (a Author) AvatarURL() string {
	if a.Avatar == nil {
		return ""
	}
	return a.Avatar.URL
}

// Post is a blog post as returned inside a category.
type Post struct {
	ID         string         `json:"id"`
	PostID     int            `json:"postId"`
	Title      string         `json:"title"`
	Slug       string         `json:"slug"`
	Excerpt    string         `json:"excerpt"`
	URI        string         `json:"uri"`
	Date       string         `json:"date"`
	Author     *Author        `json:"author,omitempty"`
	Categories TermConnection `json:"categories"`
	Tags       TermConnection `json:"tags"`
}

// dateLayouts are the formats WPGraphQL has used for post dates.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Published parses the post date. WPGraphQL returns site-local time without a
// zone, which is interpreted as UTC.
func (p Post) Published() (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, p.Date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse post date %q", p.Date)
}

// PostConnection is a { nodes { ... } } list of posts.
type PostConnection struct {
	Nodes []Post `json:"nodes"`
}

// Category is a category node with its posts.
type Category struct {
	Name  string         `json:"name"`
	Slug  string         `json:"slug"`
	Posts PostConnection `json:"posts"`
}

// PageInfo mirrors the connection pageInfo block. EndCursor is null on an
// empty page.
type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

// CategoryConnection is one page of the root categories connection.
type CategoryConnection struct {
	PageInfo PageInfo   `json:"pageInfo"`
	Nodes    []Category `json:"nodes"`
}
