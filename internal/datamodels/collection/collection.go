package collection

import "context"

// Collection is a marketing-curated grouping of products sourced from the
// content API. It has no native backend join to products; membership is
// inferred by fuzzy matching against product attribute values.
type Collection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Date  string `json:"date,omitempty"`
	Image string `json:"image,omitempty"`
}

// Event is a store event from the content API.
type Event struct {
	Title     string  `json:"title"`
	Slug      string  `json:"slug"`
	Location  *string `json:"location"`
	StartDate *string `json:"startdate"`
}

// NavItem is one node of the primary navigation menu.
type NavItem struct {
	ID       int64     `json:"id"`
	Label    string    `json:"label"`
	Path     string    `json:"path"`
	Children []NavItem `json:"children,omitempty"`
}

// HomepageConfig is the marketing configuration for the home page.
type HomepageConfig struct {
	CountdownStatus     bool   `json:"status"`
	CountdownEnd        string `json:"end,omitempty"`
	CountdownBackground string `json:"background,omitempty"`
}

// Repository is the content read interface, implemented by the WordPress
// GraphQL client.
type Repository interface {
	List(ctx context.Context) ([]Collection, error)
	// BySlug returns nil without error when the slug is unknown, so
	// callers can render an empty state.
	BySlug(ctx context.Context, slug string) (*Collection, error)
	Events(ctx context.Context) ([]Event, error)
	PrimaryMenu(ctx context.Context) ([]NavItem, error)
	Homepage(ctx context.Context) (*HomepageConfig, error)
}
