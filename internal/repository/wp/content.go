package wp

import (
	"context"
	"net/url"
	"strings"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/collection"
)

const collectionsQuery = `
  query Collections($first: Int!, $after: String) {
    collecties(first: $first, after: $after, where: { status: PUBLISH }) {
      pageInfo { hasNextPage endCursor }
      nodes {
        id
        title
        slug
        date
        featuredImage { node { sourceUrl } }
      }
    }
  }
`

const collectionBySlugQuery = `
  query CollectionBySlug($slug: String!) {
    collecties(where: { name: $slug, status: PUBLISH }) {
      nodes { title slug }
    }
  }
`

const eventsQuery = `
  query Events($first: Int!, $after: String) {
    events(first: $first, after: $after, where: { status: PUBLISH, orderby: { field: DATE, order: DESC } }) {
      pageInfo { hasNextPage endCursor }
      nodes {
        eventacf { location startdate }
        title
        slug
      }
    }
  }
`

const primaryMenuQuery = `
  query GetPrimaryMenu {
    menuItems(where: { location: PRIMARY, parentDatabaseId: 0 }, first: 100) {
      nodes {
        id
        databaseId
        label
        path
        childItems(first: 100) {
          nodes {
            id
            databaseId
            label
            path
            childItems(first: 100) {
              nodes {
                id
                databaseId
                label
                path
              }
            }
          }
        }
      }
    }
  }
`

const homepageQuery = `
  query HomepageCountdown {
    pageBy(pageId: 2645) {
      homepageacf {
        countdownStatus
        countdownEnd
        countdownBackground {
          node { sourceUrl }
        }
      }
    }
  }
`

const homepageFallbackQuery = `
  query HomepageCountdown {
    pageBy(pageId: 2645) {
      homepageacf { countdownStatus countdownEnd }
    }
  }
`

type imageNode struct {
	Node *struct {
		SourceURL string `json:"sourceUrl"`
	} `json:"node"`
}

func (n *imageNode) url() string {
	if n == nil || n.Node == nil {
		return ""
	}
	return n.Node.SourceURL
}

type pageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

// Content implements collection.Repository over the GraphQL client.
// wpHost, when non-empty, is used to rewrite absolute menu links that
// point at the CMS back to site-relative paths.
type Content struct {
	client *Client
	wpHost string
}

// NewContent builds the repository. base is the commerce/CMS base URL used
// only to derive the menu-rewrite host; it may be empty.
func NewContent(client *Client, base string) *Content {
	host := ""
	if u, err := url.Parse(base); err == nil {
		host = u.Host
	}
	return &Content{client: client, wpHost: host}
}

func (c *Content) List(ctx context.Context) ([]collection.Collection, error) {
	type resp struct {
		Collecties struct {
			PageInfo pageInfo `json:"pageInfo"`
			Nodes    []struct {
				ID            string     `json:"id"`
				Title         string     `json:"title"`
				Slug          string     `json:"slug"`
				Date          *string    `json:"date"`
				FeaturedImage *imageNode `json:"featuredImage"`
			} `json:"nodes"`
		} `json:"collecties"`
	}

	out := []collection.Collection{}
	var after *string
	// Cursor pagination with a hard iteration cap.
	for i := 0; i < 10; i++ {
		vars := map[string]interface{}{"first": 100}
		if after != nil {
			vars["after"] = *after
		}
		var data resp
		if err := c.client.Query(ctx, collectionsQuery, vars, &data); err != nil {
			return nil, err
		}
		for _, n := range data.Collecties.Nodes {
			col := collection.Collection{
				ID:    n.ID,
				Title: n.Title,
				Slug:  n.Slug,
				Image: n.FeaturedImage.url(),
			}
			if n.Date != nil {
				col.Date = *n.Date
			}
			out = append(out, col)
		}
		if !data.Collecties.PageInfo.HasNextPage {
			break
		}
		after = data.Collecties.PageInfo.EndCursor
	}
	return out, nil
}

func (c *Content) BySlug(ctx context.Context, slug string) (*collection.Collection, error) {
	type resp struct {
		Collecties struct {
			Nodes []struct {
				Title string `json:"title"`
				Slug  string `json:"slug"`
			} `json:"nodes"`
		} `json:"collecties"`
	}
	var data resp
	if err := c.client.Query(ctx, collectionBySlugQuery, map[string]interface{}{"slug": slug}, &data); err != nil {
		return nil, err
	}
	if len(data.Collecties.Nodes) == 0 {
		return nil, nil
	}
	n := data.Collecties.Nodes[0]
	return &collection.Collection{Title: n.Title, Slug: n.Slug}, nil
}

func (c *Content) Events(ctx context.Context) ([]collection.Event, error) {
	type resp struct {
		Events struct {
			PageInfo pageInfo `json:"pageInfo"`
			Nodes    []struct {
				Title    *string `json:"title"`
				Slug     *string `json:"slug"`
				EventACF *struct {
					Location  *string `json:"location"`
					StartDate *string `json:"startdate"`
				} `json:"eventacf"`
			} `json:"nodes"`
		} `json:"events"`
	}

	out := []collection.Event{}
	var after *string
	for i := 0; i < 10; i++ {
		vars := map[string]interface{}{"first": 50}
		if after != nil {
			vars["after"] = *after
		}
		var data resp
		if err := c.client.Query(ctx, eventsQuery, vars, &data); err != nil {
			return nil, err
		}
		for _, n := range data.Events.Nodes {
			e := collection.Event{}
			if n.Title != nil {
				e.Title = *n.Title
			}
			if n.Slug != nil {
				e.Slug = *n.Slug
			}
			if n.EventACF != nil {
				e.Location = n.EventACF.Location
				e.StartDate = n.EventACF.StartDate
			}
			out = append(out, e)
		}
		if !data.Events.PageInfo.HasNextPage {
			break
		}
		after = data.Events.PageInfo.EndCursor
	}
	return out, nil
}

type menuNode struct {
	ID         string  `json:"id"`
	DatabaseID int64   `json:"databaseId"`
	Label      string  `json:"label"`
	Path       string  `json:"path"`
	ChildItems *struct {
		Nodes []menuNode `json:"nodes"`
	} `json:"childItems"`
}

func (c *Content) PrimaryMenu(ctx context.Context) ([]collection.NavItem, error) {
	type resp struct {
		MenuItems struct {
			Nodes []menuNode `json:"nodes"`
		} `json:"menuItems"`
	}
	var data resp
	if err := c.client.Query(ctx, primaryMenuQuery, nil, &data); err != nil {
		return nil, err
	}
	items := make([]collection.NavItem, 0, len(data.MenuItems.Nodes))
	for _, n := range data.MenuItems.Nodes {
		item := c.mapMenuNode(n)
		if item.Label != "" && item.Path != "" {
			items = append(items, item)
		}
	}
	return items, nil
}

func (c *Content) mapMenuNode(n menuNode) collection.NavItem {
	item := collection.NavItem{
		ID:    n.DatabaseID,
		Label: n.Label,
		Path:  c.toInternalPath(n.Path),
	}
	if n.ChildItems != nil {
		for _, child := range n.ChildItems.Nodes {
			item.Children = append(item.Children, c.mapMenuNode(child))
		}
	}
	return item
}

// toInternalPath strips absolute menu links down to their path when they
// point at the CMS host; external links are kept as-is.
func (c *Content) toInternalPath(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		if c.wpHost == "" || u.Host != c.wpHost {
			return path
		}
		path = u.Path
		if path == "" {
			path = "/"
		}
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// Homepage returns the countdown marketing configuration. A failure of
// the full query falls back to a variant without the background image so
// the timer is not hidden entirely; a failure of both yields a disabled
// countdown, not an error.
func (c *Content) Homepage(ctx context.Context) (*collection.HomepageConfig, error) {
	type acf struct {
		CountdownStatus     bool       `json:"countdownStatus"`
		CountdownEnd        *string    `json:"countdownEnd"`
		CountdownBackground *imageNode `json:"countdownBackground"`
	}
	type resp struct {
		PageBy *struct {
			HomepageACF *acf `json:"homepageacf"`
		} `json:"pageBy"`
	}

	build := func(data resp, withBackground bool) *collection.HomepageConfig {
		cfg := &collection.HomepageConfig{}
		if data.PageBy == nil || data.PageBy.HomepageACF == nil {
			return cfg
		}
		a := data.PageBy.HomepageACF
		cfg.CountdownStatus = a.CountdownStatus
		if a.CountdownEnd != nil {
			cfg.CountdownEnd = *a.CountdownEnd
		}
		if withBackground {
			cfg.CountdownBackground = a.CountdownBackground.url()
		}
		return cfg
	}

	var data resp
	if err := c.client.Query(ctx, homepageQuery, nil, &data); err == nil {
		return build(data, true), nil
	}
	var fallback resp
	if err := c.client.Query(ctx, homepageFallbackQuery, nil, &fallback); err == nil {
		return build(fallback, false), nil
	}
	return &collection.HomepageConfig{}, nil
}
