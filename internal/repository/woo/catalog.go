package woo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/order"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
)

// Catalog adapts the client to the product and order repository
// interfaces.
type Catalog struct {
	client *Client
}

// NewCatalog wraps a client. The returned value satisfies both
// product.Repository and order.Repository.
func NewCatalog(client *Client) *Catalog {
	return &Catalog{client: client}
}

// Client exposes the underlying client for diagnostics.
func (c *Catalog) Client() *Client { return c.client }

func (c *Catalog) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := c.client.Fetch(ctx, http.MethodGet, fmt.Sprintf("products/%d", id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Catalog) List(ctx context.Context, q product.ListQuery) ([]product.Product, error) {
	var list []product.Product
	if err := c.client.Fetch(ctx, http.MethodGet, "products", q.Values(), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListPage reads the pagination totals from the X-WP-Total and
// X-WP-TotalPages response headers.
func (c *Catalog) ListPage(ctx context.Context, q product.ListQuery) ([]product.Product, product.PageInfo, error) {
	res, err := c.client.FetchRaw(ctx, http.MethodGet, "products", q.Values(), nil)
	if err != nil {
		return nil, product.PageInfo{}, err
	}
	defer res.Body.Close()

	info := product.PageInfo{
		Total:      headerInt(res.Header, "X-WP-Total"),
		TotalPages: headerInt(res.Header, "X-WP-TotalPages"),
	}
	var list []product.Product
	if err := decodeBody(res, &list); err != nil {
		return nil, info, err
	}
	return list, info, nil
}

func (c *Catalog) Attributes(ctx context.Context) ([]product.Attribute, error) {
	var list []product.Attribute
	params := url.Values{"per_page": []string{"100"}}
	if err := c.client.Fetch(ctx, http.MethodGet, "products/attributes", params, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Catalog) AttributeTerms(ctx context.Context, attributeID int64) ([]product.Term, error) {
	var list []product.Term
	params := url.Values{"per_page": []string{"100"}}
	endpoint := fmt.Sprintf("products/attributes/%d/terms", attributeID)
	if err := c.client.Fetch(ctx, http.MethodGet, endpoint, params, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Catalog) Categories(ctx context.Context, q product.CategoryQuery) ([]product.Category, error) {
	var list []product.Category
	if err := c.client.Fetch(ctx, http.MethodGet, "products/categories", q.Values(), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Create posts a new order. Write-only: only the created id is read back.
func (c *Catalog) Create(ctx context.Context, p *order.Payload) (*order.Order, error) {
	var o order.Order
	if err := c.client.Fetch(ctx, http.MethodPost, "orders", nil, p, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func headerInt(h http.Header, key string) int {
	n, _ := strconv.Atoi(h.Get(key))
	return n
}

func decodeBody(res *http.Response, out interface{}) error {
	return json.NewDecoder(res.Body).Decode(out)
}
