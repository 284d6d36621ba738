package product

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Stock status values as WooCommerce reports them.
const (
	StockInStock    = "instock"
	StockOutOfStock = "outofstock"
	StockBackorder  = "onbackorder"
)

// Image is a product image reference.
type Image struct {
	ID   int64  `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt,omitempty"`
}

// CategoryRef is the category shape embedded in a product.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductAttribute is the per-product attribute shape: free-text option
// strings, not term references. Variations carry a single "option"
// instead of "options".
type ProductAttribute struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Slug    string   `json:"slug,omitempty"`
	Options []string `json:"options,omitempty"`
	Option  string   `json:"option,omitempty"`
}

// Values returns the option strings regardless of which field carries
// them.
func (a ProductAttribute) Values() []string {
	if len(a.Options) > 0 {
		return a.Options
	}
	if a.Option != "" {
		return []string{a.Option}
	}
	return nil
}

// Meta is a free-form metadata entry.
type Meta struct {
	ID    int64           `json:"id,omitempty"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// ValueString renders the metadata value as a plain string.
func (m Meta) ValueString() string {
	var s string
	if err := json.Unmarshal(m.Value, &s); err == nil {
		return s
	}
	return strings.Trim(string(m.Value), `"`)
}

// Product mirrors the upstream catalog shape. This system never mutates
// products; prices stay decimal strings as WooCommerce sends them.
type Product struct {
	ID               int64              `json:"id"`
	Name             string             `json:"name"`
	Slug             string             `json:"slug"`
	Permalink        string             `json:"permalink,omitempty"`
	Type             string             `json:"type,omitempty"`
	Status           string             `json:"status,omitempty"`
	Featured         bool               `json:"featured,omitempty"`
	Description      string             `json:"description,omitempty"`
	ShortDescription string             `json:"short_description,omitempty"`
	SKU              string             `json:"sku,omitempty"`
	Price            string             `json:"price"`
	RegularPrice     string             `json:"regular_price,omitempty"`
	SalePrice        string             `json:"sale_price,omitempty"`
	OnSale           bool               `json:"on_sale,omitempty"`
	Images           []Image            `json:"images"`
	Categories       []CategoryRef      `json:"categories,omitempty"`
	Attributes       []ProductAttribute `json:"attributes,omitempty"`
	MetaData         []Meta             `json:"meta_data,omitempty"`
	StockStatus      string             `json:"stock_status,omitempty"`
	ManageStock      bool               `json:"manage_stock,omitempty"`
	StockQuantity    *int64             `json:"stock_quantity,omitempty"`
	TotalSales       int64              `json:"total_sales,omitempty"`
	AverageRating    string             `json:"average_rating,omitempty"`
	RatingCount      int64              `json:"rating_count,omitempty"`
}

// ResolvedPrice returns the first usable numeric price: current, then
// sale, then regular. Zero when none parse.
func (p *Product) ResolvedPrice() float64 {
	for _, s := range []string{p.Price, p.SalePrice, p.RegularPrice} {
		if s == "" {
			continue
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0
}

// IsOnSale requires an actual price difference, not just the on_sale
// flag.
func (p *Product) IsOnSale() bool {
	price, _ := strconv.ParseFloat(p.Price, 64)
	sale, _ := strconv.ParseFloat(p.SalePrice, 64)
	regular, _ := strconv.ParseFloat(p.RegularPrice, 64)
	if sale > 0 && regular > 0 && sale < regular {
		return true
	}
	if price > 0 && regular > 0 && price < regular {
		return true
	}
	return false
}

// Category is a catalog category from products/categories.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent int64  `json:"parent"`
	Image  *Image `json:"image,omitempty"`
	Count  int64  `json:"count,omitempty"`
}

// Attribute is a global catalog attribute from products/attributes.
type Attribute struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Term belongs to exactly one Attribute.
type Term struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int64  `json:"count,omitempty"`
}

// AttributeFilter selects terms of one attribute taxonomy. Terms holds
// comma-separated term ids, passed through to the upstream verbatim.
type AttributeFilter struct {
	Taxonomy string
	Terms    string
}

// ListQuery carries the upstream products query parameters.
type ListQuery struct {
	Page       int
	PerPage    int
	Search     string
	Category   string
	Slug       string
	OrderBy    string
	Order      string
	OnSale     string
	Featured   string
	MinPrice   string
	MaxPrice   string
	Include    []int64
	Exclude    []int64
	Offset     *int
	Attributes []AttributeFilter
}

// Values renders the query as upstream URL parameters. Attribute filters
// repeat the attribute/attribute_term pair per entry.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Slug != "" {
		v.Set("slug", q.Slug)
	}
	if q.OrderBy != "" {
		v.Set("orderby", q.OrderBy)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.OnSale != "" {
		v.Set("on_sale", q.OnSale)
	}
	if q.Featured != "" {
		v.Set("featured", q.Featured)
	}
	if q.MinPrice != "" {
		v.Set("min_price", q.MinPrice)
	}
	if q.MaxPrice != "" {
		v.Set("max_price", q.MaxPrice)
	}
	if len(q.Include) > 0 {
		v.Set("include", joinIDs(q.Include))
	}
	if len(q.Exclude) > 0 {
		v.Set("exclude", joinIDs(q.Exclude))
	}
	if q.Offset != nil {
		v.Set("offset", strconv.Itoa(*q.Offset))
	}
	for _, f := range q.Attributes {
		v.Add("attribute", f.Taxonomy)
		v.Add("attribute_term", f.Terms)
	}
	return v
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// CategoryQuery carries the products/categories parameters.
type CategoryQuery struct {
	PerPage   int
	Parent    string
	HideEmpty string
}

func (q CategoryQuery) Values() url.Values {
	v := url.Values{}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Parent != "" {
		v.Set("parent", q.Parent)
	}
	if q.HideEmpty != "" {
		v.Set("hide_empty", q.HideEmpty)
	}
	return v
}

// PageInfo carries the pagination totals read from upstream response
// headers.
type PageInfo struct {
	Total      int
	TotalPages int
}

// Repository is the catalog read interface, implemented by the
// WooCommerce client.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, q ListQuery) ([]Product, error)
	// ListPage also returns the upstream pagination totals.
	ListPage(ctx context.Context, q ListQuery) ([]Product, PageInfo, error)
	Attributes(ctx context.Context) ([]Attribute, error)
	AttributeTerms(ctx context.Context, attributeID int64) ([]Term, error)
	Categories(ctx context.Context, q CategoryQuery) ([]Category, error)
}
