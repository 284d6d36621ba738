package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/collection"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
	"github.com/kaabmedia/Vdubscards/internal/match"
)

// Scan ceilings. The store has no native collection taxonomy, so
// membership is recovered by scanning the catalog and matching product
// attributes against the collection title. Every loop is bounded.
const (
	searchPageSize  = 50
	searchPageCap   = 3
	catalogPageSize = 100
	catalogPageCap  = 10
	minYield        = 12
)

// candidate attribute/meta names that carry collection membership
var collectionKeys = []string{"collection", "collectie", "pa_collection", "pa_collectie"}

// CollectionService resolves a WordPress collection to its products.
type CollectionService struct {
	catalog product.Repository
	content collection.Repository
}

func NewCollectionService(catalog product.Repository, content collection.Repository) *CollectionService {
	return &CollectionService{catalog: catalog, content: content}
}

// CollectionParams is the query surface of the collection products route.
type CollectionParams struct {
	Slug        string
	Page        int
	PerPage     int
	MinPrice    string
	MaxPrice    string
	PriceRanges []PriceRange
	Attributes  []product.AttributeFilter
}

func (p CollectionParams) normalized() CollectionParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = 24
	}
	return p
}

// Products lists the products belonging to the collection identified by
// slug. An unknown slug yields an empty result, not an error.
func (s *CollectionService) Products(ctx context.Context, p CollectionParams) ([]product.Product, product.PageInfo, error) {
	p = p.normalized()

	col, err := s.content.BySlug(ctx, p.Slug)
	if err != nil {
		return nil, product.PageInfo{}, err
	}
	if col == nil {
		return []product.Product{}, localInfo(0, p.PerPage), nil
	}

	if list, info, ok := s.fastPath(ctx, col.Title, p); ok {
		return list, info, nil
	}

	if len(p.PriceRanges) > 0 {
		return s.scanPriceRanges(ctx, col.Title, p)
	}

	matched, err := s.scan(ctx, col.Title, scanOpts{
		minPrice:   p.MinPrice,
		maxPrice:   p.MaxPrice,
		attributes: p.Attributes,
		wantYield:  p.PerPage,
		hardCap:    p.PerPage * 2,
	})
	if err != nil {
		return nil, product.PageInfo{}, err
	}
	return paginate(matched, p.Page, p.PerPage)
}

// fastPath looks for a native collection attribute and, when one of its
// terms fuzzy-matches the title, issues a single filtered query with
// upstream pagination. Any failure falls back to the scan.
func (s *CollectionService) fastPath(ctx context.Context, title string, p CollectionParams) ([]product.Product, product.PageInfo, bool) {
	attrs, err := s.catalog.Attributes(ctx)
	if err != nil {
		zap.L().Debug("collection attribute lookup failed", zap.Error(err))
		return nil, product.PageInfo{}, false
	}
	var attr *product.Attribute
	for i := range attrs {
		n := match.Normalize(attrs[i].Name)
		sl := match.Normalize(match.StripPa(attrs[i].Slug))
		if strings.Contains(n, "collect") || strings.Contains(sl, "collect") {
			attr = &attrs[i]
			break
		}
	}
	if attr == nil {
		return nil, product.PageInfo{}, false
	}

	terms, err := s.catalog.AttributeTerms(ctx, attr.ID)
	if err != nil {
		zap.L().Debug("collection term lookup failed", zap.Error(err))
		return nil, product.PageInfo{}, false
	}
	var term *product.Term
	for i := range terms {
		if match.ApproxMatch(terms[i].Name, title) {
			term = &terms[i]
			break
		}
	}
	if term == nil {
		return nil, product.PageInfo{}, false
	}

	q := product.ListQuery{
		Page:       p.Page,
		PerPage:    p.PerPage,
		MinPrice:   p.MinPrice,
		MaxPrice:   p.MaxPrice,
		Attributes: append([]product.AttributeFilter{{Taxonomy: attr.Slug, Terms: formatID(term.ID)}}, p.Attributes...),
	}
	if len(p.PriceRanges) > 0 {
		sup := Superset(p.PriceRanges)
		q.MinPrice = formatPrice(sup.Min)
		q.MaxPrice = ""
		if sup.Max != nil {
			q.MaxPrice = formatPrice(*sup.Max)
		}
	}
	list, info, err := s.catalog.ListPage(ctx, q)
	if err != nil {
		zap.L().Debug("collection fast path query failed", zap.Error(err))
		return nil, product.PageInfo{}, false
	}
	if len(p.PriceRanges) > 0 {
		kept := make([]product.Product, 0, len(list))
		for i := range list {
			if InAnyRange(list[i].ResolvedPrice(), p.PriceRanges) {
				kept = append(kept, list[i])
			}
		}
		list = kept
		info = localInfo(len(list), p.PerPage)
	}
	return list, info, true
}

// scanPriceRanges scans once over the superset of the selected ranges
// and buckets locally by resolved price.
func (s *CollectionService) scanPriceRanges(ctx context.Context, title string, p CollectionParams) ([]product.Product, product.PageInfo, error) {
	sup := Superset(p.PriceRanges)
	maxPrice := ""
	if sup.Max != nil {
		maxPrice = formatPrice(*sup.Max)
	}
	matched, err := s.scan(ctx, title, scanOpts{
		minPrice:   formatPrice(sup.Min),
		maxPrice:   maxPrice,
		attributes: p.Attributes,
		wantYield:  p.PerPage,
		hardCap:    p.PerPage * 2,
	})
	if err != nil {
		return nil, product.PageInfo{}, err
	}
	kept := make([]product.Product, 0, len(matched))
	for i := range matched {
		if InAnyRange(matched[i].ResolvedPrice(), p.PriceRanges) {
			kept = append(kept, matched[i])
		}
	}
	return paginate(kept, p.Page, p.PerPage)
}

type scanOpts struct {
	minPrice   string
	maxPrice   string
	attributes []product.AttributeFilter
	wantYield  int // search phase stops when this many matches are in hand
	hardCap    int // catalog phase stops at this many matches
}

// scan runs the two-phase membership scan: targeted search pages first,
// then broad catalog pages only when the yield stayed thin.
func (s *CollectionService) scan(ctx context.Context, title string, o scanOpts) ([]product.Product, error) {
	seen := map[int64]struct{}{}
	matched := []product.Product{}

	take := func(list []product.Product) {
		for i := range list {
			if !productMatchesCollection(title, &list[i]) {
				continue
			}
			if _, dup := seen[list[i].ID]; dup {
				continue
			}
			seen[list[i].ID] = struct{}{}
			matched = append(matched, list[i])
		}
	}

	for page := 1; page <= searchPageCap; page++ {
		list, err := s.catalog.List(ctx, product.ListQuery{
			Page:       page,
			PerPage:    searchPageSize,
			Search:     title,
			MinPrice:   o.minPrice,
			MaxPrice:   o.maxPrice,
			Attributes: o.attributes,
		})
		if err != nil {
			return nil, err
		}
		take(list)
		if len(matched) >= o.wantYield || len(list) < searchPageSize {
			break
		}
	}

	threshold := minYield
	if half := o.wantYield / 2; half > threshold {
		threshold = half
	}
	if len(matched) >= threshold {
		return matched, nil
	}

	for page := 1; page <= catalogPageCap; page++ {
		list, err := s.catalog.List(ctx, product.ListQuery{
			Page:       page,
			PerPage:    catalogPageSize,
			MinPrice:   o.minPrice,
			MaxPrice:   o.maxPrice,
			Attributes: o.attributes,
		})
		if err != nil {
			return nil, err
		}
		take(list)
		if len(matched) >= o.hardCap || len(list) < catalogPageSize {
			break
		}
	}
	return matched, nil
}

// productMatchesCollection reports whether the product carries the
// collection title in one of its attributes or meta fields.
func productMatchesCollection(title string, p *product.Product) bool {
	for i := range p.Attributes {
		a := &p.Attributes[i]
		if !nameIsCollectionKey(a.Name) && !nameIsCollectionKey(a.Slug) {
			continue
		}
		for _, v := range a.Values() {
			if match.ApproxMatch(v, title) {
				return true
			}
		}
	}
	for i := range p.MetaData {
		if !nameIsCollectionKey(p.MetaData[i].Key) {
			continue
		}
		if match.ApproxMatch(p.MetaData[i].ValueString(), title) {
			return true
		}
	}
	return false
}

func nameIsCollectionKey(name string) bool {
	n := match.Normalize(name)
	if n == "" {
		return false
	}
	for _, k := range collectionKeys {
		if strings.Contains(n, match.Normalize(k)) {
			return true
		}
	}
	return false
}
