package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/collection"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
	"github.com/kaabmedia/Vdubscards/internal/match"
)

// Ceilings for the filter gather pass. It samples the collection rather
// than enumerating it, so the caps are tighter than the product scan's.
const (
	filterSearchPages  = 3
	filterCatalogPages = 8
	filterSearchCap    = 200
	filterCatalogCap   = 600
	filterBroaden      = 60
)

// FilterTerm is one selectable value of a filter attribute.
type FilterTerm struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int64  `json:"count,omitempty"`
}

// FilterAttribute is an attribute with the terms that survive filtering.
type FilterAttribute struct {
	ID    int64        `json:"id"`
	Name  string       `json:"name"`
	Slug  string       `json:"slug"`
	Terms []FilterTerm `json:"terms"`
}

// PriceBounds is the min/max price envelope of a product set.
type PriceBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterSet is the payload of the filter routes.
type FilterSet struct {
	Price      PriceBounds       `json:"price"`
	Attributes []FilterAttribute `json:"attributes"`
}

// FilterService builds the storefront's filter sidebars.
type FilterService struct {
	catalog product.Repository
	content collection.Repository
}

func NewFilterService(catalog product.Repository, content collection.Repository) *FilterService {
	return &FilterService{catalog: catalog, content: content}
}

// Global returns every attribute with all of its terms plus the overall
// catalog price bounds. A failing term fetch degrades that attribute to
// an empty term list.
func (s *FilterService) Global(ctx context.Context) (*FilterSet, error) {
	attrs, err := s.catalog.Attributes(ctx)
	if err != nil {
		return nil, err
	}

	out := &FilterSet{Attributes: make([]FilterAttribute, 0, len(attrs))}
	for i := range attrs {
		fa := FilterAttribute{
			ID:    attrs[i].ID,
			Name:  attrs[i].Name,
			Slug:  attrs[i].Slug,
			Terms: []FilterTerm{},
		}
		terms, err := s.catalog.AttributeTerms(ctx, attrs[i].ID)
		if err != nil {
			zap.L().Debug("attribute terms fetch failed",
				zap.Int64("attribute", attrs[i].ID), zap.Error(err))
		} else {
			for j := range terms {
				fa.Terms = append(fa.Terms, FilterTerm{
					ID:    terms[j].ID,
					Name:  terms[j].Name,
					Slug:  terms[j].Slug,
					Count: terms[j].Count,
				})
			}
		}
		out.Attributes = append(out.Attributes, fa)
	}

	min, max, err := s.priceBounds(ctx)
	if err != nil {
		return nil, err
	}
	out.Price = PriceBounds{Min: min, Max: max}
	return out, nil
}

// priceBounds probes the cheapest and the most expensive product in two
// concurrent single-item queries.
func (s *FilterService) priceBounds(ctx context.Context) (float64, float64, error) {
	var min, max float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.catalog.List(gctx, product.ListQuery{PerPage: 1, OrderBy: "price", Order: "asc"})
		if err != nil {
			return err
		}
		if len(list) > 0 {
			min = list[0].ResolvedPrice()
		}
		return nil
	})
	g.Go(func() error {
		list, err := s.catalog.List(gctx, product.ListQuery{PerPage: 1, OrderBy: "price", Order: "desc"})
		if err != nil {
			return err
		}
		if len(list) > 0 {
			max = list[0].ResolvedPrice()
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return min, max, nil
}

// ForCollection restricts the global filter set to values actually seen
// on the collection's products. Unknown slug yields an empty set.
func (s *FilterService) ForCollection(ctx context.Context, slug string) (*FilterSet, error) {
	col, err := s.content.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return &FilterSet{Attributes: []FilterAttribute{}}, nil
	}

	members, err := s.gather(ctx, col.Title)
	if err != nil {
		return nil, err
	}

	out := &FilterSet{Attributes: []FilterAttribute{}}
	if len(members) == 0 {
		return out, nil
	}

	first := true
	for i := range members {
		price := members[i].ResolvedPrice()
		if first || price < out.Price.Min {
			out.Price.Min = price
		}
		if first || price > out.Price.Max {
			out.Price.Max = price
		}
		first = false
	}

	// attribute key -> set of normalized option values seen in the set
	observed := map[string]map[string]struct{}{}
	for i := range members {
		for j := range members[i].Attributes {
			a := &members[i].Attributes[j]
			key := attributeKey(a.Slug, a.Name)
			if key == "" {
				continue
			}
			set, ok := observed[key]
			if !ok {
				set = map[string]struct{}{}
				observed[key] = set
			}
			for _, v := range a.Values() {
				set[match.Normalize(v)] = struct{}{}
			}
		}
	}

	attrs, err := s.catalog.Attributes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range attrs {
		set, ok := observed[attributeKey(attrs[i].Slug, attrs[i].Name)]
		if !ok {
			continue
		}
		terms, err := s.catalog.AttributeTerms(ctx, attrs[i].ID)
		if err != nil {
			zap.L().Debug("attribute terms fetch failed",
				zap.Int64("attribute", attrs[i].ID), zap.Error(err))
			continue
		}
		fa := FilterAttribute{
			ID:    attrs[i].ID,
			Name:  attrs[i].Name,
			Slug:  attrs[i].Slug,
			Terms: []FilterTerm{},
		}
		for j := range terms {
			if _, seen := set[match.Normalize(terms[j].Name)]; !seen {
				continue
			}
			fa.Terms = append(fa.Terms, FilterTerm{
				ID:    terms[j].ID,
				Name:  terms[j].Name,
				Slug:  terms[j].Slug,
				Count: terms[j].Count,
			})
		}
		if len(fa.Terms) > 0 {
			out.Attributes = append(out.Attributes, fa)
		}
	}
	return out, nil
}

// gather samples the collection's products with the bounded search-then-
// broaden pass. Membership uses the plain substring match here.
func (s *FilterService) gather(ctx context.Context, title string) ([]product.Product, error) {
	seen := map[int64]struct{}{}
	members := []product.Product{}

	take := func(list []product.Product) {
		for i := range list {
			if !filterProductMatches(title, &list[i]) {
				continue
			}
			if _, dup := seen[list[i].ID]; dup {
				continue
			}
			seen[list[i].ID] = struct{}{}
			members = append(members, list[i])
		}
	}

	for page := 1; page <= filterSearchPages; page++ {
		list, err := s.catalog.List(ctx, product.ListQuery{
			Page: page, PerPage: searchPageSize, Search: title,
		})
		if err != nil {
			return nil, err
		}
		take(list)
		if len(members) >= filterSearchCap || len(list) < searchPageSize {
			break
		}
	}

	if len(members) >= filterBroaden {
		return members, nil
	}

	for page := 1; page <= filterCatalogPages; page++ {
		list, err := s.catalog.List(ctx, product.ListQuery{
			Page: page, PerPage: catalogPageSize,
		})
		if err != nil {
			return nil, err
		}
		take(list)
		if len(members) >= filterCatalogCap || len(list) < catalogPageSize {
			break
		}
	}
	return members, nil
}

func filterProductMatches(title string, p *product.Product) bool {
	for i := range p.Attributes {
		a := &p.Attributes[i]
		if !nameIsCollectionKey(a.Name) && !nameIsCollectionKey(a.Slug) {
			continue
		}
		for _, v := range a.Values() {
			if match.SubstringMatch(v, title) {
				return true
			}
		}
	}
	for i := range p.MetaData {
		if !nameIsCollectionKey(p.MetaData[i].Key) {
			continue
		}
		if match.SubstringMatch(p.MetaData[i].ValueString(), title) {
			return true
		}
	}
	return false
}

// attributeKey normalizes an attribute to its comparable identity:
// the pa_-stripped slug when present, otherwise the slugified name.
func attributeKey(slug, name string) string {
	if slug != "" {
		return match.StripPa(slug)
	}
	return match.StripPa(match.Slugify(name))
}
