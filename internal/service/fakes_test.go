package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/collection"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/order"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
	"github.com/kaabmedia/Vdubscards/internal/match"
)

// fakeCatalog implements product.Repository and order.Repository over an
// in-memory product slice. listFn, when set, overrides the default
// filtering so tests can script exact upstream responses.
type fakeCatalog struct {
	products []product.Product

	listFn    func(q product.ListQuery) ([]product.Product, product.PageInfo, error)
	listCalls []product.ListQuery

	attrs    []product.Attribute
	attrsErr error
	terms    map[int64][]product.Term
	termsErr map[int64]error

	categories []product.Category
	created    []*order.Payload
}

func (f *fakeCatalog) GetByID(_ context.Context, id int64) (*product.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, fmt.Errorf("product %d not found", id)
}

func (f *fakeCatalog) filter(q product.ListQuery) []product.Product {
	var out []product.Product
	for i := range f.products {
		p := f.products[i]
		if len(q.Include) > 0 && !containsID(q.Include, p.ID) {
			continue
		}
		if len(q.Exclude) > 0 && containsID(q.Exclude, p.ID) {
			continue
		}
		if q.Category != "" && !inCategory(p, q.Category) {
			continue
		}
		if q.Search != "" && !match.SubstringMatch(p.Name, q.Search) {
			continue
		}
		if q.MinPrice != "" {
			if min, err := strconv.ParseFloat(q.MinPrice, 64); err == nil && p.ResolvedPrice() < min {
				continue
			}
		}
		if q.MaxPrice != "" {
			if max, err := strconv.ParseFloat(q.MaxPrice, 64); err == nil && p.ResolvedPrice() > max {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func (f *fakeCatalog) page(list []product.Product, q product.ListQuery) []product.Product {
	start := 0
	if q.Offset != nil {
		start = *q.Offset
	} else if q.Page > 1 && q.PerPage > 0 {
		start = (q.Page - 1) * q.PerPage
	}
	if start >= len(list) {
		return []product.Product{}
	}
	end := len(list)
	if q.PerPage > 0 && start+q.PerPage < end {
		end = start + q.PerPage
	}
	return list[start:end]
}

func (f *fakeCatalog) List(_ context.Context, q product.ListQuery) ([]product.Product, error) {
	f.listCalls = append(f.listCalls, q)
	if f.listFn != nil {
		list, _, err := f.listFn(q)
		return list, err
	}
	return f.page(f.filter(q), q), nil
}

func (f *fakeCatalog) ListPage(_ context.Context, q product.ListQuery) ([]product.Product, product.PageInfo, error) {
	f.listCalls = append(f.listCalls, q)
	if f.listFn != nil {
		return f.listFn(q)
	}
	all := f.filter(q)
	pages := 1
	if q.PerPage > 0 {
		pages = (len(all) + q.PerPage - 1) / q.PerPage
	}
	return f.page(all, q), product.PageInfo{Total: len(all), TotalPages: pages}, nil
}

func (f *fakeCatalog) Attributes(context.Context) ([]product.Attribute, error) {
	return f.attrs, f.attrsErr
}

func (f *fakeCatalog) AttributeTerms(_ context.Context, attributeID int64) ([]product.Term, error) {
	if err, ok := f.termsErr[attributeID]; ok {
		return nil, err
	}
	return f.terms[attributeID], nil
}

func (f *fakeCatalog) Categories(context.Context, product.CategoryQuery) ([]product.Category, error) {
	return f.categories, nil
}

func (f *fakeCatalog) Create(_ context.Context, p *order.Payload) (*order.Order, error) {
	f.created = append(f.created, p)
	return &order.Order{ID: int64(500 + len(f.created))}, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func inCategory(p product.Product, category string) bool {
	for _, c := range p.Categories {
		if strconv.FormatInt(c.ID, 10) == category {
			return true
		}
	}
	return false
}

// fakeContent implements collection.Repository with a static set.
type fakeContent struct {
	collections []collection.Collection
}

func (f *fakeContent) List(context.Context) ([]collection.Collection, error) {
	return f.collections, nil
}

func (f *fakeContent) BySlug(_ context.Context, slug string) (*collection.Collection, error) {
	for i := range f.collections {
		if f.collections[i].Slug == slug {
			return &f.collections[i], nil
		}
	}
	return nil, nil
}

func (f *fakeContent) Events(context.Context) ([]collection.Event, error) {
	return nil, nil
}

func (f *fakeContent) PrimaryMenu(context.Context) ([]collection.NavItem, error) {
	return nil, nil
}

func (f *fakeContent) Homepage(context.Context) (*collection.HomepageConfig, error) {
	return nil, nil
}

func intPtr(v int64) *int64 { return &v }
