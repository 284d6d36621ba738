package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
)

func TestGlobalFilters(t *testing.T) {
	catalog := &fakeCatalog{
		products: []product.Product{
			{ID: 1, Name: "Cheap", Price: "4.50"},
			{ID: 2, Name: "Dear", Price: "99.00"},
		},
		attrs: []product.Attribute{
			{ID: 1, Name: "Kleur", Slug: "pa_kleur"},
			{ID: 2, Name: "Maat", Slug: "pa_maat"},
		},
		terms: map[int64][]product.Term{
			1: {{ID: 11, Name: "Rood", Slug: "rood", Count: 7}, {ID: 12, Name: "Blauw", Slug: "blauw"}},
		},
		termsErr: map[int64]error{2: errors.New("upstream 500")},
		listFn: func(q product.ListQuery) ([]product.Product, product.PageInfo, error) {
			if q.OrderBy == "price" && q.Order == "asc" {
				return []product.Product{{ID: 1, Price: "4.50"}}, product.PageInfo{}, nil
			}
			if q.OrderBy == "price" && q.Order == "desc" {
				return []product.Product{{ID: 2, Price: "99.00"}}, product.PageInfo{}, nil
			}
			return nil, product.PageInfo{}, errors.New("unexpected query")
		},
	}
	svc := NewFilterService(catalog, pokemonContent())

	set, err := svc.Global(context.Background())
	require.NoError(t, err)

	require.Len(t, set.Attributes, 2)
	require.Len(t, set.Attributes[0].Terms, 2)
	assert.EqualValues(t, 7, set.Attributes[0].Terms[0].Count)
	// failing term fetch degrades to an empty list, never an error
	assert.Empty(t, set.Attributes[1].Terms)

	assert.Equal(t, 4.5, set.Price.Min)
	assert.Equal(t, 99.0, set.Price.Max)
}

func TestCollectionFiltersIntersect(t *testing.T) {
	member := product.Product{
		ID:    1,
		Name:  "Pokemon Booster",
		Price: "12.00",
		Attributes: []product.ProductAttribute{
			{Name: "Collectie", Options: []string{"Pokemon"}},
			{Name: "Kleur", Slug: "pa_kleur", Options: []string{"Rood"}},
		},
	}
	other := product.Product{
		ID:    2,
		Name:  "Unrelated",
		Price: "80.00",
		Attributes: []product.ProductAttribute{
			{Name: "Kleur", Slug: "pa_kleur", Options: []string{"Blauw"}},
		},
	}
	catalog := &fakeCatalog{
		products: []product.Product{member, other},
		attrs: []product.Attribute{
			{ID: 1, Name: "Kleur", Slug: "pa_kleur"},
			{ID: 2, Name: "Maat", Slug: "pa_maat"},
		},
		terms: map[int64][]product.Term{
			1: {{ID: 11, Name: "Rood", Slug: "rood", Count: 3}, {ID: 12, Name: "Blauw", Slug: "blauw"}},
			2: {{ID: 21, Name: "XL", Slug: "xl"}},
		},
	}
	svc := NewFilterService(catalog, pokemonContent())

	set, err := svc.ForCollection(context.Background(), "pokemon")
	require.NoError(t, err)

	// only Kleur was observed on members, and only the Rood term
	require.Len(t, set.Attributes, 1)
	assert.Equal(t, "pa_kleur", set.Attributes[0].Slug)
	require.Len(t, set.Attributes[0].Terms, 1)
	assert.Equal(t, "Rood", set.Attributes[0].Terms[0].Name)
	assert.EqualValues(t, 3, set.Attributes[0].Terms[0].Count)

	assert.Equal(t, 12.0, set.Price.Min)
	assert.Equal(t, 12.0, set.Price.Max)
}

func TestCollectionFiltersUnknownSlug(t *testing.T) {
	svc := NewFilterService(&fakeCatalog{}, pokemonContent())

	set, err := svc.ForCollection(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, set.Attributes)
	assert.Zero(t, set.Price.Min)
	assert.Zero(t, set.Price.Max)
}

func TestCollectionFiltersEmptyMembers(t *testing.T) {
	catalog := &fakeCatalog{products: []product.Product{
		{ID: 1, Name: "Unrelated", Price: "5.00"},
	}}
	svc := NewFilterService(catalog, pokemonContent())

	set, err := svc.ForCollection(context.Background(), "pokemon")
	require.NoError(t, err)
	assert.Empty(t, set.Attributes)
}
