package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
)

func numberedProducts(n int) []product.Product {
	out := make([]product.Product, n)
	for i := range out {
		out[i] = product.Product{
			ID:    int64(i + 1),
			Name:  fmt.Sprintf("Product %d", i+1),
			Price: fmt.Sprintf("%d.00", (i+1)*10),
		}
	}
	return out
}

func TestListPassthrough(t *testing.T) {
	catalog := &fakeCatalog{products: numberedProducts(5)}
	svc := NewCatalogService(catalog)

	list, info, err := svc.List(context.Background(), ListParams{
		Query: product.ListQuery{PerPage: 2, Page: 2},
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].ID)
	assert.Equal(t, 5, info.Total)
	assert.Equal(t, 3, info.TotalPages)
}

func TestListSaleOnly(t *testing.T) {
	catalog := &fakeCatalog{products: []product.Product{
		{ID: 1, Price: "8.00", SalePrice: "8.00", RegularPrice: "10.00"},
		{ID: 2, Price: "10.00", RegularPrice: "10.00"},
		{ID: 3, Price: "15.00"},
	}}
	svc := NewCatalogService(catalog)

	list, info, err := svc.List(context.Background(), ListParams{
		Query:    product.ListQuery{PerPage: 12},
		SaleOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, 1, info.Total)
}

func TestRandomUniqueDistinct(t *testing.T) {
	catalog := &fakeCatalog{products: numberedProducts(10)}
	svc := NewCatalogService(catalog)

	list, _, err := svc.List(context.Background(), ListParams{
		Query:  product.ListQuery{PerPage: 4},
		Random: true,
		Unique: true,
	})
	require.NoError(t, err)
	require.Len(t, list, 4)

	seen := map[int64]struct{}{}
	for _, p := range list {
		_, dup := seen[p.ID]
		assert.False(t, dup, "duplicate id %d", p.ID)
		seen[p.ID] = struct{}{}
		assert.GreaterOrEqual(t, p.ID, int64(1))
		assert.LessOrEqual(t, p.ID, int64(10))
	}
}

func TestRandomUniqueSmallCatalog(t *testing.T) {
	catalog := &fakeCatalog{products: numberedProducts(2)}
	svc := NewCatalogService(catalog)

	list, _, err := svc.List(context.Background(), ListParams{
		Query:  product.ListQuery{PerPage: 6},
		Random: true,
		Unique: true,
	})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestListPriceRangesUnion(t *testing.T) {
	catalog := &fakeCatalog{products: numberedProducts(20)} // prices 10..200
	svc := NewCatalogService(catalog)

	list, info, err := svc.List(context.Background(), ListParams{
		Query:       product.ListQuery{PerPage: 24},
		PriceRanges: ParsePriceRanges("0-30,150+"),
	})
	require.NoError(t, err)
	// 10,20,30 plus 150..200
	assert.Equal(t, 9, info.Total)
	for _, p := range list {
		price := p.ResolvedPrice()
		assert.True(t, price <= 30 || price >= 150, "price %v outside ranges", price)
	}
}

func TestBulkPreservesOrder(t *testing.T) {
	catalog := &fakeCatalog{products: numberedProducts(5)}
	svc := NewCatalogService(catalog)

	list, err := svc.Bulk(context.Background(), []int64{3, 1, 5, 99})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, int64(3), list[0].ID)
	assert.Equal(t, int64(1), list[1].ID)
	assert.Equal(t, int64(5), list[2].ID)
}

func TestBulkEmpty(t *testing.T) {
	svc := NewCatalogService(&fakeCatalog{})
	list, err := svc.Bulk(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpsell(t *testing.T) {
	catalog := &fakeCatalog{products: []product.Product{
		{ID: 1, Categories: []product.CategoryRef{{ID: 10}}},
		{ID: 2, Categories: []product.CategoryRef{{ID: 10}}},
		{ID: 3, Categories: []product.CategoryRef{{ID: 10}}},
		{ID: 4, Categories: []product.CategoryRef{{ID: 20}}},
		{ID: 5, Categories: []product.CategoryRef{{ID: 30}}},
	}}
	svc := NewCatalogService(catalog)

	list, err := svc.Upsell(context.Background(), UpsellParams{
		IDs: []int64{1}, Limit: 4, PerCat: 6, CatCap: 3,
	})
	require.NoError(t, err)
	// same category as the cart item, cart item itself excluded
	require.Len(t, list, 2)
	for _, p := range list {
		assert.NotEqual(t, int64(1), p.ID)
		assert.Equal(t, int64(10), p.Categories[0].ID)
	}
}

func TestUpsellEmptyCart(t *testing.T) {
	svc := NewCatalogService(&fakeCatalog{})
	list, err := svc.Upsell(context.Background(), UpsellParams{Limit: 4, PerCat: 6, CatCap: 3})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpsellCapsAtLimit(t *testing.T) {
	products := []product.Product{}
	for i := 1; i <= 10; i++ {
		products = append(products, product.Product{
			ID:         int64(i),
			Categories: []product.CategoryRef{{ID: 10}},
		})
	}
	catalog := &fakeCatalog{products: products}
	svc := NewCatalogService(catalog)

	list, err := svc.Upsell(context.Background(), UpsellParams{
		IDs: []int64{1}, Limit: 3, PerCat: 12, CatCap: 3,
	})
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
