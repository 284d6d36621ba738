package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/cart"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
)

func TestCartAddInStock(t *testing.T) {
	catalog := &fakeCatalog{products: []product.Product{
		{ID: 7, Name: "Booster Box", StockStatus: product.StockInStock, StockQuantity: intPtr(5)},
	}}
	svc := NewCartService(catalog)
	store := &cart.MemoryStore{}

	c, err := svc.Add(context.Background(), store, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Quantity(7))
	assert.Equal(t, 2, store.Load().Quantity(7))
}

func TestCartAddOutOfStock(t *testing.T) {
	catalog := &fakeCatalog{products: []product.Product{
		{ID: 7, StockStatus: product.StockOutOfStock},
	}}
	svc := NewCartService(catalog)
	store := &cart.MemoryStore{}

	_, err := svc.Add(context.Background(), store, 7, 1)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 409, se.Code)
	assert.Equal(t, "Product is out of stock", se.Message)
	assert.Empty(t, store.Load().Items)
}

func TestCartAddExceedsStock(t *testing.T) {
	catalog := &fakeCatalog{products: []product.Product{
		{ID: 7, StockStatus: product.StockInStock, StockQuantity: intPtr(3)},
	}}
	svc := NewCartService(catalog)
	store := &cart.MemoryStore{}

	_, err := svc.Add(context.Background(), store, 7, 2)
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), store, 7, 2)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 409, se.Code)
	assert.Equal(t, "Only 1 in stock", se.Message)
	// cart keeps the previously validated quantity
	assert.Equal(t, 2, store.Load().Quantity(7))
}

func TestCartAddNoStockLeft(t *testing.T) {
	catalog := &fakeCatalog{products: []product.Product{
		{ID: 7, StockStatus: product.StockInStock, StockQuantity: intPtr(1)},
	}}
	svc := NewCartService(catalog)
	store := &cart.MemoryStore{}

	_, err := svc.Add(context.Background(), store, 7, 1)
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), store, 7, 1)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "No stock left", se.Message)
}

func TestCartAddValidationOutage(t *testing.T) {
	catalog := &fakeCatalog{} // empty catalog: GetByID fails
	svc := NewCartService(catalog)
	store := &cart.MemoryStore{}
	store.Save(cart.Cart{Items: []cart.Item{{ProductID: 7, Quantity: 1}}})

	_, err := svc.Add(context.Background(), store, 7, 1)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 503, se.Code)
	// failed validation must not mutate the cart
	assert.Equal(t, 1, store.Load().Quantity(7))
}

func TestCartAddNilStockIsUnlimited(t *testing.T) {
	catalog := &fakeCatalog{products: []product.Product{
		{ID: 7, StockStatus: product.StockInStock},
	}}
	svc := NewCartService(catalog)
	store := &cart.MemoryStore{}

	c, err := svc.Add(context.Background(), store, 7, 500)
	require.NoError(t, err)
	assert.Equal(t, 500, c.Quantity(7))
}

func TestCartNegativeAddSkipsValidation(t *testing.T) {
	catalog := &fakeCatalog{} // would fail validation if consulted
	svc := NewCartService(catalog)
	store := &cart.MemoryStore{}
	store.Save(cart.Cart{Items: []cart.Item{{ProductID: 7, Quantity: 3}}})

	c, err := svc.Add(context.Background(), store, 7, -2)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Quantity(7))
}

func TestCartRemove(t *testing.T) {
	svc := NewCartService(&fakeCatalog{})
	store := &cart.MemoryStore{}
	store.Save(cart.Cart{Items: []cart.Item{{ProductID: 7, Quantity: 1}, {ProductID: 9, Quantity: 2}}})

	c := svc.Remove(store, 7)
	assert.Equal(t, 0, c.Quantity(7))
	assert.Equal(t, 2, c.Quantity(9))
}

func TestCartRemoveInvalidIDResets(t *testing.T) {
	svc := NewCartService(&fakeCatalog{})
	store := &cart.MemoryStore{}
	store.Save(cart.Cart{Items: []cart.Item{{ProductID: 7, Quantity: 1}}})

	c := svc.Remove(store, 0)
	assert.Empty(t, c.Items)
	assert.Empty(t, store.Load().Items)
}
