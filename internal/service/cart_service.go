package service

import (
	"context"
	"fmt"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/cart"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
)

// CartService mutates the cookie cart, validating stock against the
// live catalog before any quantity increase.
type CartService struct {
	catalog product.Repository
}

func NewCartService(catalog product.Repository) *CartService {
	return &CartService{catalog: catalog}
}

func (s *CartService) Get(store cart.Store) cart.Cart {
	return store.Load()
}

// Add merges a quantity delta into the cart. Positive deltas re-check
// stock first; a failed check leaves the cart untouched.
func (s *CartService) Add(ctx context.Context, store cart.Store, productID int64, quantity int) (cart.Cart, error) {
	c := store.Load()
	if productID <= 0 {
		return c, badRequest("invalid product id")
	}

	if quantity > 0 {
		p, err := s.catalog.GetByID(ctx, productID)
		if err != nil {
			return c, unavailable("Stock validation failed")
		}
		if p.StockStatus != "" && p.StockStatus != product.StockInStock {
			return c, conflict("Product is out of stock")
		}
		if p.StockQuantity != nil {
			have := int64(c.Quantity(productID))
			if have+int64(quantity) > *p.StockQuantity {
				remaining := *p.StockQuantity - have
				if remaining <= 0 {
					return c, conflict("No stock left")
				}
				return c, conflict(fmt.Sprintf("Only %d in stock", remaining))
			}
		}
	}

	c.Add(productID, quantity)
	store.Save(c)
	return c, nil
}

// Remove drops a line unconditionally. A missing or invalid id resets
// the whole cart.
func (s *CartService) Remove(store cart.Store, productID int64) cart.Cart {
	c := store.Load()
	if productID <= 0 {
		c = cart.Empty()
	} else {
		c.Remove(productID)
	}
	store.Save(c)
	return c
}
