package cart

// Item is one cart line. Quantity is always >= 1 for a stored line.
type Item struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Cart is the cookie-backed cart shape: {"items":[...]}. No version
// field; not guaranteed forward-compatible.
type Cart struct {
	Items []Item `json:"items"`
}

// Empty returns a cart with a non-nil, zero-length item list so it
// serializes as {"items":[]} rather than {"items":null}.
func Empty() Cart {
	return Cart{Items: []Item{}}
}

// Quantity returns the stored quantity for a product, zero when absent.
func (c Cart) Quantity(productID int64) int {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// Add merges quantity into the line for productID, summing with any
// existing quantity. A resulting quantity <= 0 removes the line; a
// non-positive add for an absent line is a no-op.
func (c *Cart) Add(productID int64, quantity int) {
	for i, it := range c.Items {
		if it.ProductID != productID {
			continue
		}
		next := it.Quantity + quantity
		if next <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = next
		}
		return
	}
	if quantity > 0 {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	}
}

// Remove filters the line out. Removing an absent line is a no-op.
func (c *Cart) Remove(productID int64) {
	out := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			out = append(out, it)
		}
	}
	c.Items = out
}

// ProductIDs returns the line product ids in order.
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// Store abstracts where a request's cart lives. Production uses an
// HTTP-only cookie adapter over the request context; tests use an
// in-memory store. Load never fails: missing or malformed data yields
// an empty cart.
type Store interface {
	Load() Cart
	Save(c Cart)
}

// MemoryStore holds a single cart in memory, for tests.
type MemoryStore struct {
	cart  Cart
	saved bool
}

func (m *MemoryStore) Load() Cart {
	if !m.saved {
		return Empty()
	}
	return m.cart
}

func (m *MemoryStore) Save(c Cart) {
	m.cart = c
	m.saved = true
}
