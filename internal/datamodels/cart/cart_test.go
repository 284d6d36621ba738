package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptySerializesWithItems(t *testing.T) {
	body, err := json.Marshal(Empty())
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(body))
}

func TestAddMergesQuantities(t *testing.T) {
	c := Empty()
	c.Add(7, 2)
	c.Add(7, 3)
	assert.Equal(t, []Item{{ProductID: 7, Quantity: 5}}, c.Items)
}

func TestAddNegativeRemovesLine(t *testing.T) {
	c := Empty()
	c.Add(7, 2)
	c.Add(7, -2)
	assert.Empty(t, c.Items)
}

func TestAddNegativeForAbsentLineIsNoop(t *testing.T) {
	c := Empty()
	c.Add(7, -1)
	assert.Empty(t, c.Items)
}

func TestRemove(t *testing.T) {
	c := Empty()
	c.Add(7, 1)
	c.Add(9, 2)
	c.Remove(7)
	assert.Equal(t, []Item{{ProductID: 9, Quantity: 2}}, c.Items)
	c.Remove(999)
	assert.Len(t, c.Items, 1)
}

func TestQuantity(t *testing.T) {
	c := Empty()
	c.Add(7, 4)
	assert.Equal(t, 4, c.Quantity(7))
	assert.Equal(t, 0, c.Quantity(8))
}

func TestProductIDsPreservesOrder(t *testing.T) {
	c := Empty()
	c.Add(9, 1)
	c.Add(7, 1)
	c.Add(11, 1)
	assert.Equal(t, []int64{9, 7, 11}, c.ProductIDs())
}
