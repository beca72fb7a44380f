package cart

import (
	"testing"

	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int64, name, price string) models.Product {
	return models.Product{ID: id, Name: name, Price: decimal.RequireFromString(price)}
}

func TestAddMergesSameProduct(t *testing.T) {
	c := New(nil)

	merged, err := c.Add(product(1, "Headphones", "249.99"), 2)
	require.NoError(t, err)
	assert.False(t, merged)

	merged, err = c.Add(product(1, "Headphones", "249.99"), 3)
	require.NoError(t, err)
	assert.True(t, merged)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	c := New(nil)

	for _, q := range []int{0, -1} {
		_, err := c.Add(product(1, "Headphones", "249.99"), q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Equal(t, 0, c.Len())
}

func TestSetQuantity(t *testing.T) {
	c := New(nil)
	_, _ = c.Add(product(1, "Headphones", "249.99"), 1)
	_, _ = c.Add(product(2, "Watch", "399.99"), 1)

	item := c.SetQuantity(1, 4)
	require.NotNil(t, item)
	assert.Equal(t, 4, item.Quantity)
	assert.Equal(t, 2, c.Len())

	assert.NotNil(t, c.SetQuantity(2, 0))
	assert.Equal(t, 1, c.Len())

	assert.NotNil(t, c.SetQuantity(1, -3))
	assert.Equal(t, 0, c.Len())

	assert.Nil(t, c.SetQuantity(99, 2))
	assert.Equal(t, 0, c.Len())
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	c := New(nil)
	_, _ = c.Add(product(1, "Headphones", "249.99"), 1)

	assert.Nil(t, c.Remove(2))
	assert.Equal(t, 1, c.Len())

	removed := c.Remove(1)
	require.NotNil(t, removed)
	assert.Equal(t, "Headphones", removed.Product.Name)
}

func TestSubtotalAndCount(t *testing.T) {
	c := New(nil)
	assert.True(t, c.Subtotal().IsZero())
	assert.Equal(t, 0, c.Count())

	_, _ = c.Add(product(1, "Headphones", "249.99"), 2)
	_, _ = c.Add(product(9, "Skincare", "59.99"), 3)

	assert.True(t, c.Subtotal().Equal(decimal.RequireFromString("679.95")), c.Subtotal().String())
	assert.Equal(t, 5, c.Count())
}

func TestNewNormalizesDuplicates(t *testing.T) {
	c := New([]models.CartItem{
		{Product: product(1, "Headphones", "249.99"), Quantity: 1},
		{Product: product(1, "Headphones", "249.99"), Quantity: 2},
		{Product: product(2, "Watch", "399.99"), Quantity: 0},
	})

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}
