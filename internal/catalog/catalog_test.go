package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	products []models.Product
	err      error
	calls    atomic.Int32
}

func (f *fakeSource) AllProducts(ctx context.Context) ([]models.Product, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func TestCatalogServesRemoteProducts(t *testing.T) {
	remote := &fakeSource{products: []models.Product{
		{ID: 42, Name: "Lamp", Price: decimal.NewFromInt(20), Category: "Home", Merchant: "HomeGoods"},
	}}
	c := New(remote)
	ctx := context.Background()

	products, err := c.List(ctx, Query{Sort: SortRelevance})
	require.NoError(t, err)
	assert.Len(t, products, 1)

	p, err := c.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Name)

	_, err = c.Get(ctx, 1)
	assert.ErrorIs(t, err, database.ErrProductNotFound)

	categories, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, categories)
}

func TestCatalogFallsBackToSeed(t *testing.T) {
	remote := &fakeSource{err: errors.New("connection refused")}
	c := New(remote)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		products, err := c.List(ctx, Query{})
		require.NoError(t, err)
		assert.Len(t, products, 12)
	}

	// The breaker opens after three consecutive failures.
	assert.Equal(t, int32(3), remote.calls.Load())
}

func TestCatalogIgnoresCallerCancellation(t *testing.T) {
	remote := &fakeSource{products: []models.Product{
		{ID: 42, Name: "Lamp", Price: decimal.NewFromInt(20), Category: "Home"},
	}}
	c := New(remote)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		products, err := c.List(ctx, Query{})
		require.NoError(t, err)
		assert.Equal(t, []int64{42}, ids(products))
	}

	products, err := c.List(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, ids(products))
	assert.Equal(t, gobreaker.StateClosed, c.breaker.State())
}

func TestCatalogContextErrorsDoNotTripBreaker(t *testing.T) {
	remote := &fakeSource{err: context.DeadlineExceeded}
	c := New(remote)

	for i := 0; i < 5; i++ {
		products, err := c.List(context.Background(), Query{})
		require.NoError(t, err)
		assert.Len(t, products, 12)
	}

	assert.Equal(t, int32(5), remote.calls.Load())
	assert.Equal(t, gobreaker.StateClosed, c.breaker.State())
}

func TestStaticCatalog(t *testing.T) {
	c := NewStatic()
	ctx := context.Background()

	featured, err := c.Featured(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(featured))

	merchants, err := c.Merchants(ctx)
	require.NoError(t, err)
	assert.Contains(t, merchants, "ElectroMart")
	assert.Len(t, merchants, 9)

	categories, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beauty", "clothing", "electronics", "home", "sports"}, categories)
}

func TestCatalogReturnsCopies(t *testing.T) {
	c := NewStatic()
	ctx := context.Background()

	p, err := c.Get(ctx, 1)
	require.NoError(t, err)
	p.Name = "changed"

	again, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Wireless Noise Cancelling Headphones", again.Name)
}
