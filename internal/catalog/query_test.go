package catalog

import (
	"net/url"
	"testing"

	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(products []models.Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestApplySearchIsCaseInsensitiveSubstring(t *testing.T) {
	got := Apply(Seed(), Query{Search: "DESIGNER"})
	assert.Equal(t, []int64{6, 12}, ids(got))
}

func TestApplyCategoryEquality(t *testing.T) {
	got := Apply(Seed(), Query{Category: "Home"})
	assert.Equal(t, []int64{4, 8}, ids(got))

	assert.Empty(t, Apply(Seed(), Query{Category: "hom"}))
}

func TestApplyPriceRangeInclusive(t *testing.T) {
	lo := decimal.RequireFromString("129.99")
	hi := decimal.RequireFromString("189.99")
	got := Apply(Seed(), Query{MinPrice: &lo, MaxPrice: &hi})
	assert.Equal(t, []int64{4, 5, 12}, ids(got))
}

func TestApplyMerchantsAndCategories(t *testing.T) {
	got := Apply(Seed(), Query{Merchants: []string{"fashion"}})
	assert.Equal(t, []int64{6, 12}, ids(got))

	got = Apply(Seed(), Query{Categories: []string{"beauty", "sports"}})
	assert.Equal(t, []int64{9, 10}, ids(got))
}

func TestApplyMinRating(t *testing.T) {
	got := Apply(Seed(), Query{MinRating: 4.9})
	assert.Equal(t, []int64{2, 7, 11}, ids(got))
}

func TestApplySorts(t *testing.T) {
	tests := []struct {
		sort Sort
		want []int64
	}{
		{SortRelevance, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{SortPriceLow, []int64{9, 8, 5, 12, 4, 1, 10, 6, 2, 3, 7, 11}},
		{SortPriceHigh, []int64{7, 11, 3, 2, 6, 1, 10, 4, 12, 5, 8, 9}},
		{SortRating, []int64{2, 7, 11, 6, 10, 1, 8, 4, 9, 3, 12, 5}},
		{SortDiscount, []int64{8, 6, 9, 4, 5, 12, 1, 10, 3, 7, 11, 2}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(Seed(), Query{Sort: tt.sort})))
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	products := Seed()
	Apply(products, Query{Sort: SortPriceHigh})
	assert.Equal(t, int64(1), products[0].ID)
}

func TestParseQuery(t *testing.T) {
	v := url.Values{
		"search":     {" watch "},
		"category":   {"electronics"},
		"sort":       {"price-low"},
		"min_price":  {"10"},
		"max_price":  {"500.50"},
		"merchant":   {"TechGadgets,ElectroMart", "GamerZone"},
		"categories": {"home"},
		"min_rating": {"4.5"},
	}

	q, err := ParseQuery(v)
	require.NoError(t, err)
	assert.Equal(t, "watch", q.Search)
	assert.Equal(t, "electronics", q.Category)
	assert.Equal(t, SortPriceLow, q.Sort)
	assert.True(t, q.MinPrice.Equal(decimal.NewFromInt(10)))
	assert.True(t, q.MaxPrice.Equal(decimal.RequireFromString("500.50")))
	assert.Equal(t, []string{"TechGadgets", "ElectroMart", "GamerZone"}, q.Merchants)
	assert.Equal(t, []string{"home"}, q.Categories)
	assert.Equal(t, 4.5, q.MinRating)
}

func TestParseQueryDefaultsAndErrors(t *testing.T) {
	q, err := ParseQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, SortRelevance, q.Sort)
	assert.Nil(t, q.MinPrice)

	_, err = ParseQuery(url.Values{"sort": {"newest"}})
	assert.Error(t, err)

	_, err = ParseQuery(url.Values{"min_price": {"cheap"}})
	assert.Error(t, err)

	_, err = ParseQuery(url.Values{"min_rating": {"high"}})
	assert.Error(t, err)
}
