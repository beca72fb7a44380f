package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

type Sort string

const (
	SortRelevance Sort = "relevance"
	SortPriceLow  Sort = "price-low"
	SortPriceHigh Sort = "price-high"
	SortRating    Sort = "rating"
	SortDiscount  Sort = "discount"
)

func (s Sort) Valid() bool {
	switch s {
	case SortRelevance, SortPriceLow, SortPriceHigh, SortRating, SortDiscount:
		return true
	}
	return false
}

// Query is a product listing request. Zero values mean "no constraint".
type Query struct {
	Search     string
	Category   string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Merchants  []string
	Categories []string
	MinRating  float64
	Sort       Sort
}

// ParseQuery reads a Query from URL parameters. Repeated or comma-separated
// values are accepted for merchant and categories.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Search:     strings.TrimSpace(v.Get("search")),
		Category:   strings.TrimSpace(v.Get("category")),
		Merchants:  splitList(v["merchant"]),
		Categories: splitList(v["categories"]),
		Sort:       SortRelevance,
	}

	if s := v.Get("sort"); s != "" {
		q.Sort = Sort(s)
		if !q.Sort.Valid() {
			return Query{}, fmt.Errorf("unknown sort %q", s)
		}
	}

	var err error
	if q.MinPrice, err = parseDecimal(v, "min_price"); err != nil {
		return Query{}, err
	}
	if q.MaxPrice, err = parseDecimal(v, "max_price"); err != nil {
		return Query{}, err
	}

	if s := v.Get("min_rating"); s != "" {
		q.MinRating, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return Query{}, fmt.Errorf("invalid min_rating %q", s)
		}
	}

	return q, nil
}

func parseDecimal(v url.Values, key string) (*decimal.Decimal, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, s)
	}
	return &d, nil
}

func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Apply filters and orders products without modifying the input slice.
// Relevance keeps source order; every other sort is stable.
func Apply(products []models.Product, q Query) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if q.matches(p) {
			out = append(out, p)
		}
	}

	switch q.Sort {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case SortDiscount:
		sort.SliceStable(out, func(i, j int) bool { return out[i].EffectiveDiscount() > out[j].EffectiveDiscount() })
	}

	return out
}

func (q Query) matches(p models.Product) bool {
	if q.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Search)) {
		return false
	}
	if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
		return false
	}
	if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
		return false
	}
	if len(q.Merchants) > 0 && !containsFold(q.Merchants, p.Merchant, true) {
		return false
	}
	if len(q.Categories) > 0 && !containsFold(q.Categories, p.Category, false) {
		return false
	}
	if q.MinRating > 0 && p.Rating < q.MinRating {
		return false
	}
	return true
}

// containsFold reports whether value matches any candidate, case-insensitively.
// With substring set, a candidate only needs to occur within value.
func containsFold(candidates []string, value string, substring bool) bool {
	value = strings.ToLower(value)
	for _, c := range candidates {
		c = strings.ToLower(c)
		if c == value || (substring && strings.Contains(value, c)) {
			return true
		}
	}
	return false
}
