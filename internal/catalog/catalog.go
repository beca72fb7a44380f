package catalog

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

// Source supplies the full product list.
type Source interface {
	AllProducts(ctx context.Context) ([]models.Product, error)
}

// fetchTimeout bounds one shared remote fetch.
const fetchTimeout = 10 * time.Second

// StaticSource serves a fixed product list.
type StaticSource []models.Product

func (s StaticSource) AllProducts(context.Context) ([]models.Product, error) {
	out := make([]models.Product, len(s))
	copy(out, s)
	return out, nil
}

// Catalog reads products from a remote source through a circuit breaker and
// falls back to the seeded catalog while the remote is failing.
type Catalog struct {
	remote   Source
	fallback StaticSource
	breaker  *gobreaker.CircuitBreaker[[]models.Product]
	sfg      singleflight.Group
}

func New(remote Source) *Catalog {
	return &Catalog{
		remote:   remote,
		fallback: StaticSource(Seed()),
		breaker: gobreaker.NewCircuitBreaker[[]models.Product](gobreaker.Settings{
			Name:        "catalog",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			// A caller going away says nothing about the remote's health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("circuit %s: %s -> %s", name, from, to)
			},
		}),
	}
}

// NewStatic returns a catalog that only serves the seeded products.
func NewStatic() *Catalog {
	return New(nil)
}

func (c *Catalog) products(ctx context.Context) ([]models.Product, error) {
	if c.remote == nil {
		return c.fallback.AllProducts(ctx)
	}

	// The fetch is shared by every waiting caller, so it must not inherit the
	// first caller's cancellation.
	v, err, _ := c.sfg.Do("products", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return c.breaker.Execute(func() ([]models.Product, error) {
			return c.remote.AllProducts(fetchCtx)
		})
	})
	if err != nil {
		log.Printf("catalog remote fetch failed, serving seed: %v", err)
		return c.fallback.AllProducts(ctx)
	}

	// Results are shared between coalesced callers.
	shared := v.([]models.Product)
	out := make([]models.Product, len(shared))
	copy(out, shared)
	return out, nil
}

func (c *Catalog) List(ctx context.Context, q Query) ([]models.Product, error) {
	products, err := c.products(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(products, q), nil
}

func (c *Catalog) Get(ctx context.Context, id int64) (*models.Product, error) {
	products, err := c.products(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, database.ErrProductNotFound
}

// Featured returns the first n products in source order.
func (c *Catalog) Featured(ctx context.Context, n int) ([]models.Product, error) {
	products, err := c.products(ctx)
	if err != nil {
		return nil, err
	}
	if n >= 0 && n < len(products) {
		products = products[:n]
	}
	return products, nil
}

// Categories lists distinct lower-cased categories, sorted.
func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	products, err := c.products(ctx)
	if err != nil {
		return nil, err
	}
	return distinct(products, func(p models.Product) string { return strings.ToLower(p.Category) }), nil
}

func (c *Catalog) Merchants(ctx context.Context) ([]string, error) {
	products, err := c.products(ctx)
	if err != nil {
		return nil, err
	}
	return distinct(products, func(p models.Product) string { return p.Merchant }), nil
}

func distinct(products []models.Product, key func(models.Product) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range products {
		k := key(p)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
