package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// Result is the outcome of a cart operation: the confirmation message, if any,
// and the cart as persisted afterwards.
type Result struct {
	Message  string            `json:"message,omitempty"`
	Items    []models.CartItem `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Count    int               `json:"count"`
}

func newResult(c *Cart, message string) Result {
	return Result{
		Message:  message,
		Items:    c.Items(),
		Subtotal: c.Subtotal(),
		Count:    c.Count(),
	}
}

// Manager loads, mutates and persists carts. Operations on the same key are
// serialized; every mutation is saved before it returns.
type Manager struct {
	repo Repository

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func NewManager(repo Repository) *Manager {
	return &Manager{repo: repo, locks: make(map[string]*keyLock)}
}

func (m *Manager) lock(key string) func() {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

func (m *Manager) load(ctx context.Context, key string) (*Cart, error) {
	items, err := m.repo.Load(ctx, key)
	if errors.Is(err, ErrMalformed) {
		log.Printf("cart %s: discarding persisted state: %v", key, err)
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return New(items), nil
}

func (m *Manager) save(ctx context.Context, key string, c *Cart) error {
	if err := m.repo.Save(ctx, key, c.Items()); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// mutate runs fn against the loaded cart and persists the result.
func (m *Manager) mutate(ctx context.Context, key string, fn func(*Cart) (string, error)) (Result, error) {
	unlock := m.lock(key)
	defer unlock()

	c, err := m.load(ctx, key)
	if err != nil {
		return Result{}, err
	}

	message, err := fn(c)
	if err != nil {
		return Result{}, err
	}

	if err := m.save(ctx, key, c); err != nil {
		return Result{}, err
	}
	return newResult(c, message), nil
}

// Drain hands the cart to fn while holding the key's lock and empties it when
// fn succeeds. Other operations on key wait until Drain returns, so fn must
// not call back into the manager for the same key. A failure to persist the
// emptied cart is logged; fn's effects already happened.
func (m *Manager) Drain(ctx context.Context, key string, fn func(Result) error) (Result, error) {
	unlock := m.lock(key)
	defer unlock()

	c, err := m.load(ctx, key)
	if err != nil {
		return Result{}, err
	}

	if err := fn(newResult(c, "")); err != nil {
		return Result{}, err
	}

	c.Clear()
	if err := m.save(ctx, key, c); err != nil {
		log.Printf("cart %s: drained but not cleared: %v", key, err)
	}
	return newResult(c, "Cart cleared"), nil
}

func (m *Manager) Get(ctx context.Context, key string) (Result, error) {
	unlock := m.lock(key)
	defer unlock()

	c, err := m.load(ctx, key)
	if err != nil {
		return Result{}, err
	}
	return newResult(c, ""), nil
}

func (m *Manager) Add(ctx context.Context, key string, product models.Product, quantity int) (Result, error) {
	return m.mutate(ctx, key, func(c *Cart) (string, error) {
		merged, err := c.Add(product, quantity)
		if err != nil {
			return "", err
		}
		if merged {
			return fmt.Sprintf("Updated quantity for %s in cart", product.Name), nil
		}
		return fmt.Sprintf("Added %s to cart", product.Name), nil
	})
}

func (m *Manager) Remove(ctx context.Context, key string, productID int64) (Result, error) {
	return m.mutate(ctx, key, func(c *Cart) (string, error) {
		if removed := c.Remove(productID); removed != nil {
			return fmt.Sprintf("Removed %s from cart", removed.Product.Name), nil
		}
		return "", nil
	})
}

func (m *Manager) SetQuantity(ctx context.Context, key string, productID int64, quantity int) (Result, error) {
	return m.mutate(ctx, key, func(c *Cart) (string, error) {
		item := c.SetQuantity(productID, quantity)
		switch {
		case item == nil:
			return "", nil
		case quantity <= 0:
			return fmt.Sprintf("Removed %s from cart", item.Product.Name), nil
		default:
			return fmt.Sprintf("Updated quantity for %s in cart", item.Product.Name), nil
		}
	})
}

func (m *Manager) Clear(ctx context.Context, key string) (Result, error) {
	return m.mutate(ctx, key, func(c *Cart) (string, error) {
		c.Clear()
		return "Cart cleared", nil
	})
}
