package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safar/storefront/internal/models"
)

type Stage string

const (
	StageShipping     Stage = "shipping"
	StagePayment      Stage = "payment"
	StageConfirmation Stage = "confirmation"
	// StageEmptyCart is only ever reported by View, never stored.
	StageEmptyCart Stage = "empty-cart"
)

// State is the persisted progress of one checkout session.
type State struct {
	Stage            Stage                `json:"stage"`
	Shipping         *models.ShippingInfo `json:"shipping,omitempty"`
	PaymentMethod    string               `json:"payment_method,omitempty"`
	ConfirmationCode string               `json:"confirmation_code,omitempty"`
	OrderID          string               `json:"order_id,omitempty"`
}

type StateStore interface {
	Load(ctx context.Context, key string) (State, error)
	Save(ctx context.Context, key string, st State) error
}

type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]State)}
}

func (m *MemoryStateStore) Load(_ context.Context, key string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[key]
	if !ok {
		return State{Stage: StageShipping}, nil
	}
	return st, nil
}

func (m *MemoryStateStore) Save(_ context.Context, key string, st State) error {
	m.mu.Lock()
	m.states[key] = st
	m.mu.Unlock()
	return nil
}

type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{client: client, ttl: ttl}
}

func (r *RedisStateStore) Load(ctx context.Context, key string) (State, error) {
	data, err := r.client.Get(ctx, stateKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{Stage: StageShipping}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("redis get checkout: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		// Unreadable progress restarts the form rather than failing checkout.
		return State{Stage: StageShipping}, nil
	}
	return st, nil
}

func (r *RedisStateStore) Save(ctx context.Context, key string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal checkout: %w", err)
	}
	if err := r.client.Set(ctx, stateKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set checkout: %w", err)
	}
	return nil
}

func stateKey(key string) string {
	return fmt.Sprintf("checkout:%s", key)
}
