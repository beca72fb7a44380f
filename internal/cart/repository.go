package cart

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

// ErrMalformed marks persisted cart data that could not be decoded.
var ErrMalformed = errors.New("malformed cart data")

// Repository persists a cart as one blob per session key. Load returns an
// empty slice when nothing is stored.
type Repository interface {
	Load(ctx context.Context, key string) ([]models.CartItem, error)
	Save(ctx context.Context, key string, items []models.CartItem) error
}

func decode(data []byte) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return items, nil
}

func encode(items []models.CartItem) ([]byte, error) {
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}
	return data, nil
}

type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository stores carts with the given TTL; zero keeps them until overwritten.
func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

func (r *RedisRepository) Load(ctx context.Context, key string) ([]models.CartItem, error) {
	data, err := r.client.Get(ctx, cartKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	return decode(data)
}

func (r *RedisRepository) Save(ctx context.Context, key string, items []models.CartItem) error {
	data, err := encode(items)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, cartKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func cartKey(key string) string {
	return fmt.Sprintf("cart:%s", key)
}

// MemoryRepository keeps encoded carts in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{blobs: make(map[string][]byte)}
}

func (m *MemoryRepository) Load(_ context.Context, key string) ([]models.CartItem, error) {
	m.mu.RLock()
	data, ok := m.blobs[key]
	m.mu.RUnlock()
	if !ok {
		return []models.CartItem{}, nil
	}
	return decode(data)
}

func (m *MemoryRepository) Save(_ context.Context, key string, items []models.CartItem) error {
	data, err := encode(items)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.blobs[key] = data
	m.mu.Unlock()
	return nil
}

// Raw returns the stored blob for key.
func (m *MemoryRepository) Raw(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[key]
	return data, ok
}

// SetRaw stores data for key as-is.
func (m *MemoryRepository) SetRaw(key string, data []byte) {
	m.mu.Lock()
	m.blobs[key] = data
	m.mu.Unlock()
}
