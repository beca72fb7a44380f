package store

import (
	"context"
	"database/sql"

	"github.com/safar/storefront/internal/models"
)

// Store binds the package functions to one database handle so that services
// can depend on narrow interfaces instead of *sql.DB.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) AllProducts(ctx context.Context) ([]models.Product, error) {
	return AllProducts(ctx, s.db)
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return GetProduct(ctx, s.db, id)
}

func (s *Store) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	return CreateProduct(ctx, s.db, p)
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, u ProductUpdate) (*models.Product, error) {
	return UpdateProduct(ctx, s.db, id, u)
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return DeleteProduct(ctx, s.db, id)
}

func (s *Store) ListProducts(ctx context.Context, page, pageSize int) (*OffsetPage, error) {
	return ListProducts(ctx, s.db, page, pageSize)
}

func (s *Store) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	return CreateOrder(ctx, s.db, req)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return GetOrder(ctx, s.db, id)
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	return ListOrders(ctx, s.db)
}

func (s *Store) ListOrdersCursor(ctx context.Context, cursor string, limit int) (*CursorPage, error) {
	return ListOrdersCursor(ctx, s.db, cursor, limit)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	return UpdateOrderStatus(ctx, s.db, id, status)
}

func (s *Store) ListCustomers(ctx context.Context, page, pageSize int) (*OffsetPage, error) {
	return ListCustomers(ctx, s.db, page, pageSize)
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	return GetCustomer(ctx, s.db, id)
}

func (s *Store) GetSession(ctx context.Context, token string) (*models.Session, error) {
	return GetSession(ctx, s.db, token)
}

func (s *Store) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return IsAdmin(ctx, s.db, userID)
}

func (s *Store) GetDashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	return GetDashboardSummary(ctx, s.db)
}

func (s *Store) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	return TopProducts(ctx, s.db, limit)
}
