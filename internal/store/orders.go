package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	Items         []OrderItemRequest
	Shipping      models.ShippingInfo
	PaymentMethod string
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
}

type OrderItemRequest struct {
	// ProductID is nil for lines that do not come from the catalog.
	ProductID *int64
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

const orderColumns = `o.id, o.customer_id, TRIM(c.first_name || ' ' || c.last_name), o.status, o.payment_method,
	o.subtotal, o.tax, o.total, o.created_at, o.updated_at, o.version`

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.Customer,
		&order.Status,
		&order.PaymentMethod,
		&order.Subtotal,
		&order.Tax,
		&order.Total,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder records a checkout: the customer is upserted by email, the order and
// its line items are inserted, and stock is taken for tracked catalog products.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, database.ErrEmptyOrder
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		customerID, err := upsertCustomer(ctx, tx, req.Shipping)
		if err != nil {
			return err
		}

		for _, item := range req.Items {
			if item.ProductID == nil {
				continue
			}
			tracked, err := ReserveStock(ctx, tx, *item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if tracked {
				if err := DecrementStock(ctx, tx, *item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		orderID := uuid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO orders (id, customer_id, status, payment_method, subtotal, tax, total, created_at, updated_at, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), 1)`,
			orderID, customerID, models.OrderStatusPending, req.PaymentMethod, req.Subtotal, req.Tax, req.Total)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range req.Items {
			var productID sql.NullInt64
			if item.ProductID != nil {
				productID = sql.NullInt64{Int64: *item.ProductID, Valid: true}
			}

			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, product_id, name, quantity, price, created_at)
				 VALUES ($1, $2, $3, $4, $5, NOW())`,
				orderID, productID, item.Name, item.Quantity, item.Price)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		order, err = scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+`
			 FROM orders o JOIN customers c ON c.id = o.customer_id
			 WHERE o.id = $1`, orderID))
		if err != nil {
			return fmt.Errorf("fetch created order: %w", err)
		}

		order.Items, err = orderItems(ctx, tx, []string{orderID})
		if err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func orderItems(ctx context.Context, q queryer, orderIDs []string) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, product_id, name, quantity, price, created_at
		 FROM order_items
		 WHERE order_id = ANY($1::uuid[])
		 ORDER BY id`,
		pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var (
			item      models.OrderItem
			productID sql.NullInt64
		)
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&productID,
			&item.Name,
			&item.Quantity,
			&item.Price,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if productID.Valid {
			id := productID.Int64
			item.ProductID = &id
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func attachItems(ctx context.Context, q queryer, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
		index[order.ID] = i
	}

	items, err := orderItems(ctx, q, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return nil
}

func GetOrder(ctx context.Context, db *sql.DB, id string) (*models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, database.ErrOrderNotFound
	}

	order, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o JOIN customers c ON c.id = o.customer_id
		 WHERE o.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	order.Items, err = orderItems(ctx, db, []string{id})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrders reads every order, newest first, with customer names and line items.
func ListOrders(ctx context.Context, db *sql.DB) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o JOIN customers c ON c.id = o.customer_id
		 ORDER BY o.created_at DESC, o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := attachItems(ctx, db, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func ListOrdersCursor(ctx context.Context, db *sql.DB, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE (o.created_at, o.id::text) < ($1, $2)
		ORDER BY o.created_at DESC, o.id::text DESC
		LIMIT $3`

	rows, err := db.QueryContext(ctx, query, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	if err := attachItems(ctx, db, orders); err != nil {
		return nil, err
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// UpdateOrderStatus is the only way an order's status changes.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("update order status: invalid status %q", status)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, database.ErrOrderNotFound
	}

	result, err := db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1, updated_at = NOW(), version = version + 1
		 WHERE id = $2`,
		status, id)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, database.ErrOrderNotFound
	}

	return GetOrder(ctx, db, id)
}
