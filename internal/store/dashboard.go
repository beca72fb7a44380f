package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

type DashboardSummary struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalOrders    int64           `json:"total_orders"`
	TotalCustomers int64           `json:"total_customers"`
}

type ProductSales struct {
	Name     string `json:"name"`
	Quantity int64  `json:"sales"`
}

// GetDashboardSummary excludes cancelled orders from revenue but counts them as orders.
func GetDashboardSummary(ctx context.Context, db *sql.DB) (*DashboardSummary, error) {
	summary := &DashboardSummary{}

	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total) FILTER (WHERE status <> 'Cancelled'), 0),
		        COUNT(*),
		        (SELECT COUNT(*) FROM customers)
		 FROM orders`).Scan(&summary.TotalRevenue, &summary.TotalOrders, &summary.TotalCustomers)
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}

	return summary, nil
}

func TopProducts(ctx context.Context, db *sql.DB, limit int) ([]ProductSales, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT oi.name, SUM(oi.quantity) AS sold
		 FROM order_items oi JOIN orders o ON o.id = oi.order_id
		 WHERE o.status <> 'Cancelled'
		 GROUP BY oi.name
		 ORDER BY sold DESC, oi.name
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	sales := []ProductSales{}
	for rows.Next() {
		var s ProductSales
		if err := rows.Scan(&s.Name, &s.Quantity); err != nil {
			return nil, fmt.Errorf("scan product sales: %w", err)
		}
		sales = append(sales, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return sales, nil
}
