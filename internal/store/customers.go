package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

const customerColumns = `id, first_name, last_name, email, phone, address, city, state, zip_code, created_at, updated_at`

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.City,
		&c.State,
		&c.ZipCode,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// upsertCustomer keys customers by email; later checkouts refresh the shipping details.
func upsertCustomer(ctx context.Context, tx *sql.Tx, info models.ShippingInfo) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO customers (first_name, last_name, email, phone, address, city, state, zip_code, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		 ON CONFLICT (email) DO UPDATE
		 SET first_name = EXCLUDED.first_name,
		     last_name  = EXCLUDED.last_name,
		     phone      = EXCLUDED.phone,
		     address    = EXCLUDED.address,
		     city       = EXCLUDED.city,
		     state      = EXCLUDED.state,
		     zip_code   = EXCLUDED.zip_code,
		     updated_at = NOW()
		 RETURNING id`,
		info.FirstName, info.LastName, info.Email, info.Phone,
		info.Address, info.City, info.State, info.ZipCode).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert customer: %w", err)
	}
	return id, nil
}

func GetCustomer(ctx context.Context, db *sql.DB, id int64) (*models.Customer, error) {
	customer, err := scanCustomer(db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}

func ListCustomers(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(customers, total, page, pageSize), nil
}
