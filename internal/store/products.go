package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, price, original_price, image_url, rating, merchant, merchant_logo,
	category, description, stock, discount_percentage`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		product       models.Product
		originalPrice decimal.NullDecimal
		stock         sql.NullInt64
		discount      sql.NullInt64
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&originalPrice,
		&product.Image,
		&product.Rating,
		&product.Merchant,
		&product.MerchantLogo,
		&product.Category,
		&product.Description,
		&stock,
		&discount,
	)
	if err != nil {
		return nil, err
	}

	if originalPrice.Valid {
		product.OriginalPrice = &originalPrice.Decimal
	}
	if stock.Valid {
		v := int(stock.Int64)
		product.Stock = &v
	}
	if discount.Valid {
		v := int(discount.Int64)
		product.DiscountPercentage = &v
	}

	return &product, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

func CreateProduct(ctx context.Context, db *sql.DB, p models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (name, price, original_price, image_url, rating, merchant, merchant_logo,
		                      category, description, stock, discount_percentage, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW(), 1)
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		p.Name,
		p.Price,
		nullableDecimal(p.OriginalPrice),
		p.Image,
		p.Rating,
		p.Merchant,
		p.MerchantLogo,
		p.Category,
		p.Description,
		nullableInt(p.Stock),
		nullableInt(p.DiscountPercentage),
	))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// ProductUpdate carries a partial update; nil fields are left unchanged.
type ProductUpdate struct {
	Name          *string          `json:"name"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Image         *string          `json:"image"`
	Merchant      *string          `json:"merchant"`
	Category      *string          `json:"category"`
	Description   *string          `json:"description"`
	Stock         *int             `json:"stock"`
}

func UpdateProduct(ctx context.Context, db *sql.DB, id int64, u ProductUpdate) (*models.Product, error) {
	query := `
		UPDATE products
		SET name           = COALESCE($2, name),
		    price          = COALESCE($3, price),
		    original_price = COALESCE($4, original_price),
		    image_url      = COALESCE($5, image_url),
		    merchant       = COALESCE($6, merchant),
		    category       = COALESCE($7, category),
		    description    = COALESCE($8, description),
		    stock          = COALESCE($9, stock),
		    updated_at     = NOW(),
		    version        = version + 1
		WHERE id = $1
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		id,
		nullableString(u.Name),
		nullableDecimal(u.Price),
		nullableDecimal(u.OriginalPrice),
		nullableString(u.Image),
		nullableString(u.Merchant),
		nullableString(u.Category),
		nullableString(u.Description),
		nullableInt(u.Stock),
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func nullableString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

// AllProducts returns the full catalog in id order.
func AllProducts(ctx context.Context, db *sql.DB) ([]models.Product, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

func ListProducts(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(products, total, page, pageSize), nil
}

// ReserveStock locks the product row and checks that quantity is available.
// Products without stock tracking, or unknown to the database, reserve nothing
// and report ok=false.
func ReserveStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) (ok bool, err error) {
	var stock sql.NullInt64

	err = tx.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = $1 FOR UPDATE`,
		productID).Scan(&stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("lock product %d: %w", productID, err)
	}

	if !stock.Valid {
		return false, nil
	}
	if stock.Int64 < int64(quantity) {
		return false, database.ErrInsufficientStock
	}

	return true, nil
}

func DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock - $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrInsufficientStock
	}

	return nil
}
