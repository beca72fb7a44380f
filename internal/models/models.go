package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Product struct {
	ID                 int64            `json:"id"`
	Name               string           `json:"name"`
	Price              decimal.Decimal  `json:"price"`
	OriginalPrice      *decimal.Decimal `json:"original_price,omitempty"`
	Image              string           `json:"image"`
	Rating             float64          `json:"rating"`
	Merchant           string           `json:"merchant"`
	MerchantLogo       string           `json:"merchant_logo"`
	Category           string           `json:"category"`
	Description        string           `json:"description,omitempty"`
	Stock              *int             `json:"stock,omitempty"`
	DiscountPercentage *int             `json:"discount_percentage,omitempty"`
}

// EffectiveDiscount is the explicit discount percentage, or the one implied by
// OriginalPrice when no explicit value is set.
func (p Product) EffectiveDiscount() int {
	if p.DiscountPercentage != nil {
		return *p.DiscountPercentage
	}
	if p.OriginalPrice == nil || !p.OriginalPrice.IsPositive() {
		return 0
	}
	off := p.OriginalPrice.Sub(p.Price).Div(*p.OriginalPrice).Mul(decimal.NewFromInt(100))
	return int(off.Round(0).IntPart())
}

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type ShippingInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
}

const (
	PaymentMethodCreditCard = "credit-card"
	PaymentMethodPayPal     = "paypal"
)

type PaymentDetails struct {
	Method     string `json:"method"`
	CardName   string `json:"card_name,omitempty"`
	CardNumber string `json:"card_number,omitempty"`
	CardExpiry string `json:"card_expiry,omitempty"`
	CardCVC    string `json:"card_cvc,omitempty"`
}

type Customer struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	ZipCode   string    `json:"zip_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Customer) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, known := range orderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseOrderStatus matches case-insensitively and returns the canonical spelling.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, known := range orderStatuses {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

type Order struct {
	ID            string          `json:"id"`
	CustomerID    int64           `json:"customer_id"`
	Customer      string          `json:"customer"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
	Items         []OrderItem     `json:"items,omitempty"`
}

// DisplayID is the short form shown in order lists, e.g. "#3f2a9".
func (o Order) DisplayID() string {
	id := o.ID
	if len(id) > 5 {
		id = id[:5]
	}
	return "#" + id
}

func (o Order) DisplayDate() string {
	return o.CreatedAt.UTC().Format("2006-01-02")
}

type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID *int64          `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}
