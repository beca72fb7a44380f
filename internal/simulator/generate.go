package simulator

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/safar/storefront/internal/checkout"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

var customerNames = []string{
	"John Doe",
	"Jane Smith",
	"Bob Wilson",
	"Alice Brown",
	"Charlie Davis",
	"Emma Johnson",
	"Liam Garcia",
	"Olivia Martinez",
	"Noah Anderson",
	"Sophia Taylor",
}

type catalogItem struct {
	name  string
	price decimal.Decimal
}

var simulatedCatalog = []catalogItem{
	{"Premium Headphones", decimal.RequireFromString("199.99")},
	{"USB Cable", decimal.RequireFromString("15.25")},
	{"Wireless Mouse", decimal.RequireFromString("49.99")},
	{"Mouse Pad", decimal.RequireFromString("19.99")},
	{"Keyboard Cover", decimal.RequireFromString("79.99")},
	{"Smart Watch", decimal.RequireFromString("249.99")},
	{"Bluetooth Speaker", decimal.RequireFromString("79.99")},
	{"Wireless Earbuds", decimal.RequireFromString("129.99")},
	{"Phone Case", decimal.RequireFromString("24.99")},
	{"Power Bank", decimal.RequireFromString("49.99")},
	{"USB-C Cable", decimal.RequireFromString("15.99")},
}

// Generate builds a plausible order: a random customer and one to three
// distinct items from a fixed list. The items carry no product id, so
// simulated orders never touch catalog stock.
func Generate(rng *rand.Rand, taxRate decimal.Decimal) store.CreateOrderRequest {
	name := customerNames[rng.IntN(len(customerNames))]
	first, last, _ := strings.Cut(name, " ")

	picks := rng.Perm(len(simulatedCatalog))[:1+rng.IntN(3)]

	req := store.CreateOrderRequest{
		Shipping: models.ShippingInfo{
			FirstName: first,
			LastName:  last,
			Email:     fmt.Sprintf("%s.%s@example.com", strings.ToLower(first), strings.ToLower(last)),
			Phone:     fmt.Sprintf("555-%04d", rng.IntN(10000)),
			Address:   fmt.Sprintf("%d Market Street", 1+rng.IntN(999)),
			City:      "Springfield",
			State:     "IL",
			ZipCode:   fmt.Sprintf("%05d", rng.IntN(100000)),
		},
		PaymentMethod: models.PaymentMethodCreditCard,
	}

	subtotal := decimal.Zero
	for _, i := range picks {
		item := simulatedCatalog[i]
		qty := 1 + rng.IntN(2)
		req.Items = append(req.Items, store.OrderItemRequest{
			Name:     item.name,
			Quantity: qty,
			Price:    item.price,
		})
		subtotal = subtotal.Add(item.price.Mul(decimal.NewFromInt(int64(qty))))
	}

	totals := checkout.ComputeTotals(subtotal, taxRate)
	req.Subtotal = totals.Subtotal
	req.Tax = totals.Tax
	req.Total = totals.Total
	return req
}
