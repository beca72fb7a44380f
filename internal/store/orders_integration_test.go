//go:build integration

package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/safar/storefront/internal/config"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

func TestCreateOrder(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		Items: []store.OrderItemRequest{
			{ProductID: int64Ptr(1), Name: "Wireless Noise Cancelling Headphones", Quantity: 2, Price: decimal.RequireFromString("249.99")},
			{Name: "Gift wrap", Quantity: 1, Price: decimal.RequireFromString("5.00")},
		},
		Shipping:      shipping("ada@example.com"),
		PaymentMethod: models.PaymentMethodCreditCard,
		Subtotal:      decimal.RequireFromString("504.98"),
		Tax:           decimal.RequireFromString("35.35"),
		Total:         decimal.RequireFromString("540.33"),
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if order.Status != models.OrderStatusPending {
		t.Errorf("Expected status Pending, got %s", order.Status)
	}
	if order.Customer != "Ada Lovelace" {
		t.Errorf("Expected customer name Ada Lovelace, got %q", order.Customer)
	}
	if len(order.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(order.Items))
	}
	if !order.Total.Equal(decimal.RequireFromString("540.33")) {
		t.Errorf("Expected total 540.33, got %s", order.Total)
	}
	if order.Items[1].ProductID != nil {
		t.Errorf("Expected off-catalog line to have no product id")
	}

	product, err := store.GetProduct(ctx, db, 1)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if *product.Stock != 48 {
		t.Errorf("Expected stock 48, got %d", *product.Stock)
	}
}

func TestCreateOrderUpsertsCustomer(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	for _, city := range []string{"London", "Paris"} {
		info := shipping("repeat@example.com")
		info.City = city
		_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
			Items:         []store.OrderItemRequest{{Name: "Thing", Quantity: 1, Price: decimal.NewFromInt(10)}},
			Shipping:      info,
			PaymentMethod: models.PaymentMethodPayPal,
			Subtotal:      decimal.NewFromInt(10),
			Tax:           decimal.RequireFromString("0.70"),
			Total:         decimal.RequireFromString("10.70"),
		})
		if err != nil {
			t.Fatalf("Create order: %v", err)
		}
	}

	page, err := store.ListCustomers(ctx, db, 1, 10)
	if err != nil {
		t.Fatalf("List customers: %v", err)
	}
	customers := page.Items.([]models.Customer)
	if len(customers) != 1 {
		t.Fatalf("Expected 1 customer, got %d", len(customers))
	}
	if customers[0].City != "Paris" {
		t.Errorf("Expected latest city Paris, got %s", customers[0].City)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product, err := store.CreateProduct(ctx, db, models.Product{
		Name:  "Scarce",
		Price: decimal.NewFromInt(100),
		Stock: intPtr(5),
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	_, err = store.CreateOrder(ctx, db, store.CreateOrderRequest{
		Items:         []store.OrderItemRequest{{ProductID: &product.ID, Name: product.Name, Quantity: 10, Price: product.Price}},
		Shipping:      shipping("short@example.com"),
		PaymentMethod: models.PaymentMethodCreditCard,
	})
	if !errors.Is(err, database.ErrInsufficientStock) {
		t.Errorf("Expected insufficient stock error, got: %v", err)
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if *productAfter.Stock != 5 {
		t.Errorf("Stock should remain unchanged at 5, got %d", *productAfter.Stock)
	}

	orders, err := store.ListOrders(ctx, db)
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("Expected no orders after failed checkout, got %d", len(orders))
	}
}

func TestConcurrentOrderCreation(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product, err := store.CreateProduct(ctx, db, models.Product{
		Name:  "Contended",
		Price: decimal.NewFromInt(100),
		Stock: intPtr(10),
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	concurrency := 8
	var wg sync.WaitGroup
	results := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
				Items:         []store.OrderItemRequest{{ProductID: &product.ID, Name: product.Name, Quantity: 2, Price: product.Price}},
				Shipping:      shipping(fmt.Sprintf("buyer%d@example.com", i)),
				PaymentMethod: models.PaymentMethodCreditCard,
			})

			results <- err
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		t.Logf("Order failed: %v", err)
	}

	if successCount == 0 || successCount > 5 {
		t.Errorf("Expected between 1 and 5 successful orders, got %d", successCount)
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}

	expectedStock := 10 - (successCount * 2)
	if *productAfter.Stock != expectedStock {
		t.Errorf("Expected final stock %d, got %d", expectedStock, *productAfter.Stock)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
			Items:         []store.OrderItemRequest{{Name: "Item", Quantity: i + 1, Price: decimal.NewFromInt(1)}},
			Shipping:      shipping("list@example.com"),
			PaymentMethod: models.PaymentMethodCreditCard,
		})
		if err != nil {
			t.Fatalf("Create order %d: %v", i, err)
		}
		ids = append(ids, order.ID)
		time.Sleep(10 * time.Millisecond)
	}

	orders, err := store.ListOrders(ctx, db)
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("Expected 3 orders, got %d", len(orders))
	}
	for i, order := range orders {
		if order.ID != ids[len(ids)-1-i] {
			t.Errorf("Order %d: expected %s, got %s", i, ids[len(ids)-1-i], order.ID)
		}
		if len(order.Items) != 1 {
			t.Errorf("Order %s: expected 1 item, got %d", order.ID, len(order.Items))
		}
	}
}

func TestListOrdersCursor(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
			Items:         []store.OrderItemRequest{{Name: "Item", Quantity: 1, Price: decimal.NewFromInt(1)}},
			Shipping:      shipping("cursor@example.com"),
			PaymentMethod: models.PaymentMethodCreditCard,
		})
		if err != nil {
			t.Fatalf("Create order %d: %v", i, err)
		}
	}

	page1, err := store.ListOrdersCursor(ctx, db, "", 10)
	if err != nil {
		t.Fatalf("List orders page 1: %v", err)
	}

	if !page1.HasMore {
		t.Error("Page 1 should have more results")
	}

	if page1.NextCursor == "" {
		t.Error("Page 1 should have a next cursor")
	}

	page2, err := store.ListOrdersCursor(ctx, db, page1.NextCursor, 10)
	if err != nil {
		t.Fatalf("List orders page 2: %v", err)
	}

	if page2.HasMore {
		t.Error("Page 2 should not have more results")
	}
	if n := len(page2.Items.([]models.Order)); n != 5 {
		t.Errorf("Expected 5 orders on page 2, got %d", n)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		Items:         []store.OrderItemRequest{{Name: "Item", Quantity: 1, Price: decimal.NewFromInt(1)}},
		Shipping:      shipping("status@example.com"),
		PaymentMethod: models.PaymentMethodCreditCard,
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	updated, err := store.UpdateOrderStatus(ctx, db, order.ID, models.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("Update status: %v", err)
	}
	if updated.Status != models.OrderStatusCompleted {
		t.Errorf("Expected Completed, got %s", updated.Status)
	}
	if updated.Version != order.Version+1 {
		t.Errorf("Expected version %d, got %d", order.Version+1, updated.Version)
	}

	_, err = store.UpdateOrderStatus(ctx, db, "00000000-0000-0000-0000-000000000000", models.OrderStatusCompleted)
	if !errors.Is(err, database.ErrOrderNotFound) {
		t.Errorf("Expected order not found, got %v", err)
	}

	_, err = store.UpdateOrderStatus(ctx, db, order.ID, models.OrderStatus("Shipped"))
	if err == nil {
		t.Error("Expected unknown status to be rejected")
	}
}

func TestOrderChangesAreNotified(t *testing.T) {
	db, dsn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	notifier := database.NewNotifier(
		&config.DatabaseConfig{URL: dsn},
		&config.FeedConfig{Channel: "orders_changes", MinReconnectInterval: time.Second, MaxReconnectInterval: 5 * time.Second},
	)
	defer notifier.Close()

	signals, err := notifier.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		Items:         []store.OrderItemRequest{{Name: "Item", Quantity: 1, Price: decimal.NewFromInt(1)}},
		Shipping:      shipping("notify@example.com"),
		PaymentMethod: models.PaymentMethodCreditCard,
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	select {
	case <-signals:
	case <-ctx.Done():
		t.Fatal("No notification after insert")
	}

	if _, err := store.UpdateOrderStatus(ctx, db, order.ID, models.OrderStatusProcessing); err != nil {
		t.Fatalf("Update status: %v", err)
	}

	select {
	case <-signals:
	case <-ctx.Done():
		t.Fatal("No notification after status update")
	}
}
