package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"

	"github.com/safar/storefront/internal/cart"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart  = errors.New("cart is empty")
	ErrWrongStage = errors.New("checkout is not at the payment stage")
)

// OrderCreator persists an order. Real checkouts and the simulator share it.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req store.CreateOrderRequest) (*models.Order, error)
}

type View struct {
	Stage            Stage                `json:"stage"`
	Cart             cart.Result          `json:"cart"`
	Totals           Totals               `json:"totals"`
	Shipping         *models.ShippingInfo `json:"shipping,omitempty"`
	PaymentMethod    string               `json:"payment_method,omitempty"`
	ConfirmationCode string               `json:"confirmation_code,omitempty"`
	OrderID          string               `json:"order_id,omitempty"`
}

type Service struct {
	carts   *cart.Manager
	orders  OrderCreator
	states  StateStore
	taxRate decimal.Decimal
	codes   func() string
}

func NewService(carts *cart.Manager, orders OrderCreator, states StateStore, taxRate decimal.Decimal) *Service {
	return &Service{
		carts:   carts,
		orders:  orders,
		states:  states,
		taxRate: taxRate,
		codes:   NewConfirmationCode,
	}
}

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewConfirmationCode returns a display code like "ORD-7K2QX9AB". It is shown
// to the shopper only and is not the order's id.
func NewConfirmationCode() string {
	var b strings.Builder
	b.WriteString("ORD-")
	for i := 0; i < 8; i++ {
		b.WriteByte(codeAlphabet[rand.IntN(len(codeAlphabet))])
	}
	return b.String()
}

func (s *Service) view(st State, c cart.Result) View {
	v := View{
		Stage:            st.Stage,
		Cart:             c,
		Totals:           ComputeTotals(c.Subtotal, s.taxRate),
		Shipping:         st.Shipping,
		PaymentMethod:    st.PaymentMethod,
		ConfirmationCode: st.ConfirmationCode,
		OrderID:          st.OrderID,
	}
	if len(c.Items) == 0 && st.Stage != StageConfirmation {
		v.Stage = StageEmptyCart
	}
	return v
}

func (s *Service) loadState(ctx context.Context, key string) (State, error) {
	st, err := s.states.Load(ctx, key)
	if err != nil {
		return State{}, fmt.Errorf("load checkout: %w", err)
	}
	if st.Stage == "" {
		st.Stage = StageShipping
	}
	return st, nil
}

func (s *Service) load(ctx context.Context, key string) (State, cart.Result, error) {
	st, err := s.loadState(ctx, key)
	if err != nil {
		return State{}, cart.Result{}, err
	}

	c, err := s.carts.Get(ctx, key)
	if err != nil {
		return State{}, cart.Result{}, err
	}
	return st, c, nil
}

// View reports the current stage. A finished checkout whose cart has been
// refilled starts over at the shipping stage.
func (s *Service) View(ctx context.Context, key string) (View, error) {
	st, c, err := s.load(ctx, key)
	if err != nil {
		return View{}, err
	}

	if st.Stage == StageConfirmation && len(c.Items) > 0 {
		st = State{Stage: StageShipping, Shipping: st.Shipping}
		if err := s.states.Save(ctx, key, st); err != nil {
			return View{}, fmt.Errorf("save checkout: %w", err)
		}
	}

	return s.view(st, c), nil
}

func (s *Service) SubmitShipping(ctx context.Context, key string, info models.ShippingInfo) (View, error) {
	st, c, err := s.load(ctx, key)
	if err != nil {
		return View{}, err
	}
	if len(c.Items) == 0 {
		return View{}, ErrEmptyCart
	}
	if err := ValidateShipping(info); err != nil {
		return View{}, err
	}

	st = State{Stage: StagePayment, Shipping: &info}
	if err := s.states.Save(ctx, key, st); err != nil {
		return View{}, fmt.Errorf("save checkout: %w", err)
	}
	return s.view(st, c), nil
}

// PlaceOrder submits the cart. On failure the cart and stage are left as they
// were. The cart stays locked from the read until it is emptied, so calls for
// the same key run one after another and a second submission finds nothing
// left to order.
func (s *Service) PlaceOrder(ctx context.Context, key string, payment models.PaymentDetails) (View, error) {
	var (
		st     State
		totals Totals
	)

	cleared, err := s.carts.Drain(ctx, key, func(c cart.Result) error {
		var err error
		st, err = s.loadState(ctx, key)
		if err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return ErrEmptyCart
		}
		if st.Stage != StagePayment || st.Shipping == nil {
			return ErrWrongStage
		}
		if payment.Method == "" {
			payment.Method = models.PaymentMethodCreditCard
		}
		if err := ValidatePayment(payment); err != nil {
			return err
		}

		totals = ComputeTotals(c.Subtotal, s.taxRate)
		req := store.CreateOrderRequest{
			Shipping:      *st.Shipping,
			PaymentMethod: payment.Method,
			Subtotal:      totals.Subtotal,
			Tax:           totals.Tax,
			Total:         totals.Total,
		}
		for _, item := range c.Items {
			productID := item.Product.ID
			req.Items = append(req.Items, store.OrderItemRequest{
				ProductID: &productID,
				Name:      item.Product.Name,
				Quantity:  item.Quantity,
				Price:     item.Product.Price,
			})
		}

		order, err := s.orders.CreateOrder(ctx, req)
		if err != nil {
			log.Printf("checkout %s: create order: %v", key, err)
			return fmt.Errorf("place order: %w", err)
		}

		st = State{
			Stage:            StageConfirmation,
			Shipping:         st.Shipping,
			PaymentMethod:    payment.Method,
			ConfirmationCode: s.codes(),
			OrderID:          order.ID,
		}
		if err := s.states.Save(ctx, key, st); err != nil {
			log.Printf("checkout %s: save confirmation: %v", key, err)
		}
		return nil
	})
	if err != nil {
		return View{}, err
	}

	v := s.view(st, cleared)
	v.Totals = totals
	return v, nil
}
