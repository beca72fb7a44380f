package simulator

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/safar/storefront/internal/auth"
	"github.com/safar/storefront/internal/checkout"
	"github.com/safar/storefront/internal/config"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

var ErrNotAuthorized = errors.New("You need to be logged in as an admin to simulate orders")

type Status struct {
	Running   bool   `json:"running"`
	Generated int    `json:"generated"`
	LastError string `json:"last_error,omitempty"`
}

// Simulator submits a fabricated order at random intervals through the same
// order creator real checkouts use.
type Simulator struct {
	orders   checkout.OrderCreator
	min, max time.Duration
	taxRate  decimal.Decimal
	onOrder  func(*models.Order)

	mu        sync.Mutex
	rng       *rand.Rand
	cancel    context.CancelFunc
	done      chan struct{}
	generated int
	lastErr   error
}

func New(orders checkout.OrderCreator, cfg config.SimulatorConfig, taxRate decimal.Decimal, onOrder func(*models.Order)) *Simulator {
	if onOrder == nil {
		onOrder = func(*models.Order) {}
	}
	return &Simulator{
		orders:  orders,
		min:     cfg.MinInterval,
		max:     cfg.MaxInterval,
		taxRate: taxRate,
		onOrder: onOrder,
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// Start arms the timer for an admin caller. Anyone else gets ErrNotAuthorized
// and nothing is armed. Starting a running simulator is a no-op.
func (s *Simulator) Start(id auth.Identity) error {
	if !id.IsAdmin() {
		return ErrNotAuthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.lastErr = nil

	go s.loop(ctx, done)
	log.Printf("simulator: started by user %d", id.UserID)
	return nil
}

// Stop cancels the pending timer and waits for an in-flight submission to finish.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Simulator) Close() error {
	s.Stop()
	return nil
}

func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Running: s.cancel != nil, Generated: s.generated}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// interval is uniform in [min, max].
func (s *Simulator) interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min + time.Duration(s.rng.Int64N(int64(s.max-s.min)+1))
}

func (s *Simulator) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		timer := time.NewTimer(s.interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.mu.Lock()
		req := Generate(s.rng, s.taxRate)
		s.mu.Unlock()

		order, err := s.orders.CreateOrder(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("simulator: failed to generate order, stopping: %v", err)
			s.halt(done, err)
			return
		}

		s.mu.Lock()
		s.generated++
		s.mu.Unlock()

		log.Printf("simulator: %s placed an order for $%s", order.Customer, order.Total.StringFixed(2))
		s.onOrder(order)
	}
}

// halt stops the simulation from inside the loop, unless it was already
// stopped or restarted.
func (s *Simulator) halt(done chan struct{}, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if s.done == done {
		s.cancel()
		s.cancel, s.done = nil, nil
	}
}
