package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/safar/storefront/internal/models"
)

var ErrSourceClosed = errors.New("change notifications closed")

// Fetcher reads the full order list, newest first.
type Fetcher interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
}

// Source signals that orders changed. The channel is closed when ctx is done.
type Source interface {
	Subscribe(ctx context.Context) (<-chan struct{}, error)
}

// Snapshot is one complete read of the order list. Consumers replace their
// view with it; snapshots are never merged.
type Snapshot struct {
	Orders    []models.Order `json:"orders"`
	FetchedAt time.Time      `json:"fetched_at"`
	Seq       uint64         `json:"seq"`
}

type Feed struct {
	fetcher Fetcher
	source  Source

	fetchMu sync.Mutex

	mu      sync.Mutex
	current *Snapshot
	seq     uint64
	subs    map[uint64]chan Snapshot
	nextSub uint64
	closed  bool
}

func New(fetcher Fetcher, source Source) *Feed {
	return &Feed{
		fetcher: fetcher,
		source:  source,
		subs:    make(map[uint64]chan Snapshot),
	}
}

// Run fetches once, then refetches once per change signal until ctx is done.
// Listening starts before the first fetch so no change is missed in between.
func (f *Feed) Run(ctx context.Context) error {
	signals, err := f.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to order changes: %w", err)
	}

	if err := f.Refresh(ctx); err != nil {
		log.Printf("order feed: initial fetch: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-signals:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrSourceClosed
			}
			if err := f.Refresh(ctx); err != nil {
				log.Printf("order feed: refetch: %v", err)
			}
		}
	}
}

// Refresh performs one full fetch and publishes it to every subscriber.
func (f *Feed) Refresh(ctx context.Context) error {
	f.fetchMu.Lock()
	defer f.fetchMu.Unlock()

	orders, err := f.fetcher.ListOrders(ctx)
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []models.Order{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	snap := Snapshot{Orders: orders, FetchedAt: time.Now().UTC(), Seq: f.seq}
	f.current = &snap

	for _, ch := range f.subs {
		deliver(ch, snap)
	}
	return nil
}

// deliver keeps only the newest snapshot in a subscriber's buffer.
func deliver(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- snap
}

func (f *Feed) Current() (Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return Snapshot{}, false
	}
	return *f.current, true
}

// Subscribe returns a channel of snapshots, starting with the current one if
// any. A slow reader skips intermediate snapshots. The channel is closed once
// ctx is done or the feed is closed.
func (f *Feed) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(ch)
		return ch
	}
	id := f.nextSub
	f.nextSub++
	f.subs[id] = ch
	if f.current != nil {
		ch <- *f.current
	}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		if _, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(ch)
		}
		f.mu.Unlock()
	}()

	return ch
}

// Close ends every subscription and refuses new ones. Long-lived readers such
// as event streams return once their channel closes.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}

func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
