package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/safar/storefront/internal/config"
)

const listenerPingInterval = 90 * time.Second

// Notifier delivers one signal per NOTIFY received on a Postgres channel.
type Notifier struct {
	listener *pq.Listener
	channel  string
}

func NewNotifier(dbCfg *config.DatabaseConfig, feedCfg *config.FeedConfig) *Notifier {
	channel := feedCfg.Channel
	listener := pq.NewListener(dbCfg.URL, feedCfg.MinReconnectInterval, feedCfg.MaxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Printf("listener %s: event %d: %v", channel, ev, err)
			}
		})

	return &Notifier{listener: listener, channel: channel}
}

// Subscribe starts listening and returns a channel that is closed when ctx is done.
// A reconnect is reported as a signal too, since notifications may have been
// missed while the connection was down.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	if err := n.listener.Listen(n.channel); err != nil {
		return nil, fmt.Errorf("listen %s: %w", n.channel, err)
	}

	out := make(chan struct{})
	go func() {
		defer close(out)
		ticker := time.NewTicker(listenerPingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				if err := n.listener.Unlisten(n.channel); err != nil {
					log.Printf("unlisten %s: %v", n.channel, err)
				}
				return
			case _, ok := <-n.listener.Notify:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			case <-ticker.C:
				if err := n.listener.Ping(); err != nil {
					log.Printf("ping listener %s: %v", n.channel, err)
				}
			}
		}
	}()

	return out, nil
}

func (n *Notifier) Close() error {
	return n.listener.Close()
}
