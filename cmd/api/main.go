package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/safar/storefront/internal/api"
	"github.com/safar/storefront/internal/auth"
	"github.com/safar/storefront/internal/cart"
	"github.com/safar/storefront/internal/catalog"
	"github.com/safar/storefront/internal/checkout"
	"github.com/safar/storefront/internal/config"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/feed"
	"github.com/safar/storefront/internal/simulator"
	"github.com/safar/storefront/internal/store"
	"github.com/safar/storefront/internal/telemetry"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	st := store.New(db)
	taxRate := decimal.NewFromFloat(cfg.Checkout.TaxRate)

	var products *catalog.Catalog
	if cfg.Catalog.Source == "db" {
		products = catalog.New(st)
	} else {
		products = catalog.NewStatic()
	}

	carts := cart.NewManager(cart.NewRedisRepository(rdb, cfg.Redis.CartTTL))
	flow := checkout.NewService(carts, st, checkout.NewRedisStateStore(rdb, cfg.Redis.CartTTL), taxRate)

	notifier := database.NewNotifier(&cfg.Database, &cfg.Feed)
	defer notifier.Close()
	orders := feed.New(st, notifier)

	sim := simulator.New(st, cfg.Simulator, taxRate, nil)

	router := api.NewRouter(api.Deps{
		Catalog:   products,
		Carts:     carts,
		Checkout:  flow,
		Feed:      orders,
		Simulator: sim,
		Gate:      auth.NewGate(st),
		Admin:     st,
		Health: func(ctx context.Context) error {
			if err := st.Ping(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
		RequestTimeout: cfg.Server.WriteTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      telemetry.Handler(router, "storefront"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	// Shutdown waits for active requests; order streams only end when the feed closes.
	server.RegisterOnShutdown(orders.Close)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return orders.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutting down")

		if err := sim.Close(); err != nil {
			log.Printf("Stop simulator: %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if terr := shutdownTracing(shutdownCtx); terr != nil {
			log.Printf("Flush traces: %v", terr)
		}
		return err
	})

	return g.Wait()
}
