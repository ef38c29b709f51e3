// loadgen drives cart traffic against a running backend. Each worker acts
// as one table of diners: it adds and adjusts items through the client
// cart store, so flush coalescing and reconciliation run the same code
// paths a real client would, then checks out.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dinecart/backend/pkg/cartstore"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type menuEntry struct {
	id    uuid.UUID
	name  string
	price decimal.Decimal
}

type counters struct {
	mutations int64
	checkouts int64
	failures  int64
}

func main() {
	var (
		baseURL  = flag.String("base-url", "http://localhost:8080", "Backend base URL")
		tenant   = flag.String("tenant", "", "Tenant UUID (required)")
		tables   = flag.Int("tables", 4, "Concurrent table sessions")
		duration = flag.Duration("duration", 30*time.Second, "Run duration")
		pace     = flag.Duration("pace", 200*time.Millisecond, "Delay between mutations per table")
	)
	flag.Parse()

	tenantID, err := uuid.Parse(*tenant)
	if err != nil {
		fmt.Fprintln(os.Stderr, "a valid -tenant UUID is required")
		os.Exit(1)
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	menu := []menuEntry{
		{id: uuid.New(), name: "Masala Chai", price: decimal.NewFromInt(20)},
		{id: uuid.New(), name: "Masala Dosa", price: decimal.NewFromInt(80)},
		{id: uuid.New(), name: "Veg Thali", price: decimal.NewFromInt(150)},
		{id: uuid.New(), name: "Filter Coffee", price: decimal.NewFromInt(30)},
		{id: uuid.New(), name: "Idli Sambar", price: decimal.NewFromInt(60)},
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	log.Info("loadgen starting",
		zap.String("base_url", *baseURL),
		zap.Int("tables", *tables),
		zap.Duration("duration", *duration),
	)

	var stats counters
	var wg sync.WaitGroup
	for i := 0; i < *tables; i++ {
		wg.Add(1)
		go func(table int) {
			defer wg.Done()
			runTable(ctx, log, *baseURL, tenantID, table, menu, *pace, &stats)
		}(i + 1)
	}
	wg.Wait()

	log.Info("loadgen finished",
		zap.Int64("mutations", atomic.LoadInt64(&stats.mutations)),
		zap.Int64("checkouts", atomic.LoadInt64(&stats.checkouts)),
		zap.Int64("failures", atomic.LoadInt64(&stats.failures)),
	)
}

// runTable loops one table session: fill the cart, tweak it, check out,
// start over. Each pass exercises ensure, increment, set and checkout.
func runTable(ctx context.Context, log *zap.Logger, baseURL string, tenantID uuid.UUID, table int, menu []menuEntry, pace time.Duration, stats *counters) {
	tableCode := fmt.Sprintf("T%d", table)
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(table)))

	api := cartstore.NewHTTPTransport(baseURL, tenantID)
	store := cartstore.New(api, cartstore.WithLogger(log.Named(tableCode)))
	defer store.Close()

	store.SetServerContext(tenantID, "dine_in", tableCode, "", nil, nil)

	for ctx.Err() == nil {
		if _, err := store.EnsureCartReady(ctx, false); err != nil {
			atomic.AddInt64(&stats.failures, 1)
			log.Warn("ensure cart failed", zap.String("table", tableCode), zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}

		rounds := 3 + rng.Intn(5)
		for i := 0; i < rounds && ctx.Err() == nil; i++ {
			entry := menu[rng.Intn(len(menu))]
			switch rng.Intn(4) {
			case 0, 1:
				store.Add(cartstore.Item{MenuItemID: entry.id, Name: entry.name, UnitPrice: entry.price}, 1+rng.Intn(3))
			case 2:
				store.UpdateQty(entry.id, rng.Intn(4))
			case 3:
				store.Remove(entry.id)
			}
			atomic.AddInt64(&stats.mutations, 1)
			sleep(ctx, pace)
		}

		store.Flush()
		sleep(ctx, pace)

		receipt, err := store.Checkout(ctx, fmt.Sprintf("loadgen-%s", tableCode), tableCode)
		if err != nil {
			// an empty cart is a legal outcome of random mutations
			atomic.AddInt64(&stats.failures, 1)
			log.Debug("checkout failed", zap.String("table", tableCode), zap.Error(err))
			continue
		}
		atomic.AddInt64(&stats.checkouts, 1)
		log.Info("checked out",
			zap.String("table", tableCode),
			zap.String("order_id", receipt.OrderID.String()),
			zap.String("total", receipt.Totals.Total.String()),
		)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
