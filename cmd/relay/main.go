package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/jiljuapp/jilju/internal/adapters/nats"
	"github.com/jiljuapp/jilju/internal/adapters/valkey"
	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/pkg/config"
	"github.com/jiljuapp/jilju/internal/pkg/logging"
)

// activityTTL keeps per-merchant daily counters around for a week, matching
// the default stats window the merchant dashboard queries.
const activityTTL = 7 * 24 * 60 * 60

func main() {
	cfg, err := config.Load("jilju-relay")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(os.Getenv("LOG_LEVEL"), "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeCouponEvents(ctx, func(ctx context.Context, c *domain.Coupon) error {
		kind := "issued"
		at := c.IssuedAt
		if c.RedeemedAt != nil {
			kind = "redeemed"
			at = *c.RedeemedAt
		}

		key := fmt.Sprintf("jilju:activity:%s:%s:%s",
			c.MerchantID, at.Format("2006-01-02"), kind)
		count, err := cache.Incr(ctx, key, activityTTL)
		if err != nil {
			return err
		}

		slog.Info("coupon event",
			"kind", kind, "merchant", c.MerchantID, "benefit", c.BenefitID,
			"token", c.Token, "day_count", count)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("relay started", "nats", cfg.NATS.URL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("relay stopping", "signal", sig.String())

	cancel()
	// Let in-flight handlers ack before the drain in sub.Close.
	time.Sleep(200 * time.Millisecond)
}
