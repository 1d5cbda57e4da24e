package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/jiljuapp/jilju/internal/adapters/nats"
	"github.com/jiljuapp/jilju/internal/adapters/postgres"
	"github.com/jiljuapp/jilju/internal/core/ports"
	"github.com/jiljuapp/jilju/internal/core/usecases"
	"github.com/jiljuapp/jilju/internal/pkg/config"
	"github.com/jiljuapp/jilju/internal/pkg/logging"
	"github.com/jiljuapp/jilju/internal/workflows"
)

func main() {
	cfg, err := config.Load("jilju-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(os.Getenv("LOG_LEVEL"), "json")

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, coupon events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	benefitRepo := postgres.NewBenefitRepo(db)
	couponSvc := usecases.NewCouponService(
		postgres.NewCouponRepo(db), benefitRepo, publisher, nil,
		cfg.Coupon.DefaultTTLDuration(), nil,
	)

	// Connect to Temporal
	hostPort := os.Getenv("TEMPORAL_ADDR")
	if hostPort == "" {
		hostPort = "localhost:7233"
	}
	c, err := client.Dial(client.Options{
		HostPort: hostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, workflows.IssuanceTaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.IssuanceWorkflow)
	w.RegisterActivity(&workflows.IssuanceActivities{
		CouponService: couponSvc,
		Benefits:      benefitRepo,
	})

	slog.Info("issuance worker started", "queue", workflows.IssuanceTaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
