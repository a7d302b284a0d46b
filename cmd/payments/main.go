package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-cart-checkout.git/internal/config"
	kafkax "github.com/ariefcatur/go-cart-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-cart-checkout.git/internal/orders"
	"github.com/ariefcatur/go-cart-checkout.git/internal/payments"
	"github.com/ariefcatur/go-cart-checkout.git/internal/postgres"
	"github.com/ariefcatur/go-cart-checkout.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)

	svc := &payments.Service{
		Orders:      &orders.Repo{DB: db},
		Payments:    &payments.Repo{DB: db},
		Redis:       rdb,
		Producer:    pStatus,
		ServiceName: cfg.ServiceName + "-payments",
	}

	group := getenv("PAYMENTS_GROUP", "payments-svc")
	workers := mustAtoi(os.Getenv("PAYMENTS_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicPaymentEvents, workers)

	go func() {
		log.Printf("payments consumer started: group=%s topic=%s workers=%d", group, orders.TopicPaymentEvents, workers)
		if err := cons.Start(ctx, svc.HandleMessage); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pStatus.Close()
	pStatus.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
