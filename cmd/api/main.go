package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
	"github.com/ariefcatur/go-cart-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-cart-checkout.git/internal/checkout"
	"github.com/ariefcatur/go-cart-checkout.git/internal/config"
	"github.com/ariefcatur/go-cart-checkout.git/internal/httpx"
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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pCanceled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCanceled, 1024)
	pCanceled.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)

	// Repos & services
	catalogRepo := &catalog.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	paymentRepo := &payments.Repo{DB: db}
	userCart := &cart.Cart{Redis: rdb, Catalog: catalogRepo}
	checkoutSvc := &checkout.Service{
		Cart:        userCart,
		Orders:      orderRepo,
		Producer:    pCreated,
		ServiceName: cfg.ServiceName,
	}
	paymentSvc := &payments.Service{
		Orders:      orderRepo,
		Payments:    paymentRepo,
		Producer:    pStatus,
		ServiceName: cfg.ServiceName,
	}

	router := httpx.NewRouter()
	(&httpx.ProductsHandler{Repo: catalogRepo}).Register(router)
	(&httpx.CartHandler{Cart: userCart}).Register(router)
	(&httpx.OrdersHandler{
		Repo:             orderRepo,
		Checkout:         checkoutSvc,
		ProducerCanceled: pCanceled,
		ProducerStatus:   pStatus,
		AdminToken:       cfg.AdminToken,
		Service:          cfg.ServiceName,
	}).Register(router)
	(&httpx.PaymentsHandler{
		Orders:   orderRepo,
		Repo:     paymentRepo,
		Payments: paymentSvc,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range []*kafkax.Producer{pCreated, pCanceled, pStatus} {
		p.Close()
	}
	cancel()
	for _, p := range []*kafkax.Producer{pCreated, pCanceled, pStatus} {
		p.WaitClosed()
	}
}
