package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hakkisagdic/otokoc-demo/internal/bus"
	"github.com/hakkisagdic/otokoc-demo/internal/catalog"
	"github.com/hakkisagdic/otokoc-demo/internal/config"
	"github.com/hakkisagdic/otokoc-demo/internal/events"
	"github.com/hakkisagdic/otokoc-demo/internal/httpapi"
	"github.com/hakkisagdic/otokoc-demo/internal/inventory"
	"github.com/hakkisagdic/otokoc-demo/internal/invoke"
	"github.com/hakkisagdic/otokoc-demo/internal/notification"
	"github.com/hakkisagdic/otokoc-demo/internal/order"
	"github.com/hakkisagdic/otokoc-demo/internal/payment"
	"github.com/hakkisagdic/otokoc-demo/internal/state"
)

const (
	consumerOrderSaga    = "order-saga"
	consumerInventory    = "inventory-ledger"
	consumerPayments     = "payment-processor"
	consumerNotification = "notification-dispatcher"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := log.New(os.Stdout, "["+cfg.ServiceName+"] ", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newStore(ctx, cfg, logger)
	eventBus := newBus(ctx, cfg, logger)

	invoker, err := invoke.NewHTTPInvoker(map[string]string{
		"user-service":    cfg.UserServiceURL,
		"product-service": cfg.ProductServiceURL,
	}, cfg.InvokeTimeout)
	if err != nil {
		logger.Fatalf("invoker: %v", err)
	}

	orderRepo := order.NewRepository(store)
	inventoryRepo := inventory.NewRepository(store)
	paymentRepo := payment.NewRepository(store)
	notificationRepo := notification.NewRepository(store)

	gateway := payment.NewSimulatedGateway(cfg.PaymentDeclineRate, cfg.PaymentMinLatency, cfg.PaymentMaxLatency, time.Now().UnixNano())
	processor := payment.NewProcessor(paymentRepo, gateway, logger)

	ledger := inventory.NewLedger(inventoryRepo, eventBus, cfg.ReorderFactor, logger)

	dispatcher := notification.NewDispatcher(notificationRepo, map[notification.Type]notification.Provider{
		notification.TypeEmail: notification.NewSimulatedProvider("email-sim", cfg.NotifyFailureRate, time.Now().UnixNano()),
		notification.TypeSMS:   notification.NewSimulatedProvider("sms-sim", cfg.NotifyFailureRate, time.Now().UnixNano()+1),
		notification.TypePush:  notification.NewSimulatedProvider("push-sim", cfg.NotifyFailureRate, time.Now().UnixNano()+2),
		notification.TypeInApp: notification.NewSimulatedProvider("inapp-sim", 0, time.Now().UnixNano()+3),
	}, cfg.NotifyMaxAttempts, cfg.NotifyBackoff, logger)

	saga := order.NewSaga(orderRepo, catalog.NewClient(invoker), processor, eventBus, logger)

	if err := subscribeAll(ctx, eventBus, saga, ledger, processor, dispatcher, logger); err != nil {
		logger.Fatalf("subscribe: %v", err)
	}

	h := httpapi.NewHandler(saga, orderRepo, ledger, paymentRepo, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpapi.NewRouter(h),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Printf("%s listening on :%s", cfg.ServiceName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
}

func newStore(ctx context.Context, cfg config.Config, logger *log.Logger) state.Store {
	switch cfg.StateDriver {
	case "redis":
		logger.Printf("state store: redis at %s", cfg.RedisAddr)
		return state.NewRedisStore(cfg.RedisAddr)
	case "postgres":
		if cfg.RunMigrations {
			if err := state.RunMigrations(cfg.PostgresDSN, logger); err != nil {
				logger.Fatalf("migrate: %v", err)
			}
		}
		pool, err := state.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatalf("postgres connect: %v", err)
		}
		logger.Println("state store: postgres")
		return state.NewPostgresStore(pool)
	default:
		logger.Println("state store: in-memory (data does not survive restarts)")
		return state.NewMemoryStore()
	}
}

func newBus(ctx context.Context, cfg config.Config, logger *log.Logger) bus.Bus {
	switch cfg.BusDriver {
	case "rabbit":
		conn := bus.MustDialRabbit(cfg.RabbitURL)
		b, err := bus.NewRabbitBus(conn, cfg.ServiceName, logger)
		if err != nil {
			logger.Fatalf("rabbit bus: %v", err)
		}
		logger.Println("event bus: rabbitmq")
		return b
	case "kafka":
		logger.Printf("event bus: kafka %v", cfg.KafkaBrokers)
		return bus.NewKafkaBus(cfg.KafkaBrokers, cfg.ServiceName, logger)
	default:
		logger.Println("event bus: in-process")
		return bus.NewMemoryBus(cfg.ServiceName, logger)
	}
}

func subscribeAll(ctx context.Context, b bus.Bus, saga *order.Saga, ledger *inventory.Ledger, processor *payment.Processor, dispatcher *notification.Dispatcher, logger *log.Logger) error {
	subscriptions := []struct {
		topic    string
		consumer string
		handler  bus.HandlerFunc
	}{
		{events.TopicPaymentCompleted, consumerOrderSaga, order.PaymentCompletedHandler(saga, logger)},
		{events.TopicInventoryReserved, consumerOrderSaga, order.InventoryReservedHandler(saga, logger)},

		{events.TopicReserveInventory, consumerInventory, inventory.ReserveInventoryHandler(ledger, logger)},
		{events.TopicOrderShipped, consumerInventory, inventory.OrderShippedHandler(ledger, logger)},
		{events.TopicOrderCancelled, consumerInventory, inventory.OrderCancelledHandler(ledger, logger)},

		{events.TopicOrderCancelled, consumerPayments, payment.OrderCancelledHandler(processor, logger)},

		{events.TopicOrderCreated, consumerNotification, notification.OrderCreatedHandler(dispatcher, logger)},
		{events.TopicOrderShipped, consumerNotification, notification.OrderShippedHandler(dispatcher, logger)},
		{events.TopicOrderCancelled, consumerNotification, notification.OrderCancelledHandler(dispatcher, logger)},
		{events.TopicPaymentFailed, consumerNotification, notification.PaymentFailedHandler(dispatcher, logger)},
	}

	for _, sub := range subscriptions {
		if err := b.Subscribe(ctx, sub.topic, sub.consumer, sub.handler); err != nil {
			return err
		}
	}
	return nil
}
