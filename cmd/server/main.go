package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"commerce-service/internal/auth"
	"commerce-service/internal/config"
	controllers "commerce-service/internal/controllers/http"
	"commerce-service/internal/dispatch"
	"commerce-service/internal/infra/events"
	"commerce-service/internal/infra/firestore"
	"commerce-service/internal/infra/gateway"
	"commerce-service/internal/infra/mailer"
	mmysql "commerce-service/internal/infra/mysql"
	"commerce-service/internal/infra/rabbitmq"
	"commerce-service/internal/infra/redis"
	"commerce-service/internal/observability"
	mysqlrepo "commerce-service/internal/repository/mysql"
	"commerce-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	db, err := mmysql.NewMySQL(cfg.MySQL, logger)
	if err != nil {
		return err
	}
	store := mysqlrepo.NewStore(db)

	queue := dispatch.New(dispatch.Options{
		Size:        cfg.Events.QueueSize,
		Workers:     cfg.Events.Workers,
		MaxAttempts: cfg.Events.MaxAttempts,
		Backoff:     cfg.Events.Backoff,
	}, logger.Named("dispatch"))
	queue.Start()

	sink, closeSink, err := newEventSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()
	publisher := events.NewPublisher(sink, queue, cfg.Events.Origin, logger.Named("events"))

	gw, err := newGateway(cfg.Gateway)
	if err != nil {
		return err
	}

	var guard services.WebhookGuard
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		guard = redis.NewWebhookGuard(rdb, redis.DefaultWebhookTTL)
	} else {
		logger.Warn("REDIS_ADDR not set; webhook redelivery guard disabled")
	}

	var notifier services.InvoiceNotifier
	if cfg.Mail.Host != "" {
		notifier = mailer.NewInvoiceNotifier(mailer.NewSMTPSender(cfg.Mail), queue, cfg.Mail.StoreName, logger.Named("mailer"))
	} else {
		logger.Warn("MAIL_HOST not set; invoice emails disabled")
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Store:             store,
		Events:            publisher,
		Logger:            logger,
		StrictTransitions: cfg.Orders.StrictTransitions,
		StrictTotals:      cfg.Orders.StrictTotals,
	})
	if err != nil {
		return err
	}
	shipments, err := services.NewShipmentService(services.ShipmentServiceDeps{
		Store:  store,
		Events: publisher,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	invoices, err := services.NewInvoiceService(services.InvoiceServiceDeps{
		Store:       store,
		Notifier:    notifier,
		Events:      publisher,
		Logger:      logger,
		TaxRate:     cfg.Billing.TaxRate,
		InvoiceType: cfg.Billing.InvoiceType,
		Prefix:      cfg.Billing.InvoicePrefix,
	})
	if err != nil {
		return err
	}
	payments, err := services.NewPaymentService(services.PaymentServiceDeps{
		Store:          store,
		Gateway:        gw,
		Shipments:      shipments,
		Invoices:       invoices,
		Events:         publisher,
		Guard:          guard,
		Logger:         logger,
		GatewayTimeout: cfg.Gateway.Timeout,
	})
	if err != nil {
		return err
	}

	handler := controllers.NewHandler(controllers.HandlerDeps{
		Orders:     orders,
		Payments:   payments,
		Shipments:  shipments,
		Invoices:   invoices,
		Logger:     logger,
		Production: cfg.IsProduction(),
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := controllers.NewRouter(controllers.RouterDeps{
		Handler:     handler,
		Auth:        auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Middleware(),
		Logger:      logger,
		ServiceName: cfg.Tracing.ServiceName,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting commerce service", zap.String("port", cfg.HTTP.Port), zap.String("payment_provider", gw.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := queue.Close(shutdownCtx); err != nil {
		logger.Warn("dispatch queue not drained", zap.Error(err))
	}
	return nil
}

func newEventSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (events.Sink, func(), error) {
	switch cfg.Events.Sink {
	case "rabbitmq":
		s, err := rabbitmq.NewSink(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "firestore":
		s, err := firestore.NewSink(ctx, cfg.Firestore.ProjectID, cfg.Firestore.Collection)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return events.NewLogSink(logger), func() {}, nil
	}
}

func newGateway(cfg config.GatewayConfig) (gateway.Gateway, error) {
	gcfg := gateway.Config{
		Currency:   cfg.Currency,
		SuccessURL: cfg.SuccessURL,
		FailureURL: cfg.FailureURL,
		PendingURL: cfg.PendingURL,
		WebhookURL: cfg.WebhookURL,
	}
	switch cfg.Provider {
	case gateway.ProviderStripe:
		return gateway.NewStripe(cfg.StripeKey, cfg.StripeWebhookSecret, gcfg)
	default:
		return gateway.NewMercadoPago(cfg.MercadoPagoBaseURL, cfg.MercadoPagoToken, cfg.MercadoPagoWebhookSecret, gcfg, cfg.Timeout), nil
	}
}
