package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/kevin07696/bnpl-service/internal/adapters/database"
	"github.com/kevin07696/bnpl-service/internal/adapters/notification"
	"github.com/kevin07696/bnpl-service/internal/adapters/postgres"
	"github.com/kevin07696/bnpl-service/internal/adapters/tamara"
	"github.com/kevin07696/bnpl-service/internal/config"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
	"github.com/kevin07696/bnpl-service/internal/handlers/connector"
	"github.com/kevin07696/bnpl-service/internal/handlers/events"
	"github.com/kevin07696/bnpl-service/internal/services/capture"
	"github.com/kevin07696/bnpl-service/internal/services/catalog"
	"github.com/kevin07696/bnpl-service/internal/services/checkout"
	"github.com/kevin07696/bnpl-service/internal/services/refund"
	pkghttp "github.com/kevin07696/bnpl-service/pkg/http"
	"github.com/kevin07696/bnpl-service/pkg/logging"
	"github.com/kevin07696/bnpl-service/pkg/middleware"
	"github.com/kevin07696/bnpl-service/pkg/observability"
	"github.com/kevin07696/bnpl-service/pkg/resilience"
	"github.com/kevin07696/bnpl-service/pkg/shutdown"
)

const (
	dbConnectAttempts   = 5
	poolMonitorInterval = 30 * time.Second
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		panic(fmt.Sprintf("load configuration: %v", err))
	}

	logger, err := logging.NewLogger(cfg.Logger.Level, cfg.Logger.Development)
	if err != nil {
		panic(fmt.Sprintf("init logger: %v", err))
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bnpl service",
		zap.String("version", "0.1.0"),
		zap.String("provider_url", cfg.Provider.BaseURL),
		zap.String("lock_backend", cfg.Checkout.LockBackend),
		zap.String("secret_backend", cfg.Secrets.Backend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	database.StartPoolMonitoring(ctx, dbPool, poolMonitorInterval, logger)

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	shutdownMgr := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)
	shutdownMgr.RegisterNoErr("database", dbPool.Close)

	deps, err := initDependencies(ctx, dbPool, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", zap.Error(err))
	}

	// gRPC: health and reflection only
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			observability.UnaryServerInterceptor(),
			loggingInterceptor(logger),
			recoveryInterceptor(logger),
		),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	gwMux := runtime.NewServeMux()
	if err := deps.connectorHandler.Register(gwMux); err != nil {
		logger.Fatal("Failed to register HTTP routes", zap.Error(err))
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger)
	timeouts := resilience.DefaultTimeoutConfig().WithProviderTimeout(time.Duration(cfg.Provider.Timeout) * time.Second)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.HTTPPort)),
		Handler:           rateLimiter.Middleware(middleware.Timeout(timeouts, logger)(gwMux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	healthChecker := observability.NewHealthChecker(dbPool)
	healthChecker.AddCheck("provider_circuit", func(context.Context) error {
		if state := deps.breaker.State(); state == tamara.StateOpen {
			return fmt.Errorf("circuit %s", state)
		}
		return nil
	})
	readiness := &observability.Readiness{}
	metricsServer := observability.NewMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, readiness)
	observability.StartMetricsServer(metricsServer, logger)

	listener, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.GRPCPort)))
	if err != nil {
		logger.Fatal("Failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("address", listener.Addr().String()))
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	consumerWorker := shutdown.NewBackgroundWorker("sqs-consumer", logger)
	if deps.consumer != nil {
		deps.consumer.SetTimeouts(timeouts)
		consumerWorker.Start(deps.consumer.Start)
	} else {
		logger.Warn("EVENTS_QUEUE_URL not set, lifecycle events are only accepted over HTTP")
	}

	// Registered last so they stop first
	shutdownMgr.RegisterHTTPServer("metrics-server", metricsServer)
	shutdownMgr.RegisterNoErr("grpc-server", grpcServer.GracefulStop)
	shutdownMgr.RegisterNoErr("rate-limiter", rateLimiter.Shutdown)
	shutdownMgr.RegisterHTTPServer("http-server", httpServer)
	shutdownMgr.Register("sqs-consumer", consumerWorker.Shutdown)
	shutdownMgr.RegisterNoErr("readiness", func() {
		readiness.SetReady(false)
		healthServer.Shutdown()
	})

	readiness.SetReady(true)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	shutdownMgr.WaitForShutdown()
	cancel()
	logger.Info("Servers stopped")
}

// Dependencies holds the wired services and handlers
type Dependencies struct {
	connectorHandler *connector.Handler
	consumer         *events.SQSConsumer
	breaker          *tamara.CircuitBreaker
}

// initDatabase connects to PostgreSQL, retrying while the database comes up
func initDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg := database.DefaultPoolConfig(cfg.Database.ConnectionString())
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	var pool *pgxpool.Pool
	attempt := 0
	err := resilience.Retry(ctx, dbConnectAttempts, resilience.DatabaseConnectBackoff(), func(ctx context.Context) error {
		attempt++
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		p, err := database.NewPool(connectCtx, poolCfg, logger)
		if err != nil {
			logger.Warn("Database not reachable",
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// initDependencies wires adapters into services and handlers
func initDependencies(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	portsLogger := logging.NewZapLogger(logger)
	db := postgres.NewDBExecutor(dbPool)

	orders := postgres.NewOrderRepository(db)
	memos := postgres.NewCreditMemoRepository(db)
	refs := postgres.NewProviderOrderStore(db)
	captureLedger := postgres.NewCaptureLedger(db)
	refundLedger := postgres.NewRefundLedger(db)
	invoices := postgres.NewInvoiceStore(db)
	carts := postgres.NewCartRepository(db)
	images := catalog.NewImageCache(
		postgres.NewProductImageRepository(db, cfg.Catalog.MediaBaseURL),
		cfg.Catalog.ImageCacheTTL,
		portsLogger,
	)

	var locker ports.OrderLocker
	switch cfg.Checkout.LockBackend {
	case "memory":
		locker = capture.NewKeyedLocker()
	default:
		locker = postgres.NewAdvisoryLocker(dbPool, portsLogger)
	}

	secretManager, err := initSecretManager(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init secret manager: %w", err)
	}
	apiToken, err := resolveProviderToken(ctx, cfg, secretManager)
	if err != nil {
		return nil, err
	}

	breaker := tamara.NewCircuitBreaker(tamara.CircuitBreakerConfig{
		MaxFailures:         cfg.Provider.BreakerFailures,
		Timeout:             cfg.Provider.BreakerTimeout,
		MaxRequestsHalfOpen: 1,
	})
	httpClient := pkghttp.NewClient(pkghttp.ProviderClientConfig(time.Duration(cfg.Provider.Timeout) * time.Second))
	gateway := tamara.NewAdapter(tamara.Config{
		BaseURL:  cfg.Provider.BaseURL,
		APIToken: apiToken,
	}, httpClient, breaker, portsLogger)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Events.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	notifier := notification.NewSNSInvoiceNotifier(sns.NewFromConfig(awsCfg), cfg.Events.InvoiceTopicARN, portsLogger)

	settings := &cfg.Checkout
	invoicer := capture.NewInvoicer(orders, invoices, notifier, portsLogger)
	builder := capture.NewPayloadBuilder(images, cfg.Catalog.PlaceholderImage, portsLogger)
	captureSvc := capture.NewService(orders, refs, captureLedger, gateway, builder, invoicer, locker, settings, portsLogger)
	refundSvc := refund.NewService(orders, memos, refs, refundLedger, gateway, settings, portsLogger)
	finalizer := checkout.NewFinalizer(orders, carts, settings, portsLogger)

	deps := &Dependencies{
		connectorHandler: connector.NewHandler(captureSvc, refundSvc, finalizer, logger),
		breaker:          breaker,
	}

	if cfg.Events.SQSQueueURL != "" {
		deps.consumer = events.NewSQSConsumer(sqs.NewFromConfig(awsCfg), events.ConsumerConfig{
			QueueURL:        cfg.Events.SQSQueueURL,
			WaitTimeSeconds: cfg.Events.ConsumerWaitSecs,
			MaxMessages:     cfg.Events.ConsumerBatchSize,
		}, captureSvc, refundSvc, portsLogger)
	}

	logger.Info("Dependencies initialized",
		zap.Bool("events_consumer", deps.consumer != nil),
		zap.String("invoice_topic", cfg.Events.InvoiceTopicARN),
	)
	return deps, nil
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if err != nil {
			logger.Error("gRPC request failed",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		} else {
			logger.Debug("gRPC request",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
			)
		}

		return resp, err
	}
}

func recoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered in gRPC handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				err = fmt.Errorf("internal server error")
			}
		}()

		return handler(ctx, req)
	}
}
