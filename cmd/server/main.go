package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-be/internal/cart"
	"marketplace-be/internal/config"
	"marketplace-be/internal/db"
	"marketplace-be/internal/events"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/metrics"
	"marketplace-be/internal/middleware"
	"marketplace-be/internal/order"
	"marketplace-be/internal/payment"
	"marketplace-be/internal/pricing"
	"marketplace-be/internal/product"
	"marketplace-be/internal/scheduler"
	"marketplace-be/internal/session"
	"marketplace-be/internal/user"
	"marketplace-be/internal/web"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	newRedisFunc    = func(cfg *config.Config) *redis.Client { return session.NewRedisClient(cfg.RedisAddress, cfg.RedisPassword) }
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

// server is the wired application plus the background workers run owns.
type server struct {
	handler   http.Handler
	scheduler *scheduler.Scheduler
	limiter   *middleware.Limiter
	closers   []func()
}

func (s *server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func newBus(cfg *config.Config) (*events.Bus, func(), error) {
	bus := events.NewBus()
	bus.Subscribe(events.LogSubscriber)

	if len(cfg.KafkaBrokers) == 0 {
		return bus, func() {}, nil
	}
	client, err := events.NewKafkaClient(cfg.KafkaBrokers)
	if err != nil {
		return nil, nil, err
	}
	bus.Subscribe(events.NewKafkaSubscriber(client).Handle)
	logger.L().Info("kafka publishing enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	return bus, client.Close, nil
}

func newServer(ctx context.Context, cfg *config.Config, database *sql.DB, rdb *redis.Client) (*server, error) {
	log := logger.L()

	bus, closeBus, err := newBus(cfg)
	if err != nil {
		return nil, err
	}

	registry := metrics.NewRegistry()

	converter := pricing.NewConverter(
		pricing.NewCBRSource(cfg.RateSourceURL),
		pricing.NewRateRepository(database),
		bus,
		registry,
	)
	if err := converter.Load(ctx); err != nil {
		log.Warn("exchange rate not loaded, using default", zap.Error(err))
	}

	productSvc := product.NewService(product.NewRepository(database), bus)
	userSvc := user.NewService(user.NewRepository(database))
	cartSvc := cart.NewService(productSvc, converter)
	orderSvc := order.NewService(
		order.NewRepository(database),
		productSvc,
		userSvc,
		converter,
		bus,
		registry,
		cfg.FreeDeliveryThreshold,
	)
	paymentSvc := payment.NewService(payment.NewRepository(database), converter, bus, registry)

	sched := scheduler.New(ctx)
	if err := sched.Register(productSvc, converter, cfg.RateRefreshInterval); err != nil {
		closeBus()
		return nil, err
	}

	checks := map[string]web.HealthCheck{
		"postgres": database.PingContext,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}

	h := web.NewHandler(cartSvc, orderSvc, paymentSvc, registry, checks)
	engine := web.NewRouter(web.Config{
		Env:          cfg.AppEnv,
		LoginURL:     cfg.LoginURL,
		CORSOrigins:  cfg.CORSOrigins,
		SessionTTL:   cfg.SessionTTL,
		SecureCookie: cfg.AppEnv == "production",
	}, h, session.NewRedisStore(rdb, cfg.SessionTTL))

	limiter := middleware.NewLimiter()

	var handler http.Handler = engine
	handler = limiter.Middleware(handler)
	handler = middleware.AuthMiddleware(cfg.JWTSecret)(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)

	return &server{
		handler:   handler,
		scheduler: sched,
		limiter:   limiter,
		closers:   []func(){closeBus},
	}, nil
}

func startServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.L().Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := initDBFunc(cfg)
	defer database.Close()

	rdb := newRedisFunc(cfg)
	defer rdb.Close()

	srv, err := newServer(ctx, cfg, database, rdb)
	if err != nil {
		return err
	}
	defer srv.close()

	srv.scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.scheduler.Stop(stopCtx)
	}()

	go srv.limiter.RunCleanup(ctx)

	return startServerFunc(ctx, ":"+cfg.AppPort, srv.handler)
}
