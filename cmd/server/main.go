package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/finledger/internal/adapter/http"
	"github.com/iho/finledger/internal/adapter/http/handler"
	"github.com/iho/finledger/internal/adapter/http/middleware"
	"github.com/iho/finledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/finledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/finledger/internal/adapter/repository/redis"
	"github.com/iho/finledger/internal/infrastructure/auth"
	"github.com/iho/finledger/internal/infrastructure/config"
	"github.com/iho/finledger/internal/infrastructure/eventpublisher"
	"github.com/iho/finledger/internal/infrastructure/idgen"
	"github.com/iho/finledger/internal/infrastructure/logger"
	"github.com/iho/finledger/internal/infrastructure/metrics"
	"github.com/iho/finledger/internal/infrastructure/postgres"
	"github.com/iho/finledger/internal/infrastructure/redis"
	"github.com/iho/finledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "finledger"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// app is the wired service.
type app struct {
	handler   http.Handler
	publisher *eventpublisher.EventPublisher
	limiter   *middleware.RateLimiter
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage holds the ports of the selected storage driver.
type storage struct {
	txManager    usecase.TransactionManager
	accountRepo  usecase.AccountRepository
	movementRepo usecase.MovementRepository
	outboxRepo   usecase.OutboxRepository
	retrier      usecase.Retrier
	ping         handler.Pinger
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if a.publisher != nil {
		g.Go(func() error {
			if err := a.publisher.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if a.limiter != nil {
		g.Go(func() error {
			sweepLimiters(gctx, a.limiter, limiterSweepInterval)
			return nil
		})
	}

	return g.Wait()
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{}

	st, err := openStorage(ctx, cfg, log, a)
	if err != nil {
		a.close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.New(reg)

	ledger := usecase.NewLedger(
		st.txManager,
		st.accountRepo,
		st.movementRepo,
		st.outboxRepo,
		idgen.NewULIDGenerator(),
		st.retrier,
		ledgerMetrics,
	).WithTransactionTimeout(cfg.TxTimeout)

	transferUC := usecase.NewTransferUseCase(ledger)

	checks := map[string]handler.Pinger{"storage": st.ping}

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(usecase.NewAccountUseCase(ledger)),
		MovementHandler: handler.NewMovementHandler(usecase.NewMovementUseCase(ledger, transferUC)),
		TransferHandler: handler.NewTransferHandler(transferUC),
		BalanceHandler: handler.NewBalanceHandler(
			usecase.NewBalanceUseCase(ledger),
			usecase.NewReconciliationUseCase(ledger),
		),
		Logger:         log,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}

	if cfg.MetricsEnabled {
		routerCfg.Metrics = middleware.NewHTTPMetrics(reg)
		routerCfg.Gatherer = reg
	}

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		log.Info().Msg("connected to redis")

		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(client)
		checks["redis"] = redisPinger(client)
	}

	if cfg.RateLimitRPS > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		routerCfg.RateLimiter = a.limiter
	}

	if cfg.JWTSecret != "" {
		routerCfg.TokenVerifier = auth.NewTokenManager(cfg.JWTSecret, 0)
		log.Info().Msg("bearer token authentication enabled")
	}

	routerCfg.HealthHandler = handler.NewHealthHandler(checks)
	a.handler = httpAdapter.NewRouter(routerCfg)

	if cfg.OutboxEnabled {
		a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: st.outboxRepo,
			Publisher:  eventpublisher.NewLogPublisher(log.With().Str("component", "outbox").Logger()),
			Logger:     log,
			Metrics:    ledgerMetrics,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
		})
	}

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger, a *app) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &storage{
			txManager:    store,
			accountRepo:  memory.NewAccountRepository(store),
			movementRepo: memory.NewMovementRepository(store),
			outboxRepo:   memory.NewOutboxRepository(store),
		}, nil

	case config.StorageDriverPostgres:
		if cfg.MigrateOnStart {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
				return nil, err
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		log.Info().Msg("connected to postgres")

		return &storage{
			txManager:    postgresRepo.NewTxManager(pool),
			accountRepo:  postgresRepo.NewAccountRepository(pool),
			movementRepo: postgresRepo.NewMovementRepository(pool),
			outboxRepo:   postgresRepo.NewOutboxRepository(pool),
			retrier: postgresRepo.NewRetrier(postgresRepo.RetryConfig{
				MaxRetries:      cfg.RetryMaxAttempts,
				InitialInterval: cfg.RetryInitialInterval,
				MaxInterval:     cfg.RetryMaxInterval,
				MaxElapsedTime:  cfg.TxTimeout,
			}, log),
			ping: poolPinger(pool),
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

const limiterSweepInterval = time.Minute

// sweepLimiters drops idle per-client limiters until ctx is done.
func sweepLimiters(ctx context.Context, rl *middleware.RateLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters()
		}
	}
}

func poolPinger(pool *pgxpool.Pool) handler.Pinger {
	return handler.PingFunc(pool.Ping)
}

func redisPinger(client *goredis.Client) handler.Pinger {
	return handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}
