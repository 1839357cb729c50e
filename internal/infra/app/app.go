package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
	"github.com/ryu-qqq/AuthHub-sub012/internal/infra/config"
	"github.com/ryu-qqq/AuthHub-sub012/internal/infra/database"
	kafkainfra "github.com/ryu-qqq/AuthHub-sub012/internal/infra/kafka"
	"github.com/ryu-qqq/AuthHub-sub012/internal/infra/logger"
	"github.com/ryu-qqq/AuthHub-sub012/internal/infra/metrics"
	redisinfra "github.com/ryu-qqq/AuthHub-sub012/internal/infra/redis"
	"github.com/ryu-qqq/AuthHub-sub012/internal/infra/security"
	postgresrepo "github.com/ryu-qqq/AuthHub-sub012/internal/repository/postgres"
	redisrepo "github.com/ryu-qqq/AuthHub-sub012/internal/repository/redis"
	"github.com/ryu-qqq/AuthHub-sub012/internal/transport/http/middleware"
	"github.com/ryu-qqq/AuthHub-sub012/internal/transport/http/routes"
	"github.com/ryu-qqq/AuthHub-sub012/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	consumer *kafkainfra.RevocationConsumerGroup
	resolver *usecase.PermissionResolver
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	clock := security.SystemClock{}
	ids := security.UUIDGenerator{}

	issuer, err := security.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL, clock, ids)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	tokenStore := postgresrepo.NewRefreshTokenRepository(pool)
	permissionSource := postgresrepo.NewEndpointPermissionRepository(pool)
	credentials := postgresrepo.NewUserCredentialRepository(pool)

	tokenCache := redisrepo.NewTokenCacheRepository(redisClient.Client(), cfg.Redis.TokenCachePrefix)
	blacklistStore := redisrepo.NewBlacklistRepository(redisClient.Client(), cfg.Redis.BlacklistPrefix)
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), cfg.Redis.RateLimitPrefix)

	// Kafka is optional: without brokers the runtime logs revocations locally.
	var (
		publisher port.RevocationEventPublisher
		producer  *kafkainfra.Producer
		consumer  *kafkainfra.RevocationConsumerGroup
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			publisher = kafkainfra.NewStubPublisher(log)
		} else {
			publisher = kafkainfra.NewRevocationPublisher(producer, cfg.App.Name, log)
		}

		if cfg.Kafka.ConsumeEnabled {
			handler := kafkainfra.NewRevocationConsumer(blacklistStore, cfg.App.Name, log)
			consumer, err = kafkainfra.NewRevocationConsumerGroup(cfg.Kafka, handler, log)
			if err != nil {
				log.Warn("failed to join revocation consumer group", zap.Error(err))
				consumer = nil
			}
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		publisher = kafkainfra.NewStubPublisher(log)
	}

	sessions := usecase.NewSessionStore(tokenStore, tokenCache, clock, cfg.JWT.RefreshTokenTTL, log)
	blacklist := usecase.NewBlacklistService(blacklistStore, publisher, clock, log)
	rateLimits := usecase.NewRateLimitService(rateLimitStore, log)

	resolverMetrics, err := metrics.NewResolverMetrics(nil)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init resolver metrics: %w", err)
	}
	resolver := usecase.NewPermissionResolver(permissionSource, resolverMetrics, log)

	verifier := security.NewArgonCredentialVerifier(credentials)
	authService := usecase.NewAuthService(verifier, issuer, sessions, blacklist, clock, log)

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	rateLimiter := middleware.NewRateLimiter(rateLimits, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Metrics:     httpMetrics,
		RateLimiter: rateLimiter,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:       authService,
			RateLimits: rateLimits,
			Blacklist:  blacklist,
			Resolver:   resolver,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		resolver: resolver,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	// Load the permission snapshot before serving; deny-by-default makes an
	// empty snapshot a full outage for protected services.
	if err := a.resolver.Reload(ctx); err != nil {
		a.logger.Warn("initial permission load failed, serving empty snapshot", zap.Error(err))
	}
	a.resolver.StartSync(ctx, a.cfg.Permissions.SyncInterval)

	consumerErrCh := make(chan error, 1)
	if a.consumer != nil {
		go func() {
			if err := a.consumer.Run(ctx); err != nil {
				consumerErrCh <- err
			}
		}()
		defer func() {
			_ = a.consumer.Close()
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting access-control runtime",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-consumerErrCh:
		return err
	}
}
