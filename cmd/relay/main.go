package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/af-corp/debug-relay/internal/analysis"
	"github.com/af-corp/debug-relay/internal/audit"
	"github.com/af-corp/debug-relay/internal/auth"
	"github.com/af-corp/debug-relay/internal/config"
	"github.com/af-corp/debug-relay/internal/filter"
	"github.com/af-corp/debug-relay/internal/filter/injection"
	"github.com/af-corp/debug-relay/internal/filter/policy"
	"github.com/af-corp/debug-relay/internal/filter/secrets"
	"github.com/af-corp/debug-relay/internal/ratelimit"
	"github.com/af-corp/debug-relay/internal/relay"
	"github.com/af-corp/debug-relay/internal/telemetry"
	"github.com/af-corp/debug-relay/internal/upstream"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the configuration (optional)")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration
	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	cfg := loader.Config()
	setLevel(level, cfg.Telemetry.LogLevel)

	// Connect to Redis (optional: rate limits, quota and the principal cache fail open)
	var rdb *redis.Client
	if len(cfg.Redis.Addresses) > 0 && cfg.Redis.Addresses[0] != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addresses[0],
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable (limits and auth cache disabled)", "error", err)
			rdb.Close()
			rdb = nil
		} else {
			logger.Info("redis connected")
			defer rdb.Close()
		}
	}

	// Connect to PostgreSQL (optional audit ledger)
	var recorder audit.Recorder = audit.Nop{}
	var auditStore *audit.Store
	var dbPool *pgxpool.Pool
	if cfg.Database.Enabled {
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			logger.Error("invalid database config", "error", err)
			os.Exit(1)
		}
		if cfg.Database.MaxConns > 0 {
			poolCfg.MaxConns = cfg.Database.MaxConns
		}
		dbPool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		if err := dbPool.Ping(context.Background()); err != nil {
			logger.Warn("database not reachable (audit rows will be dropped)", "error", err)
		} else {
			logger.Info("database connected")
		}
		auditStore = audit.NewStore(dbPool)
		recorder = auditStore
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	validator, err := buildValidator(cfg.Auth)
	if err != nil {
		logger.Error("failed to build token validator", "error", err)
		os.Exit(1)
	}
	validator = auth.NewCachedValidator(validator, rdb, cfg.Auth.CacheTTL)

	// Content filters read their config on every request so reloads apply.
	policyEval := policy.NewEvaluator(func() config.PolicyFilterConfig { return loader.Config().Filter.Policy })
	if cfg.Filter.Policy.Enabled {
		if err := policyEval.Load(); err != nil {
			logger.Error("failed to load policies (requests will be denied)", "error", err)
		}
	}
	chain := filter.NewChain(
		secrets.NewScanner(func() config.SecretsFilterConfig { return loader.Config().Filter.Secrets }),
		injection.NewScanner(func() config.InjectionFilterConfig { return loader.Config().Filter.Injection }),
		policyEval,
	)

	loader.OnReload(func() {
		c := loader.Config()
		setLevel(level, c.Telemetry.LogLevel)
		if c.Filter.Policy.Enabled {
			if err := policyEval.Load(); err != nil {
				logger.Error("failed to reload policies, keeping previous", "error", err)
			}
		}
		logger.Info("relay configuration reloaded")
	})

	upstreamCfg := func() config.UpstreamConfig { return loader.Config().Upstream }
	upstreamClient := upstream.NewClient(upstreamCfg, nil)
	if !upstreamClient.Configured() {
		logger.Warn("upstream api_key not set; analysis requests will fail with 500")
	}

	// The catalog is immutable; model and length limit changes need a restart.
	catalog := analysis.NewCatalog(cfg.Upstream.Model, cfg.Limits.MaxContentLength)

	deps := relay.Deps{
		Catalog:           catalog,
		Upstream:          upstreamClient,
		Filters:           chain,
		Audit:             recorder,
		Metrics:           metrics,
		MaxBodyBytes:      func() int64 { return loader.Config().Limits.MaxBodyBytes },
		DailyContentChars: func() int64 { return loader.Config().Limits.DailyContentChars },
	}
	if rdb != nil {
		deps.Quota = ratelimit.NewQuotaTracker(rdb)
	}
	handler := relay.NewHandler(deps)

	health := &relay.Health{Version: version, Checks: map[string]relay.Check{
		"upstream": upstreamClient.Ready,
	}}
	if rdb != nil {
		health.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if dbPool != nil {
		health.Checks["database"] = dbPool.Ping
	}

	routerCfg := relay.RouterConfig{
		BasePath:          cfg.Server.BasePath,
		CORS:              cfg.CORS,
		Validator:         validator,
		Metrics:           metrics,
		Limiter:           ratelimit.NewLimiter(rdb),
		RequestsPerMinute: func() int { return loader.Config().Limits.RequestsPerMinute },
		Health:            health,
	}
	if cfg.Telemetry.MetricsEnabled {
		routerCfg.MetricsHandler = promhttp.Handler()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      relay.NewRouter(handler, routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay starting",
			"addr", addr,
			"version", version,
			"endpoint", relay.AnalyzePath(cfg.Server.BasePath),
			"auth_mode", cfg.Auth.Mode,
		)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if auditStore != nil {
		auditStore.Wait(ctx)
	}
	logger.Info("relay stopped")
}

func buildValidator(cfg config.AuthConfig) (auth.Validator, error) {
	switch cfg.Mode {
	case config.AuthModeRemote:
		return auth.NewRemoteValidator(cfg.ProviderURL, cfg.AnonKey, &http.Client{Timeout: cfg.Timeout}), nil
	default:
		return auth.NewJWTValidator(cfg)
	}
}

func setLevel(level *slog.LevelVar, name string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		l = slog.LevelInfo
	}
	level.Set(l)
}
