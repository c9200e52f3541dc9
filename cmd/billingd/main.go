// billingd runs the subscription and entitlement engine as a standalone
// HTTP service. Every dependency is selected through environment variables
// so the same binary serves local development (in-memory store, log-only
// notifications) and production (Postgres or Mongo, Redis dedup, Postmark).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/liguepro/billing/internal/httpapi"
	"github.com/liguepro/billing/pkg/account"
	"github.com/liguepro/billing/pkg/config"
	"github.com/liguepro/billing/pkg/entitlement"
	"github.com/liguepro/billing/pkg/gateway"
	"github.com/liguepro/billing/pkg/httpserver"
	"github.com/liguepro/billing/pkg/logger"
	"github.com/liguepro/billing/pkg/notify"
	"github.com/liguepro/billing/pkg/plan"
	"github.com/liguepro/billing/pkg/quota"
	"github.com/liguepro/billing/pkg/subscription"
)

type appConfig struct {
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Store selects the account persistence backend: memory, postgres, mongo.
	Store string `env:"BILLING_STORE" envDefault:"memory"`
	// Gateway selects the payment provider adapter: rest, paddle.
	Gateway string `env:"BILLING_GATEWAY" envDefault:"rest"`

	WebhookToken string `env:"BILLING_WEBHOOK_TOKEN,required"`

	// PlansFile overrides the built-in catalog with a YAML file.
	PlansFile string `env:"BILLING_PLANS_FILE"`

	// RedisURL enables Redis-backed webhook dedup when set.
	RedisURL string        `env:"REDIS_URL"`
	DedupTTL time.Duration `env:"BILLING_DEDUP_TTL" envDefault:"48h"`

	// PostmarkEnabled switches lifecycle emails from log-only to Postmark.
	PostmarkEnabled bool `env:"POSTMARK_ENABLED" envDefault:"false"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := newLogger(cfg)

	catalog, err := newCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	store, readyChecks, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	dedup, err := newDedup(ctx, cfg)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(cfg, store, log)
	if err != nil {
		return err
	}

	counter := quota.NewCounter(store, quota.WithLogger(log))
	gate := entitlement.NewGate(catalog, store, counter, entitlement.WithLogger(log))
	subs := subscription.NewService(store, catalog, provider,
		subscription.WithWebhookToken(cfg.WebhookToken),
		subscription.WithDedupStore(dedup),
		subscription.WithNotifier(notifier),
		subscription.WithLogger(log),
	)

	handler := httpapi.NewRouter(httpapi.Deps{
		Subscriptions: subs,
		Entitlements:  gate,
		Logger:        log,
		ReadyChecks:   readyChecks,
	})

	srv := httpserver.New(
		httpserver.WithAddr(cfg.HTTPAddr),
		httpserver.WithLogger(log),
		httpserver.WithShutdownTimeout(10*time.Second),
	)
	return srv.Run(ctx, handler)
}

func newLogger(cfg appConfig) *slog.Logger {
	opts := []logger.Option{
		logger.WithService("billingd"),
		logger.WithLevel(parseLevel(cfg.LogLevel)),
	}
	if cfg.AppEnv == "development" {
		opts = append(opts, logger.WithDevelopment())
	}
	return logger.New(opts...)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func newCatalog(ctx context.Context, cfg appConfig) (*plan.Catalog, error) {
	src := plan.DefaultSource()
	if cfg.PlansFile != "" {
		src = plan.NewYAMLSource(cfg.PlansFile)
	}
	return plan.NewCatalog(ctx, src)
}

func newStore(ctx context.Context, cfg appConfig, log *slog.Logger) (account.Store, []func(context.Context) error, error) {
	switch strings.ToLower(cfg.Store) {
	case "memory", "":
		return account.NewMemoryStore(), nil, nil

	case "postgres":
		var pgCfg account.PGConfig
		if err := config.Load(&pgCfg); err != nil {
			return nil, nil, err
		}
		pool, err := account.ConnectPG(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := account.MigratePG(ctx, pool, pgCfg, log); err != nil {
			return nil, nil, err
		}
		return account.NewPGStore(pool), []func(context.Context) error{pool.Ping}, nil

	case "mongo":
		var mCfg account.MongoConfig
		if err := config.Load(&mCfg); err != nil {
			return nil, nil, err
		}
		store, err := account.ConnectMongo(ctx, mCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, []func(context.Context) error{store.Ping}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}

func newProvider(cfg appConfig) (gateway.Provider, error) {
	switch strings.ToLower(cfg.Gateway) {
	case "rest", "":
		var restCfg gateway.RESTConfig
		if err := config.Load(&restCfg); err != nil {
			return nil, err
		}
		return gateway.NewRESTProvider(restCfg)

	case "paddle":
		var paddleCfg gateway.PaddleConfig
		if err := config.Load(&paddleCfg); err != nil {
			return nil, err
		}
		return gateway.NewPaddleProvider(paddleCfg)

	default:
		return nil, fmt.Errorf("unknown billing gateway %q", cfg.Gateway)
	}
}

func newDedup(ctx context.Context, cfg appConfig) (subscription.DedupStore, error) {
	if cfg.RedisURL == "" {
		return subscription.NewMemoryDedup(), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return subscription.NewRedisDedup(client, cfg.DedupTTL), nil
}

func newNotifier(cfg appConfig, store account.Store, log *slog.Logger) (notify.Notifier, error) {
	if !cfg.PostmarkEnabled {
		return notify.NewLogNotifier(log), nil
	}
	var pmCfg notify.Config
	if err := config.Load(&pmCfg); err != nil {
		return nil, err
	}
	return notify.NewPostmarkNotifier(pmCfg, accountEmailResolver(store))
}

// accountEmailResolver looks up the billing contact captured at checkout.
func accountEmailResolver(store account.Store) notify.RecipientResolver {
	return func(ctx context.Context, accountID uuid.UUID) (string, error) {
		a, err := store.GetByID(ctx, accountID)
		if err != nil {
			return "", err
		}
		if a.Email == "" {
			return "", fmt.Errorf("account %s has no billing contact", accountID)
		}
		return a.Email, nil
	}
}
