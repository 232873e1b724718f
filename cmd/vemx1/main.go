package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vemx1/vemx1/modules/billing"
	"github.com/vemx1/vemx1/pkg/accounts"
	"github.com/vemx1/vemx1/pkg/audit"
	pkgbilling "github.com/vemx1/vemx1/pkg/billing"
	"github.com/vemx1/vemx1/pkg/clientip"
	"github.com/vemx1/vemx1/pkg/config"
	"github.com/vemx1/vemx1/pkg/httpserver"
	"github.com/vemx1/vemx1/pkg/logger"
	"github.com/vemx1/vemx1/pkg/mongo"
	"github.com/vemx1/vemx1/pkg/pg"
	"github.com/vemx1/vemx1/pkg/ratelimiter"
	"github.com/vemx1/vemx1/pkg/redis"
	"github.com/vemx1/vemx1/pkg/requestid"
	"github.com/vemx1/vemx1/pkg/subscription"
)

func main() {
	var cfg settings
	if err := config.Load(&cfg); err != nil {
		slog.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	log := logger.New(
		logger.WithEnvironment(cfg.App.Env, cfg.App.ServiceName),
		logger.WithLevelName(cfg.App.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
		logger.WithRedactedKeys("hottok", "authorization", "access_token", "x-signature"),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// deps holds the connections opened at startup.
type deps struct {
	mongo     *mongodriver.Client
	firestore *firestore.Client
	redis     *goredis.Client
	pg        *pgxpool.Pool
	auditLog  *audit.AsyncWriter
	limits    *ratelimiter.MemoryStore
	checks    []httpserver.Check
}

func (d *deps) close(ctx context.Context, log *slog.Logger) {
	if d.auditLog != nil {
		if err := d.auditLog.Close(ctx); err != nil {
			log.WarnContext(ctx, "failed to drain audit queue", logger.Error(err))
		}
	}
	if d.limits != nil {
		d.limits.Close()
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.WarnContext(ctx, "failed to close redis", logger.Error(err))
		}
	}
	if d.pg != nil {
		d.pg.Close()
	}
	if d.firestore != nil {
		if err := d.firestore.Close(); err != nil {
			log.WarnContext(ctx, "failed to close firestore", logger.Error(err))
		}
	}
	if d.mongo != nil {
		if err := d.mongo.Disconnect(ctx); err != nil {
			log.WarnContext(ctx, "failed to disconnect mongodb", logger.Error(err))
		}
	}
}

func run(ctx context.Context, cfg settings, log *slog.Logger) error {
	d := &deps{}
	defer d.close(context.WithoutCancel(ctx), log)

	store, err := openAccountStore(ctx, cfg, d, log)
	if err != nil {
		return err
	}

	auditor, err := openAuditLog(ctx, cfg, d, log)
	if err != nil {
		return err
	}

	catalog, err := subscription.LoadCatalog(cfg.Catalog.CatalogFile)
	if err != nil {
		return err
	}

	providers, err := buildProviders(cfg, catalog, log)
	if err != nil {
		return err
	}
	registry := pkgbilling.NewRegistry(subscription.Provider(cfg.Billing.CheckoutProvider), providers...)

	opts := []subscription.ReconcilerOption{
		subscription.WithLogger(log),
		subscription.WithTrialDays(cfg.Catalog.TrialDays),
	}
	if auditor != nil {
		opts = append(opts, subscription.WithAuditor(auditor))
	}
	reconciler := subscription.NewReconciler(store, opts...)

	limiter, err := buildLimiter(ctx, cfg, d, log)
	if err != nil {
		return err
	}

	router := billing.Router(billing.RouterOptions{
		Webhooks:     billing.NewWebhookService(cfg.Billing, registry, reconciler, log),
		Subscription: billing.NewSubscriptionService(store, reconciler, registry, log),
		Checkout:     billing.NewCheckoutService(cfg.Billing, registry, log),
		AdminToken:   cfg.Billing.AdminToken,
		Limiter:      limiter,
		Readiness:    httpserver.ReadinessHandler(log, cfg.App.ReadinessTimeout, d.checks...),
		Logger:       log,
	})

	if cfg.Billing.AdminToken == "" {
		log.WarnContext(ctx, "ADMIN_API_TOKEN is not set, admin routes are unauthenticated")
	}
	log.InfoContext(ctx, "starting subscription service",
		slog.String("store", cfg.App.StoreBackend),
		slog.String("audit", cfg.App.AuditBackend),
		slog.Any("providers", registry.Names()),
	)

	srvOpts := []httpserver.Option{httpserver.WithLogger(log)}
	if d.auditLog != nil {
		srvOpts = append(srvOpts, httpserver.OnShutdown(d.auditLog.Close))
	}
	return httpserver.New(cfg.HTTP, srvOpts...).Run(ctx, router)
}

func openAccountStore(ctx context.Context, cfg settings, d *deps, log *slog.Logger) (subscription.AccountStore, error) {
	switch cfg.App.StoreBackend {
	case backendMongo:
		client, err := connectMongo(ctx, cfg, d)
		if err != nil {
			return nil, err
		}
		store := accounts.NewMongoStore(client.Database(cfg.Mongo.Database))
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure account indexes: %w", err)
		}
		return store, nil

	case backendFirestore:
		client, err := accounts.NewFirestoreClient(ctx, cfg.App.FirestoreProjectID)
		if err != nil {
			return nil, err
		}
		d.firestore = client
		d.checks = append(d.checks, httpserver.Check{Name: "firestore", Fn: accounts.FirestoreHealthcheck(client)})
		return accounts.NewFirestoreStore(client), nil

	default:
		log.WarnContext(ctx, "using in-memory account store, records are lost on restart")
		return subscription.NewMemoryStore(), nil
	}
}

func openAuditLog(ctx context.Context, cfg settings, d *deps, log *slog.Logger) (subscription.Auditor, error) {
	var storage audit.BatchStorage
	switch cfg.App.AuditBackend {
	case backendNone:
		return nil, nil

	case backendMongo:
		client, err := connectMongo(ctx, cfg, d)
		if err != nil {
			return nil, err
		}
		s := audit.NewMongoStorage(client.Database(cfg.Mongo.Database))
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure audit indexes: %w", err)
		}
		storage = s

	case backendPostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		d.pg = pool
		d.checks = append(d.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})
		if err := pg.Migrate(ctx, pool, audit.Migrations, audit.MigrationsDir, cfg.Postgres, log); err != nil {
			return nil, err
		}
		storage = audit.NewPostgresStorage(pool)

	default:
		storage = audit.NewMemoryStorage()
	}

	opts := []audit.Option{
		audit.WithRequestIDExtractor(requestid.FromContext),
		audit.WithIPExtractor(clientip.FromContext),
	}
	if !cfg.App.AuditAsync {
		return audit.NewLogger(storage, opts...), nil
	}
	d.auditLog = audit.NewAsyncWriter(storage, audit.AsyncOptions{}, log)
	return audit.NewLogger(d.auditLog, opts...), nil
}

// connectMongo opens the shared MongoDB client once for both the account
// store and the audit log.
func connectMongo(ctx context.Context, cfg settings, d *deps) (*mongodriver.Client, error) {
	if d.mongo != nil {
		return d.mongo, nil
	}
	client, err := mongo.New(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	d.mongo = client
	d.checks = append(d.checks, httpserver.Check{Name: "mongodb", Fn: mongo.Healthcheck(client)})
	return client, nil
}

func buildProviders(cfg settings, catalog *subscription.Catalog, log *slog.Logger) ([]pkgbilling.Provider, error) {
	var providers []pkgbilling.Provider

	if cfg.Hotmart.Enabled() {
		p, err := pkgbilling.NewHotmart(cfg.Hotmart, catalog)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if cfg.MercadoPago.Enabled() {
		mp := cfg.MercadoPago
		if cfg.App.Env == "development" {
			mp.AllowUnsigned = true
		}
		p, err := pkgbilling.NewMercadoPago(mp, catalog)
		if err != nil {
			return nil, err
		}
		if p.Unsigned() {
			log.Warn("MERCADOPAGO_WEBHOOK_SECRET is not set, mercado pago webhooks are not verified",
				slog.String("env", cfg.App.Env))
		}
		providers = append(providers, p)
	}
	if cfg.Paddle.Enabled() {
		p, err := pkgbilling.NewPaddle(cfg.Paddle, catalog)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		log.Warn("no billing provider configured, webhooks will answer 404")
	}
	return providers, nil
}

func buildLimiter(ctx context.Context, cfg settings, d *deps, log *slog.Logger) (*ratelimiter.Bucket, error) {
	var store ratelimiter.Store
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		d.redis = client
		d.checks = append(d.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
		store = ratelimiter.NewRedisStore(client, cfg.RateLimit.KeyPrefix)
	} else {
		log.InfoContext(ctx, "REDIS_URL is not set, rate limits are per instance")
		d.limits = ratelimiter.NewMemoryStore()
		store = d.limits
	}

	limiter, err := ratelimiter.NewBucket(store, cfg.RateLimit.Config())
	if err != nil {
		return nil, errors.Join(config.ErrInvalidConfig, err)
	}
	return limiter, nil
}
