package main

import (
	"time"

	"github.com/vemx1/vemx1/modules/billing"
	pkgbilling "github.com/vemx1/vemx1/pkg/billing"
	"github.com/vemx1/vemx1/pkg/httpserver"
	"github.com/vemx1/vemx1/pkg/mongo"
	"github.com/vemx1/vemx1/pkg/pg"
	"github.com/vemx1/vemx1/pkg/ratelimiter"
	"github.com/vemx1/vemx1/pkg/redis"
	"github.com/vemx1/vemx1/pkg/subscription"
)

// Storage backends.
const (
	backendMongo     = "mongo"
	backendFirestore = "firestore"
	backendPostgres  = "postgres"
	backendMemory    = "memory"
	backendNone      = "none"
)

// appConfig selects the environment and backends. Connection details live in
// the per-package configs.
type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development" validate:"oneof=development staging production"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"vemx1"`
	LogLevel    string `env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`

	StoreBackend       string `env:"STORE_BACKEND" envDefault:"memory" validate:"oneof=mongo firestore memory"`
	FirestoreProjectID string `env:"FIRESTORE_PROJECT_ID" validate:"required_if=StoreBackend firestore"`

	AuditBackend string `env:"AUDIT_BACKEND" envDefault:"memory" validate:"oneof=mongo postgres memory none"`
	AuditAsync   bool   `env:"AUDIT_ASYNC" envDefault:"true"`

	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"3s" validate:"gt=0"`
}

// settings groups every configuration section the service reads. Sections
// are parsed from the environment and validated in one pass by config.Load.
type settings struct {
	App         appConfig
	HTTP        httpserver.Config
	Billing     billing.Config
	Catalog     subscription.CatalogConfig
	RateLimit   ratelimiter.EnvConfig
	Mongo       mongo.Config
	Redis       redis.Config
	Postgres    pg.Config
	Hotmart     pkgbilling.HotmartConfig
	MercadoPago pkgbilling.MercadoPagoConfig
	Paddle      pkgbilling.PaddleConfig
}
