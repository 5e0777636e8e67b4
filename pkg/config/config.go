package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App            AppConfig
	Service        ServiceConfig
	DB             DBConfig
	Redis          RedisConfig
	JWT            JWTConfig
	FeatureFlags   FeatureFlagsConfig
	GCP            GCPConfig
	PubSub         PubSubConfig
	BigQuery       BigQueryConfig
	Outbox         OutboxConfig
	Orders         OrdersConfig
	Pricing        PricingConfig
	Automation     AutomationConfig
	Reconciliation ReconciliationConfig
	Cron           CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if !cfg.Automation.Mode.IsValid() {
		return nil, fmt.Errorf("%s must be one of inline, async", EnvAutomationMode)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BACKOFFICE_APP_ENV" required:"true"`
	Port         string `envconfig:"BACKOFFICE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BACKOFFICE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BACKOFFICE_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"BACKOFFICE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BACKOFFICE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BACKOFFICE_DB_DSN"`
	Driver string `envconfig:"BACKOFFICE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BACKOFFICE_DB_HOST"`
	LegacyPort     int    `envconfig:"BACKOFFICE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BACKOFFICE_DB_USER"`
	LegacyPassword string `envconfig:"BACKOFFICE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BACKOFFICE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BACKOFFICE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BACKOFFICE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BACKOFFICE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BACKOFFICE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BACKOFFICE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialector should be used.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"BACKOFFICE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BACKOFFICE_REDIS_ADDR"`
	Password     string        `envconfig:"BACKOFFICE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BACKOFFICE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BACKOFFICE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BACKOFFICE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BACKOFFICE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BACKOFFICE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BACKOFFICE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BACKOFFICE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BACKOFFICE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BACKOFFICE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BACKOFFICE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BACKOFFICE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BACKOFFICE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BACKOFFICE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BACKOFFICE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic            string `envconfig:"BACKOFFICE_PUBSUB_ORDERS_TOPIC" default:"bo-order-events"`
	InventoryTopic         string `envconfig:"BACKOFFICE_PUBSUB_INVENTORY_TOPIC" default:"bo-inventory-events"`
	AutomationSubscription string `envconfig:"BACKOFFICE_PUBSUB_AUTOMATION_SUBSCRIPTION" default:"bo-order-automation"`
}

type BigQueryConfig struct {
	Dataset           string `envconfig:"BACKOFFICE_BIGQUERY_DATASET" default:"backoffice"`
	DebtSnapshotTable string `envconfig:"BACKOFFICE_BIGQUERY_DEBT_SNAPSHOT_TABLE" default:"customer_debt_snapshots"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BACKOFFICE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BACKOFFICE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BACKOFFICE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"BACKOFFICE_OUTBOX_RETENTION_DAYS" default:"30"`
}

type OrdersConfig struct {
	CodeWidth int `envconfig:"BACKOFFICE_ORDER_CODE_WIDTH" default:"6"`
}

type PricingConfig struct {
	FlatShippingFee       string   `envconfig:"BACKOFFICE_PRICING_FLAT_SHIPPING_FEE" default:"10.00"`
	FreeShippingThreshold string   `envconfig:"BACKOFFICE_PRICING_FREE_SHIPPING_THRESHOLD" default:"500.00"`
	FreeShippingChannels  []string `envconfig:"BACKOFFICE_PRICING_FREE_SHIPPING_CHANNELS" default:"pos,pickup"`
}

// AutomationMode selects how status-change side effects are dispatched.
type AutomationMode string

const (
	AutomationInline AutomationMode = "inline"
	AutomationAsync  AutomationMode = "async"
)

func (m AutomationMode) IsValid() bool {
	return m == AutomationInline || m == AutomationAsync
}

type AutomationConfig struct {
	Mode           AutomationMode `envconfig:"BACKOFFICE_AUTOMATION_MODE" default:"inline"`
	IdempotencyTTL time.Duration  `envconfig:"BACKOFFICE_AUTOMATION_IDEMPOTENCY_TTL" default:"720h"`
	ClaimTTL       time.Duration  `envconfig:"BACKOFFICE_AUTOMATION_CLAIM_TTL" default:"2m"`
}

type ReconciliationConfig struct {
	Interval      time.Duration `envconfig:"BACKOFFICE_RECONCILIATION_INTERVAL" default:"15m"`
	MinAgeMinutes int           `envconfig:"BACKOFFICE_RECONCILIATION_MIN_AGE_MINUTES" default:"30"`
	MinQuantity   int           `envconfig:"BACKOFFICE_RECONCILIATION_MIN_QUANTITY" default:"1"`
	Limit         int           `envconfig:"BACKOFFICE_RECONCILIATION_LIMIT" default:"500"`
}

type CronConfig struct {
	Tick              time.Duration `envconfig:"BACKOFFICE_CRON_TICK" default:"1m"`
	LockTTL           time.Duration `envconfig:"BACKOFFICE_CRON_LOCK_TTL" default:"10m"`
	DriftAuditEvery   time.Duration `envconfig:"BACKOFFICE_CRON_DRIFT_AUDIT_EVERY" default:"6h"`
	DebtSnapshotEvery time.Duration `envconfig:"BACKOFFICE_CRON_DEBT_SNAPSHOT_EVERY" default:"24h"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
	}
	if db.IsSQLite() {
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
