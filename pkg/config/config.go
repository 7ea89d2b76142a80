package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	WhatsApp     WhatsAppConfig
	Lookup       LookupConfig
	Payment      PaymentConfig
	Campaign     CampaignConfig
	Company      CompanyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREBOT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREBOT_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"STOREBOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREBOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREBOT_DB_DSN"`
	Driver string `envconfig:"STOREBOT_DB_DRIVER" default:"postgres"`

	SQLitePath string `envconfig:"STOREBOT_SQLITE_PATH" default:"data/storebot.db"`

	LegacyHost     string `envconfig:"STOREBOT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREBOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREBOT_DB_USER"`
	LegacyPassword string `envconfig:"STOREBOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREBOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREBOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREBOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREBOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREBOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREBOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREBOT_REDIS_URL"`
	Address      string        `envconfig:"STOREBOT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREBOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREBOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREBOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREBOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREBOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREBOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREBOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREBOT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREBOT_JWT_ISSUER" default:"storebot"`
	ExpirationMinutes int    `envconfig:"STOREBOT_JWT_EXPIRATION_MINUTES" default:"480"`
}

// Expiration returns the configured access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREBOT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREBOT_AUTO_MIGRATE" default:"false"`
}

type WhatsAppConfig struct {
	GatewayURL   string `envconfig:"STOREBOT_WA_GATEWAY_URL" required:"true"`
	Session      string `envconfig:"STOREBOT_WA_SESSION" default:"bot-vendas"`
	GatewayToken string `envconfig:"STOREBOT_WA_GATEWAY_TOKEN"`
	WebhookToken string `envconfig:"STOREBOT_WA_WEBHOOK_TOKEN"`
}

type LookupConfig struct {
	BaseURL string `envconfig:"STOREBOT_LOOKUP_BASE_URL" default:"https://brasilapi.com.br"`
	Timeout time.Duration `envconfig:"STOREBOT_LOOKUP_TIMEOUT" default:"10s"`
}

type PaymentConfig struct {
	BaseURL     string        `envconfig:"STOREBOT_PAYMENT_BASE_URL" default:"https://api.mercadopago.com"`
	AccessToken string        `envconfig:"STOREBOT_PAYMENT_ACCESS_TOKEN"`
	Timeout     time.Duration `envconfig:"STOREBOT_PAYMENT_TIMEOUT" default:"15s"`
}

type CampaignConfig struct {
	SendDelay time.Duration `envconfig:"STOREBOT_CAMPAIGN_SEND_DELAY" default:"2500ms"`
}

type CompanyConfig struct {
	Name string `envconfig:"STOREBOT_COMPANY_NAME" default:"YUP"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || strings.EqualFold(db.Driver, DriverSQLite) {
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
