package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "VITRINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Bling        BlingConfig
	MercadoPago  MercadoPagoConfig
	Shopify      ShopifyConfig
	Content      ContentConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VITRINE_APP_ENV" default:"dev"`
	Port         string `envconfig:"VITRINE_APP_PORT" default:"8080"`
	BaseURL      string `envconfig:"VITRINE_APP_BASE_URL" default:"http://localhost:8080"`
	AdminURL     string `envconfig:"VITRINE_ADMIN_URL" default:"/admin/integracoes"`
	LogLevel     string `envconfig:"VITRINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VITRINE_LOG_WARN_STACK" default:"false"`
	StateSecret  string `envconfig:"VITRINE_STATE_SECRET"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VITRINE_DB_DSN"`
	Driver string `envconfig:"VITRINE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VITRINE_DB_HOST"`
	Port     int    `envconfig:"VITRINE_DB_PORT" default:"5432"`
	User     string `envconfig:"VITRINE_DB_USER"`
	Password string `envconfig:"VITRINE_DB_PASSWORD"`
	Name     string `envconfig:"VITRINE_DB_NAME"`
	SSLMode  string `envconfig:"VITRINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VITRINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VITRINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VITRINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VITRINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// Configured reports whether any persistent store has been pointed at.
// Without one the API serves the in-process demo dataset.
func (db DBConfig) Configured() bool {
	return db.DSN != "" || db.Host != ""
}

func (db *DBConfig) normalize() error {
	if db.DSN != "" || db.Host == "" {
		return nil
	}

	if db.User == "" || db.Name == "" {
		return fmt.Errorf("VITRINE_DB_USER and VITRINE_DB_NAME are required when VITRINE_DB_HOST is set")
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"VITRINE_REDIS_URL"`
	Address      string        `envconfig:"VITRINE_REDIS_ADDR"`
	Password     string        `envconfig:"VITRINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"VITRINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VITRINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VITRINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VITRINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VITRINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VITRINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VITRINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VITRINE_AUTO_MIGRATE" default:"false"`
}

type BlingConfig struct {
	ClientID     string        `envconfig:"VITRINE_BLING_CLIENT_ID"`
	ClientSecret string        `envconfig:"VITRINE_BLING_CLIENT_SECRET"`
	RedirectURL  string        `envconfig:"VITRINE_BLING_REDIRECT_URL"`
	APIURL       string        `envconfig:"VITRINE_BLING_API_URL" default:"https://api.bling.com.br/Api/v3"`
	AuthURL      string        `envconfig:"VITRINE_BLING_AUTH_URL" default:"https://www.bling.com.br/Api/v3/oauth/authorize"`
	TokenURL     string        `envconfig:"VITRINE_BLING_TOKEN_URL" default:"https://www.bling.com.br/Api/v3/oauth/token"`
	TokenTimeout time.Duration `envconfig:"VITRINE_BLING_TOKEN_TIMEOUT" default:"15s"`
}

func (b BlingConfig) Configured() bool {
	return b.ClientID != "" && b.ClientSecret != ""
}

type MercadoPagoConfig struct {
	AccessToken   string `envconfig:"VITRINE_MP_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"VITRINE_MP_WEBHOOK_SECRET"`
	APIURL        string `envconfig:"VITRINE_MP_API_URL" default:"https://api.mercadopago.com"`
}

func (m MercadoPagoConfig) Configured() bool {
	return m.AccessToken != ""
}

type ShopifyConfig struct {
	StoreDomain string `envconfig:"VITRINE_SHOPIFY_STORE_DOMAIN"`
	AccessToken string `envconfig:"VITRINE_SHOPIFY_ACCESS_TOKEN"`
}

type ContentConfig struct {
	FilePath string `envconfig:"VITRINE_CONTENT_FILE" default:"data/content.json"`
}
