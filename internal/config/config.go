package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDR" env-default:":8080"`
}

// Storefront is the remote cart/order service that owns the data.
type Storefront struct {
	BaseURL       string        `yaml:"STOREFRONT_API_URL" env:"STOREFRONT_API_URL" env-required:"true"`
	Timeout       time.Duration `yaml:"STOREFRONT_TIMEOUT" env:"STOREFRONT_TIMEOUT" env-default:"10s"`
	MaxRetries    uint64        `yaml:"STOREFRONT_MAX_RETRIES" env:"STOREFRONT_MAX_RETRIES" env-default:"2"`
	RetryInterval time.Duration `yaml:"STOREFRONT_RETRY_INTERVAL" env:"STOREFRONT_RETRY_INTERVAL" env-default:"200ms"`
}

type Cart struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"CART_REFRESH_INTERVAL" env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"CART_IDLE_TIMEOUT" env-default:"30m"`
}

type Checkout struct {
	ConfirmationTTL time.Duration `yaml:"confirmation_ttl" env:"CHECKOUT_CONFIRMATION_TTL" env-default:"24h"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

// RateConfig bounds how often one shopper may attempt to place an order.
type RateConfig struct {
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"WINDOW_SIZE" env-default:"1m"`
}

type Stripe struct {
	APIKey   string `yaml:"STRIPE_API_KEY" env:"STRIPE_API_KEY" env-default:""`
	Currency string `yaml:"STRIPE_CURRENCY" env:"STRIPE_CURRENCY" env-default:"pkr"`
}

type SendGrid struct {
	APIKey    string `yaml:"API_KEY" env:"SENDGRID_API_KEY" env-default:""`
	FromEmail string `yaml:"FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:""`
	FromName  string `yaml:"FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"Storefront"`
}

type Security struct {
	JWTKey string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
}

type Otel struct {
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"storefront-checkout"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_ENDPOINT" env-default:""`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1.0"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-required:"true"`
	HTTPServer   `yaml:"http_server"`
	Storefront   Storefront   `yaml:"storefront"`
	Cart         Cart         `yaml:"cart"`
	Checkout     Checkout     `yaml:"checkout"`
	RedisConnect RedisConnect `yaml:"redis"`
	RateConfig   RateConfig   `yaml:"rateConfig"`
	Stripe       Stripe       `yaml:"stripe"`
	SendGrid     SendGrid     `yaml:"sendgrid"`
	Security     Security     `yaml:"security"`
	Otel         Otel         `yaml:"otel"`
	Cache        CacheConfig  `yaml:"cache"`
}

func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "path to the YAML config file")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			configPath = "./config/local.yaml"
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return cfg
}

// LoadConfigFromPath reads the YAML file and applies environment overrides.
func LoadConfigFromPath(configPath string) (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", configPath, err)
	}

	return &cfg, nil
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s", r.Username, r.Password, r.Host, r.Port)
}
