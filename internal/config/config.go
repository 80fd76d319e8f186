package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ServerConfig holds the configuration of the catalog API server.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type ServerConfig struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`      // e.g., debug, info, warn, error
	HttpServer HTTPServerConfig
	GrpcServer GrpcServerConfig
	Postgres   PostgresConfig
	ImageDir   string `envconfig:"IMAGE_DIR"` // served at /images/products/ when set
}

// HTTPServerConfig holds HTTP server-specific configurations.
type HTTPServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port           string        `envconfig:"GRPC_SERVER_PORT" default:"9090"`
	HealthInterval time.Duration `envconfig:"GRPC_HEALTH_INTERVAL" default:"10s"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DBNAME" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// BrowserConfig holds the configuration of the operator console.
type BrowserConfig struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	APIBaseURL        string        `envconfig:"POS_API_BASE_URL" default:"http://localhost:8080"`
	ImageBaseURL      string        `envconfig:"POS_IMAGE_BASE_URL"` // defaults to {POS_API_BASE_URL}/images/products
	Locale            string        `envconfig:"POS_LOCALE" default:"en-US"`
	Currency          string        `envconfig:"POS_CURRENCY" default:"USD"`
	NotificationTTL   time.Duration `envconfig:"POS_NOTIFICATION_TTL" default:"6s"`
	ImageProbeTimeout time.Duration `envconfig:"POS_IMAGE_PROBE_TIMEOUT" default:"5s"`
}

// LoadDotEnv applies a .env file from the working directory when one exists.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
}

// LoadServer reads the API server configuration from the environment.
func LoadServer() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process server configuration: %w", err)
	}
	return &cfg, nil
}

// LoadBrowser reads the console configuration from the environment and derives the image base.
func LoadBrowser() (*BrowserConfig, error) {
	var cfg BrowserConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process browser configuration: %w", err)
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if err := validateBaseURL("POS_API_BASE_URL", cfg.APIBaseURL); err != nil {
		return nil, err
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = cfg.APIBaseURL + "/images/products"
	}
	cfg.ImageBaseURL = strings.TrimRight(cfg.ImageBaseURL, "/")
	if err := validateBaseURL("POS_IMAGE_BASE_URL", cfg.ImageBaseURL); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: %w", name, raw, errors.New("scheme must be http or https"))
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s %q: %w", name, raw, errors.New("missing host"))
	}
	return nil
}
