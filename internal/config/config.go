package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env       string
	LogLevel  string
	HTTP      HTTPConfig
	MySQL     MySQLConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Firestore FirestoreConfig
	Gateway   GatewayConfig
	Mail      MailConfig
	Auth      AuthConfig
	Billing   BillingConfig
	Orders    OrdersConfig
	Events    EventsConfig
	Tracing   TracingConfig
}

type HTTPConfig struct {
	Port string
}

type MySQLConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type FirestoreConfig struct {
	ProjectID  string
	Collection string
}

type GatewayConfig struct {
	Provider   string
	Timeout    time.Duration
	Currency   string
	SuccessURL string
	FailureURL string
	PendingURL string
	WebhookURL string

	MercadoPagoToken         string
	MercadoPagoBaseURL       string
	MercadoPagoWebhookSecret string

	StripeKey           string
	StripeWebhookSecret string
}

type MailConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	From      string
	StoreName string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type BillingConfig struct {
	TaxRate       decimal.Decimal
	InvoiceType   string
	InvoicePrefix string
}

type OrdersConfig struct {
	StrictTransitions bool
	// StrictTotals rejects orders whose total does not add up; off stores totals as received.
	StrictTotals bool
}

type EventsConfig struct {
	Sink        string
	Origin      string
	QueueSize   int
	Workers     int
	MaxAttempts int
	Backoff     time.Duration
}

type TracingConfig struct {
	ServiceName    string
	JaegerEndpoint string
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	taxRate, err := decimal.NewFromString(getEnv("BILLING_TAX_RATE", "0.21"))
	if err != nil {
		return nil, fmt.Errorf("config: BILLING_TAX_RATE: %w", err)
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTP:     HTTPConfig{Port: getEnv("PORT", "8080")},
		MySQL: MySQLConfig{
			Host:         getEnv("MYSQL_HOST", "localhost"),
			Port:         getEnv("MYSQL_PORT", "3306"),
			User:         getEnv("MYSQL_USER", "root"),
			Password:     os.Getenv("MYSQL_PASSWORD"),
			Database:     getEnv("MYSQL_DATABASE", "commerce"),
			MaxOpenConns: getInt("MYSQL_MAX_OPEN_CONNS", 100),
			MaxIdleConns: getInt("MYSQL_MAX_IDLE_CONNS", 20),
			ConnMaxLife:  getDuration("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      os.Getenv("RABBITMQ_URL"),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "commerce.events"),
		},
		Firestore: FirestoreConfig{
			ProjectID:  os.Getenv("FIRESTORE_PROJECT_ID"),
			Collection: getEnv("FIRESTORE_COLLECTION", "events"),
		},
		Gateway: GatewayConfig{
			Provider:                 strings.ToLower(getEnv("PAYMENT_PROVIDER", "mercadopago")),
			Timeout:                  getDuration("GATEWAY_TIMEOUT", 10*time.Second),
			Currency:                 getEnv("PAYMENT_CURRENCY", "ARS"),
			SuccessURL:               os.Getenv("FRONTEND_SUCCESS_URL"),
			FailureURL:               os.Getenv("FRONTEND_FAILURE_URL"),
			PendingURL:               os.Getenv("FRONTEND_PENDING_URL"),
			WebhookURL:               os.Getenv("WEBHOOK_URL"),
			MercadoPagoToken:         os.Getenv("MP_ACCESS_TOKEN"),
			MercadoPagoBaseURL:       getEnv("MP_BASE_URL", "https://api.mercadopago.com"),
			MercadoPagoWebhookSecret: os.Getenv("MP_WEBHOOK_SECRET"),
			StripeKey:                os.Getenv("STRIPE_SECRET_KEY"),
			StripeWebhookSecret:      os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
		Mail: MailConfig{
			Host:      os.Getenv("MAIL_HOST"),
			Port:      getInt("MAIL_PORT", 587),
			User:      os.Getenv("MAIL_USER"),
			Password:  os.Getenv("MAIL_PASS"),
			From:      getEnv("MAIL_FROM", os.Getenv("MAIL_USER")),
			StoreName: os.Getenv("STORE_NAME"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			Issuer:    os.Getenv("JWT_ISSUER"),
		},
		Billing: BillingConfig{
			TaxRate:       taxRate,
			InvoiceType:   getEnv("BILLING_INVOICE_TYPE", "B"),
			InvoicePrefix: getEnv("BILLING_INVOICE_PREFIX", "FV"),
		},
		Orders: OrdersConfig{
			StrictTransitions: getBool("ORDERS_STRICT_TRANSITIONS", true),
			StrictTotals:      getBool("ORDERS_STRICT_TOTALS", true),
		},
		Events: EventsConfig{
			Sink:        strings.ToLower(getEnv("EVENT_SINK", "log")),
			Origin:      getEnv("EVENT_ORIGIN", "commerce-service"),
			QueueSize:   getInt("EVENTS_QUEUE_SIZE", 1024),
			Workers:     getInt("EVENTS_WORKERS", 4),
			MaxAttempts: getInt("EVENTS_MAX_ATTEMPTS", 5),
			Backoff:     getDuration("EVENTS_BACKOFF", 500*time.Millisecond),
		},
		Tracing: TracingConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "commerce-service"),
			JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),
		},
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Validate() error {
	var errs []error
	if c.MySQL.Host == "" {
		errs = append(errs, errors.New("MYSQL_HOST is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.Gateway.Provider {
	case "mercadopago":
		if c.Gateway.MercadoPagoToken == "" {
			errs = append(errs, errors.New("MP_ACCESS_TOKEN is required for the mercadopago provider"))
		}
	case "stripe":
		if c.Gateway.StripeKey == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY is required for the stripe provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.Gateway.Provider))
	}
	switch c.Events.Sink {
	case "log":
	case "rabbitmq":
		if c.RabbitMQ.URL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required for the rabbitmq event sink"))
		}
	case "firestore":
		if c.Firestore.ProjectID == "" {
			errs = append(errs, errors.New("FIRESTORE_PROJECT_ID is required for the firestore event sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENT_SINK %q", c.Events.Sink))
	}
	if c.Billing.TaxRate.IsNegative() {
		errs = append(errs, errors.New("BILLING_TAX_RATE must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
