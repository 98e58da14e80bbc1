package config

import (
	"time"

	"github.com/joho/godotenv"
)

type StoreBackend string

const (
	StoreBackendMemory StoreBackend = "memory"
	StoreBackendRedis  StoreBackend = "redis"
)

type MongoConfig struct {
	URI                    string
	Database               string
	Timeout                time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

type RabbitMQConfig struct {
	URL             string
	MaxRetries      int
	RetryDelay      time.Duration
	ExchangeConfigs []ExchangeConfig
}

type ExchangeConfig struct {
	Name       string
	Type       string // direct, topic, fanout, headers
	Durable    bool
	AutoDelete bool
}

type RedisConfig struct {
	URL       string
	Password  string
	DB        int
	KeyPrefix string
}

// StoreConfig selects where sessions and idempotency entries live.
type StoreConfig struct {
	Backend        StoreBackend
	SessionTTL     time.Duration
	IdempotencyTTL time.Duration
}

// EventsConfig gates the mongo outbox and the rabbitmq publisher. When
// disabled, cart events are dropped and neither is dialed.
type EventsConfig struct {
	Enabled bool
}

type OutboxConfig struct {
	BatchSize   int
	Interval    time.Duration
	MaxAttempts int
}

type HTTPConfig struct {
	Port          string
	BindInterface string
}

type RateLimitConfig struct {
	CartWrites int
	Window     time.Duration
}

type Config struct {
	Store     StoreConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Events    EventsConfig
	Outbox    OutboxConfig
	HTTP      HTTPConfig
	RateLimit RateLimitConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Endpoint     string
	ServiceName  string
	IsProduction bool
	Verbose      bool
}

func NewConfig() *Config {
	_ = godotenv.Load()
	return &Config{
		Store: StoreConfig{
			Backend:        parseStoreBackend(getStringEnv("STORE_BACKEND", string(StoreBackendMemory))),
			SessionTTL:     getDurationEnv("SESSION_TTL", 30*time.Minute),
			IdempotencyTTL: getDurationEnv("IDEMPOTENCY_TTL", 15*time.Minute),
		},
		Mongo: MongoConfig{
			URI:                    getStringEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:               getStringEnv("MONGO_DATABASE", "storefront"),
			Timeout:                time.Duration(getIntEnv("MONGO_TIMEOUT", 10)) * time.Second,
			MaxPoolSize:            uint64(getIntEnv("MONGO_MAX_POOL_SIZE", 100)),
			MinPoolSize:            uint64(getIntEnv("MONGO_MIN_POOL_SIZE", 10)),
			ConnectTimeout:         time.Duration(getIntEnv("MONGO_CONNECT_TIMEOUT", 10)) * time.Second,
			ServerSelectionTimeout: time.Duration(getIntEnv("MONGO_SERVER_SELECTION_TIMEOUT", 5)) * time.Second,
		},
		Redis: RedisConfig{
			URL:       getStringEnv("REDIS_URL", "redis://localhost:6379"),
			Password:  getStringEnv("REDIS_PASSWORD", ""),
			DB:        getIntEnv("REDIS_DB", 0),
			KeyPrefix: getStringEnv("REDIS_KEY_PREFIX", "storefront"),
		},
		Events: EventsConfig{
			Enabled: getBoolEnv("EVENTS_ENABLED", false),
		},
		Outbox: OutboxConfig{
			BatchSize:   getIntEnv("OUTBOX_BATCH_SIZE", 100),
			Interval:    time.Duration(getIntEnv("OUTBOX_INTERVAL", 500)) * time.Millisecond,
			MaxAttempts: getIntEnv("OUTBOX_MAX_ATTEMPTS", 5),
		},
		HTTP: HTTPConfig{
			Port:          getStringEnv("HTTP_PORT", "8080"),
			BindInterface: getStringEnv("HTTP_BIND_INTERFACE", "0.0.0.0"),
		},
		RateLimit: RateLimitConfig{
			CartWrites: getIntEnv("RATE_LIMIT_CART_WRITES", 60),
			Window:     time.Minute,
		},
		RabbitMQ: RabbitMQConfig{
			URL:        getStringEnv("RABBITMQ_URL", "amqp://localhost:5672"),
			MaxRetries: getIntEnv("RABBITMQ_MAX_RETRIES", 3),
			RetryDelay: time.Duration(getIntEnv("RABBITMQ_RETRY_DELAY", 1)) * time.Second,
			ExchangeConfigs: []ExchangeConfig{
				{
					Name:       getStringEnv("RABBITMQ_EXCHANGE_NAME", "exchange.cart"),
					Type:       getStringEnv("RABBITMQ_EXCHANGE_TYPE", "direct"),
					Durable:    getBoolEnv("RABBITMQ_EXCHANGE_DURABLE", true),
					AutoDelete: getBoolEnv("RABBITMQ_EXCHANGE_AUTO_DELETE", false),
				},
			},
		},
		Logger: LoggerConfig{
			Endpoint:     getStringEnv("OTEL_ENDPOINT", "localhost:4317"),
			ServiceName:  getStringEnv("OTEL_SERVICE_NAME", "storefront"),
			IsProduction: getBoolEnv("IS_PRODUCTION", false),
			Verbose:      getBoolEnv("LOG_VERBOSE", false),
		},
	}
}

// unknown backends fall back to memory so a typo never needs redis
func parseStoreBackend(value string) StoreBackend {
	if StoreBackend(value) == StoreBackendRedis {
		return StoreBackendRedis
	}
	return StoreBackendMemory
}
