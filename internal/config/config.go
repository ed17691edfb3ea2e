package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server          ServerConfig
	Database        DatabaseConfig
	Redis           RedisConfig
	Kafka           KafkaConfig
	PaymentProvider ServiceConfig
	Notifications   ServiceConfig
	Features        FeatureFlags
	Store           StoreConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	OrdersTopic   string
	PaymentsTopic string
	ConsumerGroup string
}

type ServiceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type FeatureFlags struct {
	EnableOrderCaching    bool
	EnableOrderEvents     bool
	EnablePaymentConsumer bool
}

// StoreConfig carries shop-level settings.
type StoreConfig struct {
	Name              string
	FrontendURL       string
	BackendURL        string
	Currency          string
	LowStockThreshold int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "shop"),
			Password:     getEnvString("DB_PASSWORD", "shop"),
			Name:         getEnvString("DB_NAME", "tienda_escolar"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{getEnvString("KAFKA_BROKER", "localhost:9092")},
			OrdersTopic:   getEnvString("KAFKA_ORDERS_TOPIC", "shop.orders"),
			PaymentsTopic: getEnvString("KAFKA_PAYMENTS_TOPIC", "shop.payments"),
			ConsumerGroup: getEnvString("KAFKA_CONSUMER_GROUP", "shop-service"),
		},
		PaymentProvider: ServiceConfig{
			BaseURL: getEnvString("PAYMENT_PROVIDER_URL", "https://api.mercadopago.com"),
			APIKey:  getEnvString("PAYMENT_PROVIDER_TOKEN", ""),
			Timeout: time.Duration(getEnvInt("PAYMENT_PROVIDER_TIMEOUT", 10)) * time.Second,
		},
		Notifications: ServiceConfig{
			BaseURL: getEnvString("NOTIFICATION_SERVICE_URL", "http://localhost:8085"),
			APIKey:  getEnvString("NOTIFICATION_SERVICE_KEY", ""),
			Timeout: time.Duration(getEnvInt("NOTIFICATION_SERVICE_TIMEOUT", 5)) * time.Second,
		},
		Features: FeatureFlags{
			EnableOrderCaching:    getEnvBool("ENABLE_ORDER_CACHING", true),
			EnableOrderEvents:     getEnvBool("ENABLE_ORDER_EVENTS", true),
			EnablePaymentConsumer: getEnvBool("ENABLE_PAYMENT_CONSUMER", true),
		},
		Store: StoreConfig{
			Name:              getEnvString("STORE_NAME", "Mi Tienda Escolar"),
			FrontendURL:       getEnvString("FRONTEND_URL", "http://localhost:3000"),
			BackendURL:        getEnvString("BACKEND_URL", "http://localhost:8080"),
			Currency:          getEnvString("STORE_CURRENCY", "ARS"),
			LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 10),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
