package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ServicePort      string
	MetricsPort      string
	JWTSecret        string
	PostgreSQLConfig PostgreSQLConfig
	NextransConfig   NextransConfig
	KafkaConfig      KafkaConfig
	RedisConfig      RedisConfig
	TracingConfig    TracingConfig
	ReconcileConfig  ReconcileConfig
}

type PostgreSQLConfig struct {
	DBHost     string
	DBName     string
	DBPort     string
	DBUsername string
	DBPassword string
}

type NextransConfig struct {
	Environment          string
	MerchantID           string
	ServerKey            string
	ClientKey            string
	ProductionMerchantID string
	ProductionServerKey  string
	ProductionClientKey  string
	BaseURL              string
	CoreBaseURL          string
	FinishURL            string
	RequestTimeout       time.Duration
	RecheckTimeout       time.Duration
}

type KafkaConfig struct {
	BrokerAddress string
	BrokerTopic   string
}

type RedisConfig struct {
	Address         string
	Password        string
	DB              int
	NotificationTTL time.Duration
}

type TracingConfig struct {
	CollectorHost string
	ServiceName   string
	// SampleRatio is the share of new traces that are recorded. Spans of
	// requests that arrive with a sampled parent are always recorded.
	SampleRatio float64
}

type ReconcileConfig struct {
	Interval time.Duration
	// PendingAge is how long a payment has to stay pending before the
	// gateway is asked about it.
	PendingAge time.Duration
	// ExpireAfter is when a payment the gateway has no transaction for is
	// considered abandoned.
	ExpireAfter time.Duration
	BatchSize   int
}

func CreateNewConfig() *Config {
	godotenv.Load(".env")

	conf := Config{
		ServicePort: os.Getenv("SERVICE_PORT"),
		MetricsPort: os.Getenv("METRICS_PORT"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		PostgreSQLConfig: PostgreSQLConfig{
			DBHost:     os.Getenv("DB_HOST"),
			DBName:     os.Getenv("DB_NAME"),
			DBPort:     os.Getenv("DB_PORT"),
			DBUsername: os.Getenv("DB_USERNAME"),
			DBPassword: os.Getenv("DB_PASSWORD"),
		},
		NextransConfig: NextransConfig{
			Environment:          os.Getenv("MIDTRANS_ENVIRONMENT"),
			MerchantID:           os.Getenv("MIDTRANS_MERCHANT_ID"),
			ServerKey:            os.Getenv("MIDTRANS_SERVER_KEY"),
			ClientKey:            os.Getenv("MIDTRANS_CLIENT_KEY"),
			ProductionMerchantID: os.Getenv("MIDTRANS_PRODUCTION_MERCHANT_ID"),
			ProductionServerKey:  os.Getenv("MIDTRANS_PRODUCTION_SERVER_KEY"),
			ProductionClientKey:  os.Getenv("MIDTRANS_PRODUCTION_CLIENT_KEY"),
			BaseURL:              os.Getenv("MIDTRANS_BASE_URL"),
			CoreBaseURL:          os.Getenv("MIDTRANS_CORE_BASE_URL"),
			FinishURL:            os.Getenv("MIDTRANS_FINISH_URL"),
			RequestTimeout:       getDuration("MIDTRANS_REQUEST_TIMEOUT", 15*time.Second),
			RecheckTimeout:       getDuration("MIDTRANS_RECHECK_TIMEOUT", 10*time.Second),
		},
		KafkaConfig: KafkaConfig{
			BrokerAddress: os.Getenv("BROKER_ADDRESS"),
			BrokerTopic:   os.Getenv("BROKER_TOPIC"),
		},
		RedisConfig: RedisConfig{
			Address:         os.Getenv("REDIS_ADDRESS"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              getInt("REDIS_DB", 0),
			NotificationTTL: getDuration("NOTIFICATION_DEDUP_TTL", 24*time.Hour),
		},
		TracingConfig: TracingConfig{
			CollectorHost: os.Getenv("COLLECTOR_HOST"),
			ServiceName:   getString("TRACING_SERVICE_NAME", "payment-service"),
			SampleRatio:   getFloat("TRACING_SAMPLE_RATIO", 1),
		},
		ReconcileConfig: ReconcileConfig{
			Interval:    getDuration("RECONCILE_INTERVAL", time.Minute),
			PendingAge:  getDuration("RECONCILE_PENDING_AGE", 15*time.Minute),
			ExpireAfter: getDuration("RECONCILE_EXPIRE_AFTER", 24*time.Hour),
			BatchSize:   getInt("RECONCILE_BATCH_SIZE", 100),
		},
	}

	return &conf
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Err(err).Str("component", "CreateNewConfig").Str("key", key).Msg("using default duration")
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Err(err).Str("component", "CreateNewConfig").Str("key", key).Msg("using default value")
		return fallback
	}
	return n
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Warn().Err(err).Str("component", "CreateNewConfig").Str("key", key).Msg("using default value")
		return fallback
	}
	return f
}
