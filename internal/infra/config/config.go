package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"

	BrokerNone  = "none"
	BrokerKafka = "kafka"
	BrokerAMQP  = "amqp"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	Store              string
	MongoURI           string
	MongoDB            string
	SessionSecret      string
	PublicURL          string
	GoogleClientID     string
	GoogleSecret       string
	GeocodeKey         string
	StripeClientID     string
	StripeSecretKey    string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	GeocodeCacheTTL    time.Duration
	IdempotencyTTL     time.Duration
	EventsBroker       string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	AMQPURL            string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	S3Endpoint         string
	S3PublicEndpoint   string
	S3AccessKey        string
	S3SecretKey        string
	S3Bucket           string
	S3UseSSL           bool
	LoginRatePerMin    int
	LoginBurst         int
}

// Dev reports whether the process runs in a local development environment.
func (c Config) Dev() bool {
	return c.Env == "dev" || c.Env == "local"
}

// Load reads .env (when present) and then the process environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Env:              strings.ToLower(getEnv("APP_ENV", "dev")),
		HTTPAddr:         getEnv("HTTP_ADDR", ":9000"),
		Store:            strings.ToLower(getEnv("STORE", StoreMemory)),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "tinyhouse"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		PublicURL:        strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:3000"), "/"),
		GoogleClientID:   os.Getenv("G_CLIENT_ID"),
		GoogleSecret:     os.Getenv("G_CLIENT_SECRET"),
		GeocodeKey:       os.Getenv("G_GEOCODE_KEY"),
		StripeClientID:   os.Getenv("S_CLIENT_ID"),
		StripeSecretKey:  os.Getenv("S_SECRET_KEY"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		EventsBroker:     strings.ToLower(getEnv("EVENTS_BROKER", BrokerNone)),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		AMQPURL:          os.Getenv("AMQP_URL"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3PublicEndpoint: getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         getEnv("S3_BUCKET", "tinyhouse-images"),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeCacheTTL, err = parseDurationEnv("GEOCODE_CACHE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}
	if cfg.LoginRatePerMin, err = parseIntEnv("LOGIN_RATE_PER_MIN", 30); err != nil {
		return Config{}, err
	}
	if cfg.LoginBurst, err = parseIntEnv("LOGIN_BURST", 10); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.SessionSecret == "" && !c.Dev() {
		return fmt.Errorf("SESSION_SECRET is required outside dev")
	}
	switch c.Store {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE=mongo")
		}
	default:
		return fmt.Errorf("invalid STORE %q", c.Store)
	}
	switch c.EventsBroker {
	case BrokerNone:
	case BrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_BROKER=kafka")
		}
	case BrokerAMQP:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required when EVENTS_BROKER=amqp")
		}
	default:
		return fmt.Errorf("invalid EVENTS_BROKER %q", c.EventsBroker)
	}
	if c.LoginRatePerMin <= 0 || c.LoginBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MIN and LOGIN_BURST must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
