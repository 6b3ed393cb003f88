package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers.
const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Booking  BookingConfig
	Events   EventsConfig
	Queue    QueueConfig
	CORS     CORSConfig
	Log      LogConfig
}

// StoreConfig selects where class and booking snapshots are persisted.
type StoreConfig struct {
	Driver       string
	DataDir      string
	ClassesFile  string
	BookingsFile string
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig governs the class listing cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// BookingConfig carries booking defaults.
type BookingConfig struct {
	DefaultTimezone string
}

// EventsConfig toggles booking event publication to Kafka.
type EventsConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// QueueConfig sizes the post-booking job queue.
type QueueConfig struct {
	Workers int
	Retries int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{
		Driver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		DataDir:      v.GetString("STORE_DATA_DIR"),
		ClassesFile:  v.GetString("STORE_CLASSES_FILE"),
		BookingsFile: v.GetString("STORE_BOOKINGS_FILE"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CLASS_CACHE"),
		TTL:     parseDuration(v.GetString("CLASS_CACHE_TTL"), 30*time.Second),
	}

	cfg.Booking = BookingConfig{
		DefaultTimezone: v.GetString("BOOKING_DEFAULT_TIMEZONE"),
	}

	cfg.Events = EventsConfig{
		Enabled: v.GetBool("ENABLE_BOOKING_EVENTS"),
		Brokers: splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:   v.GetString("BOOKING_EVENTS_TOPIC"),
	}

	cfg.Queue = QueueConfig{
		Workers: v.GetInt("QUEUE_WORKERS"),
		Retries: v.GetInt("QUEUE_RETRIES"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "")

	v.SetDefault("STORE_DRIVER", StoreDriverFile)
	v.SetDefault("STORE_DATA_DIR", "./data")
	v.SetDefault("STORE_CLASSES_FILE", "classes_data.json")
	v.SetDefault("STORE_BOOKINGS_FILE", "bookings_data.json")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "fitness_booking")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_CLASS_CACHE", false)
	v.SetDefault("CLASS_CACHE_TTL", "30s")

	v.SetDefault("BOOKING_DEFAULT_TIMEZONE", "Asia/Kolkata")

	v.SetDefault("ENABLE_BOOKING_EVENTS", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("BOOKING_EVENTS_TOPIC", "fitness.bookings")

	v.SetDefault("QUEUE_WORKERS", 2)
	v.SetDefault("QUEUE_RETRIES", 3)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
