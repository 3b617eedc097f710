package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BackendHTTP   = "http"
	BackendOpenAI = "openai"
	BackendNone   = "none"
)

type Config struct {
	AppHost   string
	HTTPPort  string
	AppEnv    string
	LogLevel  string
	LogFormat string

	// SeedFAQ: заполнять таблицу faq стартовыми записями, если она пуста.
	SeedFAQ bool

	Classifier struct {
		Backend   string
		URL       string
		Timeout   time.Duration
		// RulesFile: YAML с правилами ключевых слов, по умолчанию встроенные.
		RulesFile string
	}

	OpenAI struct {
		APIKey  string
		BaseURL string
		Model   string
	}

	// Redis хранит журналы сессий. При пустом Addr журналы в памяти процесса.
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	SessionTTL   time.Duration
	PollInterval time.Duration
	DisplayTZ    string

	KafkaBrokers     []string
	KafkaTopicTicket string

	DB struct {
		Driver   string
		Path     string
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:          getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:         firstEnv("APP_PORT", "HTTP_PORT", "5000"),
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		DisplayTZ:        getEnv("DISPLAY_TZ", ""),
		KafkaBrokers:     parseList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicTicket: getEnv("KAFKA_TOPIC_TICKET", "support.tickets"),
	}

	var err error
	if cfg.SeedFAQ, err = getBool("SEED_FAQ", true); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getDuration("POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}

	cfg.Classifier.Backend = strings.ToLower(getEnv("CLASSIFIER_BACKEND", BackendHTTP))
	cfg.Classifier.URL = getEnv("CLASSIFIER_URL", "http://fastapi_model:8000/classify")
	cfg.Classifier.RulesFile = getEnv("CLASSIFIER_RULES", "")
	if cfg.Classifier.Timeout, err = getDuration("CLASSIFIER_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	cfg.OpenAI.APIKey = getEnv("OPENAI_API_KEY", "")
	cfg.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", "")
	cfg.OpenAI.Model = getEnv("OPENAI_MODEL", "gpt-4o-mini")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.DB.Driver = strings.ToLower(getEnv("DB_DRIVER", DriverPostgres))
	cfg.DB.Path = getEnv("DB_PATH", "support.db")
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "support_chat")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.Host == "" || c.DB.Database == "" {
			return errors.New("config: DB_HOST and DB_DATABASE are required")
		}
		if c.AppEnv == "production" && c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
	case DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("config: DB_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DB.Driver)
	}

	switch c.Classifier.Backend {
	case BackendHTTP:
		if c.Classifier.URL == "" {
			return errors.New("config: CLASSIFIER_URL is required for the http backend")
		}
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return errors.New("config: OPENAI_API_KEY is required for the openai backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("config: unsupported CLASSIFIER_BACKEND %q", c.Classifier.Backend)
	}

	if c.PollInterval <= 0 {
		return errors.New("config: POLL_INTERVAL must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	return nil
}

func (c *Config) DSN() string {
	if c.DB.Driver == DriverSQLite {
		return c.DB.Path
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// Location возвращает зону для времени в журнале чата. По умолчанию МСК (UTC+3).
func (c *Config) Location() *time.Location {
	if c.DisplayTZ != "" {
		if loc, err := time.LoadLocation(c.DisplayTZ); err == nil {
			return loc
		}
	}
	return time.FixedZone("MSK", 3*60*60)
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

// parseList разбивает "host1:9092,host2:9092" на слайс.
func parseList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
