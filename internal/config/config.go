package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. HOOKRELAY_SERVER_PORT.
const EnvPrefix = "HOOKRELAY"

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Ingestion    IngestionConfig    `mapstructure:"ingestion"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Email        EmailConfig        `mapstructure:"email"`
	Dispatch     DispatchConfig     `mapstructure:"dispatch"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Stripe       StripeConfig       `mapstructure:"stripe"`
	Entitlements EntitlementsConfig `mapstructure:"entitlements"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type IngestionConfig struct {
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	WebhookRateLimit  int           `mapstructure:"webhook_rate_limit"`
	WebhookRateWindow time.Duration `mapstructure:"webhook_rate_window"`
	HourlyRateLimit   int           `mapstructure:"hourly_rate_limit"`
	DailyRateLimit    int           `mapstructure:"daily_rate_limit"`
}

// RedisConfig backs the rate limiters. An empty URL keeps limits in memory.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type EmailConfig struct {
	Sender   string        `mapstructure:"sender"`
	Password string        `mapstructure:"password"`
	Receiver string        `mapstructure:"receiver"`
	SMTPHost string        `mapstructure:"smtp_host"`
	SMTPPort int           `mapstructure:"smtp_port"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type DispatchConfig struct {
	// Sink is the generic sink for every non-email format: "log" or "nats".
	Sink      string        `mapstructure:"sink"`
	Workers   int           `mapstructure:"workers"`
	QueueSize int           `mapstructure:"queue_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Name          string        `mapstructure:"name"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Token         string        `mapstructure:"token"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

type StripeConfig struct {
	SecretKey      string        `mapstructure:"secret_key"`
	PublishableKey string        `mapstructure:"publishable_key"`
	WebhookSecret  string        `mapstructure:"webhook_secret"`
	Tolerance      time.Duration `mapstructure:"tolerance"`
}

type EntitlementsConfig struct {
	Backend     string `mapstructure:"backend"`
	RedisURL    string `mapstructure:"redis_url"`
	RedisKey    string `mapstructure:"redis_key"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	Migrate     bool   `mapstructure:"migrate"`
}

// legacyEnv maps config keys to the unprefixed variable names older
// deployments set. The prefixed name wins when both are present.
var legacyEnv = map[string]string{
	"auth.jwt_secret":        "JWT_SECRET_KEY",
	"email.sender":           "EMAIL_SENDER",
	"email.password":         "EMAIL_PASSWORD",
	"email.receiver":         "EMAIL_RECEIVER",
	"email.smtp_host":        "SMTP_HOST",
	"email.smtp_port":        "SMTP_PORT",
	"stripe.secret_key":      "STRIPE_SECRET_KEY",
	"stripe.publishable_key": "STRIPE_PUBLISHABLE_KEY",
	"stripe.webhook_secret":  "STRIPE_WEBHOOK_SECRET",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("ingestion.max_body_size", 1048576)
	v.SetDefault("ingestion.rate_limit_enabled", true)
	v.SetDefault("ingestion.webhook_rate_limit", 10)
	v.SetDefault("ingestion.webhook_rate_window", "1m")
	v.SetDefault("ingestion.hourly_rate_limit", 50)
	v.SetDefault("ingestion.daily_rate_limit", 200)
	v.SetDefault("redis.url", "")
	v.SetDefault("email.sender", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.receiver", "")
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.timeout", "10s")
	v.SetDefault("dispatch.sink", "log")
	v.SetDefault("dispatch.workers", 4)
	v.SetDefault("dispatch.queue_size", 256)
	v.SetDefault("dispatch.timeout", "10s")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.name", "hookrelay")
	v.SetDefault("nats.subject_prefix", "hookrelay.notifications")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.timeout", "5s")
	v.SetDefault("nats.token", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_ttl", "5m")
	v.SetDefault("auth.refresh_ttl", "720h")
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.publishable_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.tolerance", "5m")
	v.SetDefault("entitlements.backend", "memory")
	v.SetDefault("entitlements.redis_url", "")
	v.SetDefault("entitlements.redis_key", "hookrelay:paid_users")
	v.SetDefault("entitlements.postgres_dsn", "")
	v.SetDefault("entitlements.migrate", true)
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing precedence. A .env file in the working
// directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/hookrelay")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings the HTTP service cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Ingestion.MaxBodySize <= 0 {
		errs = append(errs, errors.New("ingestion.max_body_size must be positive"))
	}
	if c.Ingestion.RateLimitEnabled {
		limits := []struct {
			key   string
			value int
		}{
			{"ingestion.webhook_rate_limit", c.Ingestion.WebhookRateLimit},
			{"ingestion.hourly_rate_limit", c.Ingestion.HourlyRateLimit},
			{"ingestion.daily_rate_limit", c.Ingestion.DailyRateLimit},
		}
		for _, l := range limits {
			if l.value <= 0 {
				errs = append(errs, fmt.Errorf("%s must be positive when rate limiting is enabled", l.key))
			}
		}
		if c.Ingestion.WebhookRateWindow <= 0 {
			errs = append(errs, errors.New("ingestion.webhook_rate_window must be positive when rate limiting is enabled"))
		}
	}
	switch c.Dispatch.Sink {
	case "log", "nats":
	default:
		errs = append(errs, fmt.Errorf("dispatch.sink %q must be log or nats", c.Dispatch.Sink))
	}
	switch c.Entitlements.Backend {
	case "memory", "redis", "postgres":
	default:
		errs = append(errs, fmt.Errorf("entitlements.backend %q must be memory, redis or postgres", c.Entitlements.Backend))
	}
	if c.Entitlements.Backend == "postgres" && c.Entitlements.PostgresDSN == "" {
		errs = append(errs, errors.New("entitlements.postgres_dsn is required for the postgres backend"))
	}
	if c.Entitlements.Backend == "redis" && c.Entitlements.RedisURL == "" && c.Redis.URL == "" {
		errs = append(errs, errors.New("entitlements.redis_url or redis.url is required for the redis backend"))
	}
	return errors.Join(errs...)
}
