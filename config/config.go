package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Booking  BookingConfig  `yaml:"booking"`
}

type AppConfig struct {
	Env string `yaml:"env"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`

	// AllowedOrigins empty means any origin is accepted.
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ShutdownSeconds int      `yaml:"shutdown_seconds"`
}

func (h HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(h.ShutdownSeconds) * time.Second
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	EventsTopic string   `yaml:"events_topic"`
	GroupID     string   `yaml:"group_id"`
}

// PricingConfig percentages are plain numbers (3 means 3%). Negative
// factors are configured as positive premiums.
type PricingConfig struct {
	DoubleTierPercent     float64 `yaml:"double_tier_percent"`
	TriplePlusTierPercent float64 `yaml:"triple_plus_tier_percent"`
	OnlinePercent         float64 `yaml:"online_percent"`
	OffPeakPercent        float64 `yaml:"off_peak_percent"`
	PeakPremiumPercent    float64 `yaml:"peak_premium_percent"`
	WeekdayPercent        float64 `yaml:"weekday_percent"`
	WeekendPremiumPercent float64 `yaml:"weekend_premium_percent"`
	PeakStart             string  `yaml:"peak_start"`
	PeakEnd               string  `yaml:"peak_end"`
	RemoteURL             string  `yaml:"remote_url"`
	TimeoutMillis         int     `yaml:"timeout_ms"`
	ProgramCacheSeconds   int     `yaml:"program_cache_seconds"`
}

func (p PricingConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMillis) * time.Millisecond
}

func (p PricingConfig) ProgramCacheTTL() time.Duration {
	return time.Duration(p.ProgramCacheSeconds) * time.Second
}

type BookingConfig struct {
	LockTTLSeconds        int     `yaml:"lock_ttl_seconds"`
	MinFirstPayment       float64 `yaml:"min_first_payment"`
	RefundReasonMinLength int     `yaml:"refund_reason_min_length"`
	Timezone              string  `yaml:"timezone"`
}

func (b BookingConfig) LockTTL() time.Duration {
	return time.Duration(b.LockTTLSeconds) * time.Second
}

func (b BookingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(b.Timezone)
}

// LoadConfig reads the YAML file at path. A .env file in the working
// directory is loaded first; APP_ENV and DATABASE_DSN override the file.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.App.Env = env
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Path returns CONFIG_PATH (after .env is loaded) or config.yaml.
func Path() string {
	_ = godotenv.Load()
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownSeconds == 0 {
		c.HTTP.ShutdownSeconds = 5
	}
	if c.Kafka.EventsTopic == "" {
		c.Kafka.EventsTopic = "booking_events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "booking-notifier"
	}
	if c.Pricing.DoubleTierPercent == 0 {
		c.Pricing.DoubleTierPercent = 3
	}
	if c.Pricing.TriplePlusTierPercent == 0 {
		c.Pricing.TriplePlusTierPercent = 5
	}
	if c.Pricing.TimeoutMillis == 0 {
		c.Pricing.TimeoutMillis = 2000
	}
	if c.Booking.LockTTLSeconds == 0 {
		c.Booking.LockTTLSeconds = 10
	}
	if c.Booking.MinFirstPayment == 0 {
		c.Booking.MinFirstPayment = 500
	}
	if c.Booking.RefundReasonMinLength == 0 {
		c.Booking.RefundReasonMinLength = 10
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
}
