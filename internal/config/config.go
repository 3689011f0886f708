package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Source kinds for SOURCE_KIND.
const (
	SourceSQL      = "sql"
	SourceSupabase = "supabase"
	SourceNotion   = "notion"
)

// Config holds all configuration for the POS analytics service
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Source    SourceConfig    `mapstructure:"source"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	Notion    NotionConfig    `mapstructure:"notion"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Security  SecurityConfig  `mapstructure:"security"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds the SQL order store configuration
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Database    string `mapstructure:"name"`
	SSLMode     string `mapstructure:"ssl_mode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// DSN builds the driver specific connection string
func (d DatabaseConfig) DSN() string {
	if d.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.Database)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Database, d.Port, d.SSLMode)
}

// RedisConfig holds Redis cache configuration. URL wins over host and port.
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether any Redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// SourceConfig selects where orders are loaded from
type SourceConfig struct {
	Kind string `mapstructure:"kind"`
}

// SupabaseConfig holds the Supabase REST order store configuration
type SupabaseConfig struct {
	URL   string `mapstructure:"url"`
	Key   string `mapstructure:"key"`
	Table string `mapstructure:"table"`
}

// NotionConfig holds the Notion order database configuration
type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
	BaseURL    string `mapstructure:"base_url"`
}

// AnalyticsConfig holds engine and snapshot settings
type AnalyticsConfig struct {
	CutoffHour       float64       `mapstructure:"cutoff_hour"`
	IncludedStatuses string        `mapstructure:"included_statuses"`
	Locale           string        `mapstructure:"locale"`
	Timezone         string        `mapstructure:"timezone"`
	CLVMonths        int           `mapstructure:"clv_months"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	RefreshInterval  time.Duration `mapstructure:"refresh_interval"`
}

// Statuses splits IncludedStatuses on commas
func (a AnalyticsConfig) Statuses() []string {
	var out []string
	for _, s := range strings.Split(a.IncludedStatuses, ",") {
		if s = strings.TrimSpace(strings.ToLower(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Location loads the configured time zone
func (a AnalyticsConfig) Location() (*time.Location, error) {
	if a.Timezone == "" || a.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_TIMEZONE %q: %w", a.Timezone, err)
	}
	return loc, nil
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	WebhookSecret  string `mapstructure:"webhook_secret"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
	RateLimit      int    `mapstructure:"rate_limit"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()

	_ = v.BindEnv("app.name", "APP_NAME")
	_ = v.BindEnv("app.env", "APP_ENV")
	_ = v.BindEnv("app.port", "APP_PORT")

	_ = v.BindEnv("database.driver", "DB_DRIVER")
	_ = v.BindEnv("database.host", "DB_HOST")
	_ = v.BindEnv("database.port", "DB_PORT")
	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("database.name", "DB_NAME")
	_ = v.BindEnv("database.ssl_mode", "DB_SSLMODE")
	_ = v.BindEnv("database.auto_migrate", "DB_AUTO_MIGRATE")

	_ = v.BindEnv("nats.url", "NATS_URL")

	// Redis
	_ = v.BindEnv("redis.url", "REDIS_URL")
	_ = v.BindEnv("redis.host", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "REDIS_PORT")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")

	// Order stores
	_ = v.BindEnv("source.kind", "SOURCE_KIND")
	_ = v.BindEnv("supabase.url", "SUPABASE_URL")
	_ = v.BindEnv("supabase.key", "SUPABASE_KEY")
	_ = v.BindEnv("supabase.table", "SUPABASE_TABLE")
	_ = v.BindEnv("notion.token", "NOTION_TOKEN")
	_ = v.BindEnv("notion.database_id", "NOTION_DATABASE_ID")
	_ = v.BindEnv("notion.base_url", "NOTION_BASE_URL")

	// Analytics
	_ = v.BindEnv("analytics.cutoff_hour", "ANALYTICS_CUTOFF_HOUR")
	_ = v.BindEnv("analytics.included_statuses", "ANALYTICS_INCLUDED_STATUSES")
	_ = v.BindEnv("analytics.locale", "ANALYTICS_LOCALE")
	_ = v.BindEnv("analytics.timezone", "ANALYTICS_TIMEZONE")
	_ = v.BindEnv("analytics.clv_months", "ANALYTICS_CLV_MONTHS")
	_ = v.BindEnv("analytics.cache_ttl", "ANALYTICS_CACHE_TTL")
	_ = v.BindEnv("analytics.refresh_interval", "ANALYTICS_REFRESH_INTERVAL")

	// Security
	_ = v.BindEnv("security.webhook_secret", "WEBHOOK_SECRET")
	_ = v.BindEnv("security.allowed_origins", "ALLOWED_ORIGINS")
	_ = v.BindEnv("security.rate_limit", "RATE_LIMIT_PER_MINUTE")

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceSQL:
		if c.Database.Driver != "postgres" && c.Database.Driver != "mysql" {
			return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
		}
	case SourceSupabase:
		if c.Supabase.URL == "" || c.Supabase.Key == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for source %q", c.Source.Kind)
		}
	case SourceNotion:
		if c.Notion.Token == "" || c.Notion.DatabaseID == "" {
			return fmt.Errorf("NOTION_TOKEN and NOTION_DATABASE_ID are required for source %q", c.Source.Kind)
		}
	default:
		return fmt.Errorf("unknown SOURCE_KIND %q", c.Source.Kind)
	}
	if _, err := c.Analytics.Location(); err != nil {
		return err
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "service-pos-analytics")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8012")

	// Database
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "pos")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.auto_migrate", false)

	// NATS
	v.SetDefault("nats.url", "nats://localhost:4222")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Order stores
	v.SetDefault("source.kind", SourceSQL)
	v.SetDefault("supabase.table", "orders")
	v.SetDefault("notion.base_url", "https://api.notion.com")

	// Analytics
	v.SetDefault("analytics.cutoff_hour", 3)
	v.SetDefault("analytics.included_statuses", "completed,paid")
	v.SetDefault("analytics.locale", "en")
	v.SetDefault("analytics.timezone", "Local")
	v.SetDefault("analytics.clv_months", 12)
	v.SetDefault("analytics.cache_ttl", 5*time.Minute)
	v.SetDefault("analytics.refresh_interval", time.Minute)

	// Security
	v.SetDefault("security.allowed_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("security.rate_limit", 120)
}
