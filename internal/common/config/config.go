package config

import (
	"fmt"
	"strings"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Huntflow      HuntflowConfig          `mapstructure:"huntflow"`
	Analytics     AnalyticsConfig         `mapstructure:"analytics"`
	Oracle        OracleConfig            `mapstructure:"oracle"`
	Archive       ArchiveConfig           `mapstructure:"archive"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress    string `mapstructure:"broker_address"`
	MaxJobsActive    int    `mapstructure:"max_jobs_active"`
	Timeout          int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout   int    `mapstructure:"request_timeout"` // milliseconds
	ActivityRegistry string `mapstructure:"activity_registry"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	SQLite        SQLiteConfig        `mapstructure:"sqlite"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig points at a local mirror file. ":memory:" is accepted.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// --- Recruiting platform ---

// HuntflowConfig configures the remote recruiting API accessor.
type HuntflowConfig struct {
	BaseURL      string          `mapstructure:"base_url"`
	AccountID    int             `mapstructure:"account_id"`
	AccessToken  string          `mapstructure:"access_token"`
	RefreshToken string          `mapstructure:"refresh_token"`
	Timeout      int             `mapstructure:"timeout"` // milliseconds
	PageSize     int             `mapstructure:"page_size"`
	MaxPages     int             `mapstructure:"max_pages"`
	CacheTTL     int             `mapstructure:"cache_ttl"` // milliseconds, 0 disables
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	DefaultRetryAfter int `mapstructure:"default_retry_after"` // milliseconds
	MaxWait           int `mapstructure:"max_wait"`            // milliseconds
	MaxAttempts       int `mapstructure:"max_attempts"`
}

// --- Analytics core ---

const (
	BackendRemote = "remote"
	BackendMirror = "mirror"

	MirrorDriverPostgres = "postgres"
	MirrorDriverSQLite   = "sqlite"
)

// AnalyticsConfig tunes the schema session, query engine, metrics and report controller.
type AnalyticsConfig struct {
	Backend               string            `mapstructure:"backend"`
	MirrorDriver          string            `mapstructure:"mirror_driver"`
	MaxRetries            *int              `mapstructure:"max_retries"`
	SessionTTL            int               `mapstructure:"session_ttl"` // milliseconds, 0 memoizes for the session lifetime
	ChartTopN             int               `mapstructure:"chart_top_n"`
	MetricCacheTTL        int               `mapstructure:"metric_cache_ttl"` // milliseconds
	TimeToHireWindowDays  int               `mapstructure:"time_to_hire_window_days"`
	OfferAcceptanceMonths int               `mapstructure:"offer_acceptance_months"`
	StageTypes            map[string]string `mapstructure:"stage_types"`
}

// GetMaxRetries returns the configured report retry budget, 2 when unset.
func (a AnalyticsConfig) GetMaxRetries() int {
	if a.MaxRetries == nil || *a.MaxRetries < 0 {
		return 2
	}
	return *a.MaxRetries
}

// --- Oracle ---

const (
	OracleGenAI     = "genai"
	OracleAnthropic = "anthropic"
	OracleGemini    = "gemini"
)

type OracleConfig struct {
	Provider    string  `mapstructure:"provider"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
}

// ArchiveConfig controls writing report outcomes to Elasticsearch.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

// NotificationConfig holds settings for the report notification worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func oneOf(val string, allowed ...string) bool {
	for _, a := range allowed {
		if strings.EqualFold(val, a) {
			return true
		}
	}
	return false
}
