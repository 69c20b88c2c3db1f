package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml over it
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// overrideEmptyConfig fills secrets from well-known environment variables.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Huntflow.AccessToken, "HUNTFLOW_ACCESS_TOKEN")
	setIfEmpty(&cfg.Huntflow.RefreshToken, "HUNTFLOW_REFRESH_TOKEN")
	setIfEmpty(&cfg.Oracle.APIKey, "ORACLE_API_KEY")

	if cfg.Oracle.APIKey == "" {
		switch cfg.Oracle.Provider {
		case OracleAnthropic:
			setIfEmpty(&cfg.Oracle.APIKey, "ANTHROPIC_API_KEY")
		case OracleGemini:
			setIfEmpty(&cfg.Oracle.APIKey, "GEMINI_API_KEY")
		default:
			setIfEmpty(&cfg.Oracle.APIKey, "GENAI_API_KEY")
		}
	}

	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
}

func setIfEmpty(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	if cfg.Camunda.ActivityRegistry == "" {
		cfg.Camunda.ActivityRegistry = "configs/activity-registry.json"
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	// Huntflow
	if cfg.Huntflow.Timeout == 0 {
		cfg.Huntflow.Timeout = 30000
	}
	if cfg.Huntflow.PageSize == 0 {
		cfg.Huntflow.PageSize = 100
	}
	if cfg.Huntflow.MaxPages == 0 {
		cfg.Huntflow.MaxPages = 500
	}
	if cfg.Huntflow.RateLimit.DefaultRetryAfter == 0 {
		cfg.Huntflow.RateLimit.DefaultRetryAfter = 1000
	}
	if cfg.Huntflow.RateLimit.MaxWait == 0 {
		cfg.Huntflow.RateLimit.MaxWait = 60000
	}
	if cfg.Huntflow.RateLimit.MaxAttempts == 0 {
		cfg.Huntflow.RateLimit.MaxAttempts = 3
	}

	// Analytics
	if cfg.Analytics.Backend == "" {
		cfg.Analytics.Backend = BackendRemote
	}
	if cfg.Analytics.MirrorDriver == "" {
		cfg.Analytics.MirrorDriver = MirrorDriverSQLite
	}
	if cfg.Analytics.ChartTopN == 0 {
		cfg.Analytics.ChartTopN = 10
	}
	if cfg.Analytics.MetricCacheTTL == 0 {
		cfg.Analytics.MetricCacheTTL = 300000
	}
	if cfg.Analytics.TimeToHireWindowDays == 0 {
		cfg.Analytics.TimeToHireWindowDays = 90
	}
	if cfg.Analytics.OfferAcceptanceMonths == 0 {
		cfg.Analytics.OfferAcceptanceMonths = 12
	}
	if len(cfg.Analytics.StageTypes) == 0 {
		cfg.Analytics.StageTypes = DefaultStageTypes()
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = "hr-mirror.db"
	}

	// Oracle
	if cfg.Oracle.Provider == "" {
		cfg.Oracle.Provider = OracleGenAI
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = 60000
	}
	if cfg.Oracle.MaxTokens == 0 {
		cfg.Oracle.MaxTokens = 2048
	}
	if cfg.Oracle.MaxRetries == 0 {
		cfg.Oracle.MaxRetries = 3
	}

	if cfg.Archive.Index == "" {
		cfg.Archive.Index = "hr-reports"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// DefaultStageTypes maps status types to funnel buckets.
func DefaultStageTypes() map[string]string {
	return map[string]string{
		"interview": "interview",
		"offer":     "offer",
		"hired":     "hired",
		"trash":     "rejected",
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if !oneOf(cfg.Analytics.Backend, BackendRemote, BackendMirror) {
		return fmt.Errorf("analytics.backend must be %q or %q, got %q", BackendRemote, BackendMirror, cfg.Analytics.Backend)
	}
	if cfg.Analytics.Backend == BackendRemote && cfg.Huntflow.BaseURL == "" {
		return fmt.Errorf("huntflow.base_url is required for the remote backend")
	}
	if cfg.Analytics.Backend == BackendMirror {
		if !oneOf(cfg.Analytics.MirrorDriver, MirrorDriverPostgres, MirrorDriverSQLite) {
			return fmt.Errorf("analytics.mirror_driver must be %q or %q", MirrorDriverPostgres, MirrorDriverSQLite)
		}
		if cfg.Analytics.MirrorDriver == MirrorDriverPostgres && cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required for the postgres mirror")
		}
	}
	if !oneOf(cfg.Oracle.Provider, OracleGenAI, OracleAnthropic, OracleGemini) {
		return fmt.Errorf("oracle.provider %q is not supported", cfg.Oracle.Provider)
	}
	if cfg.Oracle.Provider == OracleGenAI && cfg.Oracle.BaseURL == "" {
		return fmt.Errorf("oracle.base_url is required for the genai provider")
	}
	if cfg.Archive.Enabled && cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required when archive is enabled")
	}
	if cfg.Analytics.ChartTopN < 0 {
		return fmt.Errorf("analytics.chart_top_n must be positive")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
