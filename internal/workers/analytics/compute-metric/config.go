package computemetric

import (
	"time"

	"hr-analytics/internal/common/config"
)

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	timeout := config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{
		Timeout:  timeout,
		CacheTTL: config.GetDuration(cfg.Analytics.MetricCacheTTL),
	}
}
