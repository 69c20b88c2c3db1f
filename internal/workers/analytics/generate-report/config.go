package generatereport

import (
	"time"

	"hr-analytics/internal/common/config"
)

type Config struct {
	Timeout        time.Duration
	ArchiveEnabled bool
}

func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Config{
		Timeout:        timeout,
		ArchiveEnabled: cfg.Archive.Enabled,
	}
}
