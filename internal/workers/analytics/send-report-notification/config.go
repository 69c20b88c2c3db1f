package sendreportnotification

import (
	"time"

	"hr-analytics/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SNSEnabled   bool
	Timeout      time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	timeout := config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SNSEnabled:   cfg.Notifications.SNS.Enabled,
		Timeout:      timeout,
	}
}
