// internal/scheduler/builder.go
package scheduler

import (
	"time"

	cfg "github.com/tamzrod/modbus-collector/internal/config"
)

// ConfigFrom converts the scheduler section. Assumes config was normalized.
func ConfigFrom(sc cfg.SchedulerConfig) Config {
	return Config{
		ReloadPollInterval: time.Duration(sc.ReloadPollIntervalMs) * time.Millisecond,
		ErrorCooldown:      time.Duration(sc.ErrorCooldownMs) * time.Millisecond,
		TagLoadConcurrency: sc.TagLoadConcurrency,
	}
}
