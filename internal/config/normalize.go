// internal/config/normalize.go
package config

// Defaults applied by Normalize to zero values.
const (
	DefaultDBPort               = 5432
	DefaultSSLMode              = "disable"
	DefaultApplicationName      = "modbus-collector"
	DefaultMaxConns             = 10
	DefaultMinConns             = 1
	DefaultStatementTimeoutMs   = 30000
	DefaultMetricsListen        = ":9464"
	DefaultReloadPollIntervalMs = 5000
	DefaultErrorCooldownMs      = 30000
	DefaultTagLoadConcurrency   = 4
	DefaultRetryBackoffMs       = 1000
	DefaultUnitID               = 1
	DefaultInsertAttempts       = 3
	DefaultInsertBackoffMs      = 500
	DefaultWriteTimeoutMs       = 30000
)

// Normalize fills defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	c := &cfg.Collector

	// ---- database ----
	setInt(&c.Database.Port, DefaultDBPort)
	setString(&c.Database.SSLMode, DefaultSSLMode)
	setString(&c.Database.ApplicationName, DefaultApplicationName)
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}
	if c.Database.MinConns > c.Database.MaxConns {
		c.Database.MinConns = c.Database.MaxConns
	}
	setInt(&c.Database.StatementTimeoutMs, DefaultStatementTimeoutMs)

	// ---- metrics ----
	if c.Metrics.Enabled {
		setString(&c.Metrics.Listen, DefaultMetricsListen)
	}

	// ---- scheduler ----
	setInt(&c.Scheduler.ReloadPollIntervalMs, DefaultReloadPollIntervalMs)
	setInt(&c.Scheduler.ErrorCooldownMs, DefaultErrorCooldownMs)
	setInt(&c.Scheduler.TagLoadConcurrency, DefaultTagLoadConcurrency)

	// ---- driver ----
	setInt(&c.Driver.RetryBackoffMs, DefaultRetryBackoffMs)
	if c.Driver.UnitID == 0 {
		c.Driver.UnitID = DefaultUnitID
	}

	// ---- writer ----
	setInt(&c.Writer.InsertAttempts, DefaultInsertAttempts)
	setInt(&c.Writer.InsertBackoffMs, DefaultInsertBackoffMs)
	setInt(&c.Writer.WriteTimeoutMs, DefaultWriteTimeoutMs)
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}
