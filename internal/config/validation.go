package config

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
)

// Data modes accepted for data.mode and data.secondary.
const (
	ModeSnapshot = "snapshot"
	ModeFlatFile = "flatfile"
)

// FieldError is one invalid configuration value.
type FieldError struct {
	Key     string
	Problem string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Fields []FieldError
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationErrors) add(key, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Key: key, Problem: fmt.Sprintf(format, args...)})
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, f := range e.Fields {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", f.Key, f.Problem))
	}
	return sb.String()
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	switch c.Data.Mode {
	case ModeSnapshot, ModeFlatFile:
	default:
		errs.add("data.mode", "must be %q or %q, got %q", ModeSnapshot, ModeFlatFile, c.Data.Mode)
	}
	switch c.Data.Secondary {
	case "":
	case ModeSnapshot, ModeFlatFile:
		if c.Data.Secondary == c.Data.Mode {
			errs.add("data.secondary", "must differ from data.mode")
		}
	default:
		errs.add("data.secondary", "must be empty, %q or %q, got %q", ModeSnapshot, ModeFlatFile, c.Data.Secondary)
	}
	if c.usesMode(ModeSnapshot) && c.Data.SnapshotDir == "" {
		errs.add("data.snapshot_dir", "is required")
	}
	if c.usesMode(ModeFlatFile) && c.Data.FlatFileDir == "" {
		errs.add("data.flatfile_dir", "is required")
	}

	if c.Cache.Enabled && c.Cache.TTLSec < 1 {
		errs.add("cache.ttl_sec", "must be >= 1")
	}

	if math.IsNaN(c.Pricing.RiskFreeRate) || math.IsInf(c.Pricing.RiskFreeRate, 0) {
		errs.add("pricing.risk_free_rate", "must be finite")
	}
	if _, err := chain.ParseVolatilityPolicy(c.Pricing.VolatilityPolicy, c.Pricing.ConstantVolatility); err != nil {
		errs.add("pricing.volatility_policy", "%v", err)
	}

	if c.Chain.ATMTolerancePct <= 0 {
		errs.add("chain.atm_tolerance_pct", "must be > 0")
	}
	if c.Chain.StrikesAroundATM < 1 {
		errs.add("chain.strikes_around_atm", "must be >= 1")
	}
	if c.Chain.Workers < 1 {
		errs.add("chain.workers", "must be >= 1")
	}

	if c.Server.RatePerSecond <= 0 {
		errs.add("server.rate_per_second", "must be > 0")
	}
	if c.Server.Burst < 1 {
		errs.add("server.burst", "must be >= 1")
	}

	if c.Convert.Workers < 1 {
		errs.add("convert.workers", "must be >= 1")
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs.add("logging.level", "unknown level %q", c.Logging.Level)
	}

	if err := c.Notify.Validate(); err != nil {
		errs.add("notify", "%v", err)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (c *Config) usesMode(mode string) bool {
	return c.Data.Mode == mode || c.Data.Secondary == mode
}
