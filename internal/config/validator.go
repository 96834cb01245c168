package config

import (
	"fmt"
	"strings"
)

var knownSeverities = map[string]struct{}{
	"Critical": {},
	"High":     {},
	"Medium":   {},
	"Low":      {},
}

// Validate checks the config for values the engine cannot run with:
// non-positive thresholds, sinks enabled without their required settings,
// unknown severity names in sink filters.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Engine.QueueDepth < 1 {
		errs = append(errs, "engine.queue_depth must be positive")
	}
	if cfg.Engine.EventTimeoutMs < 1 {
		errs = append(errs, "engine.event_timeout_ms must be positive")
	}
	if cfg.Rules.ConsecutiveCountThreshold < 1 {
		errs = append(errs, "rules.consecutive_count_threshold must be positive")
	}
	if cfg.Rules.HighVolumeMultiplier <= 0 {
		errs = append(errs, "rules.high_volume_multiplier must be positive")
	}
	if cfg.Rules.HighVolumeWindowHours < 1 {
		errs = append(errs, "rules.high_volume_window_hours must be positive")
	}
	if cfg.Rules.StockMutationTimeoutMinutes < 1 {
		errs = append(errs, "rules.stock_mutation_timeout_minutes must be positive")
	}
	for disp, steps := range cfg.Rules.ReleaseSteps {
		if len(steps) == 0 {
			errs = append(errs, fmt.Sprintf("rules.release_steps[%s]: step list must not be empty", disp))
		}
	}

	if cfg.Sinks.File.Enabled && cfg.Sinks.File.Path == "" {
		errs = append(errs, "sinks.file.path is required when the file sink is enabled")
	}
	if cfg.Sinks.Webhook.Enabled && cfg.Sinks.Webhook.URL == "" {
		errs = append(errs, "sinks.webhook.url is required when the webhook sink is enabled")
	}
	validateSeverities("sinks.console", cfg.Sinks.Console.Severities, &errs)
	validateSeverities("sinks.file", cfg.Sinks.File.Severities, &errs)
	validateSeverities("sinks.webhook", cfg.Sinks.Webhook.Severities, &errs)

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateSeverities(loc string, severities []string, errs *[]string) {
	for _, s := range severities {
		if _, ok := knownSeverities[s]; !ok {
			*errs = append(*errs, fmt.Sprintf("%s.severities: unknown severity %q", loc, s))
		}
	}
}
