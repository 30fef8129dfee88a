package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: NSRESOLVER_[SECTION]_[KEY] (e.g., NSRESOLVER_RESOLVER_AUTO_SORT).
func ApplyEnvOverrides(cfg *Config) {
	// Resolver
	setEnvBoolPtr(&cfg.Resolver.AutoSort, "NSRESOLVER_RESOLVER_AUTO_SORT")
	setEnvBoolPtr(&cfg.Resolver.LeadingSeparator, "NSRESOLVER_RESOLVER_LEADING_SEPARATOR")
	setEnvBool(&cfg.Resolver.SortAlphabetically, "NSRESOLVER_RESOLVER_SORT_ALPHABETICALLY")
	setEnvBool(&cfg.Resolver.ShowMessageOnStatusBar, "NSRESOLVER_RESOLVER_SHOW_MESSAGE_ON_STATUS_BAR")
	setEnvString(&cfg.Resolver.Exclude, "NSRESOLVER_RESOLVER_EXCLUDE")
	setEnvBool(&cfg.Resolver.DeterministicCandidates, "NSRESOLVER_RESOLVER_DETERMINISTIC_CANDIDATES")
	setEnvInt(&cfg.Resolver.MaxOpenFiles, "NSRESOLVER_RESOLVER_MAX_OPEN_FILES")

	// Workspace
	setEnvString(&cfg.Workspace.Root, "NSRESOLVER_WORKSPACE_ROOT")
	setEnvString(&cfg.Workspace.Include, "NSRESOLVER_WORKSPACE_INCLUDE")

	// UI
	setEnvDuration(&cfg.UI.StatusDuration, "NSRESOLVER_UI_STATUS_DURATION")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "NSRESOLVER_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.RatePerSecond, "NSRESOLVER_WATCH_RATE_PER_SECOND")
	setEnvInt(&cfg.Watch.Burst, "NSRESOLVER_WATCH_BURST")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "NSRESOLVER_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Address, "NSRESOLVER_OBSERVABILITY_ADDRESS")
	setEnvBool(&cfg.Observability.EnableTracing, "NSRESOLVER_OBSERVABILITY_ENABLE_TRACING")
	setEnvString(&cfg.Observability.OTLPEndpoint, "NSRESOLVER_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		log.Printf("Applying env override: %s=%s", key, val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = d
		}
	}
}
