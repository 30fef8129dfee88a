package config

import (
	"fmt"
	"nsresolver/internal/core/errors"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes TOML content, applies defaults and environment overrides,
// then validates the result.
func Parse(content string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(content, &cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	applyDefaults(&cfg, &md)
	ApplyEnvOverrides(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config, md *toml.MetaData) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if cfg.Resolver.AutoSort == nil {
		enabled := true
		cfg.Resolver.AutoSort = &enabled
	}
	if cfg.Resolver.LeadingSeparator == nil {
		enabled := true
		cfg.Resolver.LeadingSeparator = &enabled
	}
	// An explicit empty exclude disables the default.
	if md == nil || !md.IsDefined("resolver", "exclude") {
		cfg.Resolver.Exclude = DefaultExclude
	}

	if strings.TrimSpace(cfg.Workspace.Root) == "" {
		cfg.Workspace.Root = "."
	}
	if strings.TrimSpace(cfg.Workspace.Include) == "" {
		cfg.Workspace.Include = DefaultInclude
	}

	if cfg.UI.StatusDuration == 0 {
		cfg.UI.StatusDuration = DefaultStatusDuration
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.ExcludeDirs == nil {
		cfg.Watch.ExcludeDirs = []string{".git", "vendor", "node_modules"}
	}
	if cfg.Watch.RatePerSecond == 0 {
		cfg.Watch.RatePerSecond = 2
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 1
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9464"
	}
	if strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		cfg.Observability.OTLPEndpoint = "localhost:4317"
	}
}

func normalize(cfg *Config) {
	cfg.Resolver.Exclude = strings.TrimSpace(cfg.Resolver.Exclude)
	cfg.Workspace.Root = strings.TrimSpace(cfg.Workspace.Root)
	cfg.Workspace.Include = strings.TrimSpace(cfg.Workspace.Include)
	cfg.Observability.Address = strings.TrimSpace(cfg.Observability.Address)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)

	dirs := make([]string, 0, len(cfg.Watch.ExcludeDirs))
	for _, d := range cfg.Watch.ExcludeDirs {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	cfg.Watch.ExcludeDirs = dirs
}

// Validate checks a decoded configuration. Failures carry
// CodeValidationError.
func Validate(cfg *Config) error {
	if err := validate(cfg); err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "invalid configuration")
	}
	return nil
}

func validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validatePatterns(cfg); err != nil {
		return err
	}
	if err := validateDurations(cfg); err != nil {
		return err
	}
	if cfg.Resolver.MaxOpenFiles < 0 {
		return fmt.Errorf("resolver.max_open_files must be >= 0, got %d", cfg.Resolver.MaxOpenFiles)
	}
	if cfg.Watch.RatePerSecond < 0 {
		return fmt.Errorf("watch.rate_per_second must be >= 0, got %v", cfg.Watch.RatePerSecond)
	}
	if cfg.Watch.Burst < 1 {
		return fmt.Errorf("watch.burst must be >= 1, got %d", cfg.Watch.Burst)
	}
	if cfg.Observability.Enabled && cfg.Observability.Address == "" {
		return fmt.Errorf("observability.address must not be empty when observability.enabled=true")
	}
	if cfg.Observability.EnableTracing && cfg.Observability.OTLPEndpoint == "" {
		return fmt.Errorf("observability.otlp_endpoint must not be empty when observability.enable_tracing=true")
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validatePatterns(cfg *Config) error {
	if !doublestar.ValidatePattern(cfg.Workspace.Include) {
		return fmt.Errorf("workspace.include is not a valid glob: %q", cfg.Workspace.Include)
	}
	if cfg.Resolver.Exclude != "" {
		if _, err := glob.Compile(cfg.Resolver.Exclude, '/'); err != nil {
			return fmt.Errorf("resolver.exclude is not a valid glob %q: %w", cfg.Resolver.Exclude, err)
		}
	}
	for _, d := range cfg.Watch.ExcludeDirs {
		if _, err := glob.Compile(d); err != nil {
			return fmt.Errorf("watch.exclude_dirs entry %q is not a valid glob: %w", d, err)
		}
	}
	return nil
}

func validateDurations(cfg *Config) error {
	if cfg.UI.StatusDuration < 0 {
		return fmt.Errorf("ui.status_duration must be > 0, got %s", cfg.UI.StatusDuration)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be > 0, got %s", cfg.Watch.Debounce)
	}
	return nil
}
