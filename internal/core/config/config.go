package config

import (
	"time"
)

const (
	DefaultInclude        = "**/*.php"
	DefaultExclude        = "**/node_modules/**"
	DefaultStatusDuration = 3 * time.Second
)

type Config struct {
	Version       int           `toml:"version"`
	Resolver      Resolver      `toml:"resolver"`
	Workspace     Workspace     `toml:"workspace"`
	UI            UI            `toml:"ui"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

// Resolver holds the options that shape import, expand and sort.
type Resolver struct {
	AutoSort                *bool  `toml:"auto_sort"`
	LeadingSeparator        *bool  `toml:"leading_separator"`
	SortAlphabetically      bool   `toml:"sort_alphabetically"`
	ShowMessageOnStatusBar  bool   `toml:"show_message_on_status_bar"`
	Exclude                 string `toml:"exclude"`
	DeterministicCandidates bool   `toml:"deterministic_candidates"`
	MaxOpenFiles            int    `toml:"max_open_files"`
}

type Workspace struct {
	Root    string `toml:"root"`
	Include string `toml:"include"`
}

type UI struct {
	StatusDuration time.Duration `toml:"status_duration"`
}

type Watch struct {
	Debounce      time.Duration `toml:"debounce"`
	ExcludeDirs   []string      `toml:"exclude_dirs"`
	RatePerSecond float64       `toml:"rate_per_second"`
	Burst         int           `toml:"burst"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Address       string `toml:"address"`
	EnableTracing bool   `toml:"enable_tracing"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
}

func (r Resolver) AutoSortEnabled() bool {
	if r.AutoSort == nil {
		return true
	}
	return *r.AutoSort
}

func (r Resolver) LeadingSeparatorEnabled() bool {
	if r.LeadingSeparator == nil {
		return true
	}
	return *r.LeadingSeparator
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg, nil)
	return cfg
}
