package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapmodel/internal/emit"
)

// Valid values for the enumerated settings.
var (
	OutputFormats = []string{"auto", "text", "markdown", "json"}
	LogFormats    = []string{"text", "json"}
)

// Validate checks limits, enumerated settings and output targets.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxPasses <= 0 {
		errs = append(errs, fmt.Errorf("max_passes must be positive, got %d", c.MaxPasses))
	}
	if c.MaxAliasPasses <= 0 {
		errs = append(errs, fmt.Errorf("max_alias_passes must be positive, got %d", c.MaxAliasPasses))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("history_limit must not be negative, got %d", c.HistoryLimit))
	}
	if c.WatchDebounce < 0 {
		errs = append(errs, fmt.Errorf("watch_debounce must not be negative, got %s", c.WatchDebounce))
	}
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("output must be one of %s, got %q", strings.Join(OutputFormats, ", "), c.OutputFormat))
	}
	if !slices.Contains(LogFormats, c.LogFormat) {
		errs = append(errs, fmt.Errorf("log_format must be one of %s, got %q", strings.Join(LogFormats, ", "), c.LogFormat))
	}

	types := emit.Default()
	for i, o := range c.Outputs {
		if !types.Has(o.Type) {
			errs = append(errs, fmt.Errorf("outputs[%d]: unknown type %q (available: %s)", i, o.Type, strings.Join(types.Types(), ", ")))
		}
		if o.Path == "" {
			errs = append(errs, fmt.Errorf("outputs[%d]: path is required", i))
		}
	}

	for alias := range c.Aliases {
		if strings.TrimSpace(alias) == "" {
			errs = append(errs, errors.New("aliases: empty alias name"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration in %s: %w", c.source(), errors.Join(errs...))
	}
	return nil
}

// Targets converts the configured outputs to emitter targets.
func (c *Config) Targets() []emit.Target {
	targets := make([]emit.Target, len(c.Outputs))
	for i, o := range c.Outputs {
		targets[i] = emit.Target{Type: o.Type, Path: o.Path, Header: o.Header, Options: o.Options}
	}
	return targets
}

func (c *Config) source() string {
	if c.ConfigFile != "" {
		return c.ConfigFile
	}
	return ConfigFileName
}
