package config

import (
	"fmt"
	"net/url"
)

// Validate performs runtime validations on the loaded configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.RecordsFile == "" {
		u, err := url.Parse(cfg.RegistryEndpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("registry endpoint must be an absolute URL (got %q)", cfg.RegistryEndpoint)
		}
	}
	switch cfg.Probe.Mode {
	case ProbeModeDirect:
	case ProbeModeForward:
		if cfg.Probe.ForwardURL == "" {
			return fmt.Errorf("probe forward URL must be specified when probe mode is %s", ProbeModeForward)
		}
	default:
		return fmt.Errorf("probe mode must be %s or %s (got %q)", ProbeModeDirect, ProbeModeForward, cfg.Probe.Mode)
	}
	if cfg.Probe.Concurrency <= 0 {
		return fmt.Errorf("probe concurrency must be positive (got %d)", cfg.Probe.Concurrency)
	}
	if cfg.Probe.Timeout <= 0 {
		return fmt.Errorf("probe timeout must be positive (got %s)", cfg.Probe.Timeout)
	}
	if cfg.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive (got %s)", cfg.QueryTimeout)
	}
	return nil
}
