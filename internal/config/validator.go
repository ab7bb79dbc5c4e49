package config

import "runtime"

// Validator applies smart defaults derived from the running machine once
// KDL overlays (if any) have been merged.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// SetSmartDefaults fills in zero-valued fields that should auto-detect
// from the runtime environment rather than carry a fixed default.
func (v *Validator) SetSmartDefaults(cfg *Config) {
	if cfg.Index.Parallelism == 0 {
		cfg.Index.Parallelism = max(1, runtime.NumCPU()-1)
	}
	if cfg.Index.MaxFileBytes == 0 {
		cfg.Index.MaxFileBytes = DefaultMaxFileBytes
	}
	if len(cfg.Index.Languages) == 0 {
		cfg.Index.Languages = []string{"rust", "python"}
	}
}
