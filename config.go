package multiform

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config sizes the shared services used by forms.
type Config struct {
	// BoundaryPoolSize is the number of boundaries generated per refill.
	BoundaryPoolSize int `yaml:"boundary_pool_size"`

	// MIMECacheSize is the number of extensions remembered by the MIME cache.
	MIMECacheSize int `yaml:"mime_cache_size"`

	// HeaderCacheSize is the number of rendered header blocks remembered.
	HeaderCacheSize int `yaml:"header_cache_size"`

	// MIMETypes adds or overrides extension to content type mappings.
	MIMETypes map[string]string `yaml:"mime_types"`
}

// DefaultConfig returns the configuration used by DefaultServices.
func DefaultConfig() Config {
	return Config{
		BoundaryPoolSize: DefaultBoundaryPoolSize,
		MIMECacheSize:    DefaultMIMECacheSize,
		HeaderCacheSize:  DefaultHeaderCacheSize,
	}
}

// ParseConfig decodes a YAML document into a Config. Sizes that are absent or
// non-positive take their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("form: failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BoundaryPoolSize <= 0 {
		c.BoundaryPoolSize = DefaultBoundaryPoolSize
	}
	if c.MIMECacheSize <= 0 {
		c.MIMECacheSize = DefaultMIMECacheSize
	}
	if c.HeaderCacheSize <= 0 {
		c.HeaderCacheSize = DefaultHeaderCacheSize
	}
}
