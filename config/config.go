package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tambula/dispatch/core/dispatch"
	"github.com/tambula/dispatch/core/model"
	"github.com/tambula/dispatch/core/pricing"
	"github.com/tambula/dispatch/infra/mqtt"
	"github.com/tambula/dispatch/infra/postgres"
	"github.com/tambula/dispatch/infra/redisfeed"
)

// MetricsConfig selects and parameterises the metrics sinks.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// Config is the full service configuration.
type Config struct {
	Dispatch dispatch.Config  `json:"dispatch"`
	Pricing  pricing.Config   `json:"pricing"`
	Zones    []model.CityZone `json:"zones"`
	MQTT     mqtt.Config      `json:"mqtt"`
	Redis    redisfeed.Config `json:"redis"`
	Postgres postgres.Config  `json:"postgres"`
	Metrics  MetricsConfig    `json:"metrics"`
	HTTP     HTTPConfig       `json:"http"`
}

// Load reads the file (YAML or JSON by extension) and applies K_ prefixed
// environment overrides with __ as the key separator.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills zero fields with production defaults.
func (c *Config) SetDefaults() {
	c.Dispatch.SetDefaults()
	c.Pricing.SetDefaults()
	c.MQTT.SetDefaults()
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Metrics.PrometheusAddr == "" {
		c.Metrics.PrometheusAddr = ":9090"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
}

// Validate checks the structural invariants of every sub-config.
func (c Config) Validate() error {
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}
