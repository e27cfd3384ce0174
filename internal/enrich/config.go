package enrich

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config is the waterfall configuration: which providers run, in what order,
// and how hard pattern generation tries.
type Config struct {
	Providers          []string `yaml:"providers"`
	MaxPatternAttempts int      `yaml:"max_pattern_attempts"`
	HarvestMaxPages    int      `yaml:"harvest_max_pages"`
}

// DefaultConfig returns the waterfall defaults used when no YAML file is
// supplied.
func DefaultConfig() Config {
	return Config{
		Providers:          []string{"snov", "hunter"},
		MaxPatternAttempts: 6,
		HarvestMaxPages:    20,
	}
}

// LoadConfig reads waterfall config from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "enrich: read config %s", path)
	}

	// The YAML has a top-level "waterfall" key.
	var wrapper struct {
		Waterfall Config `yaml:"waterfall"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Config{}, eris.Wrap(err, "enrich: parse config")
	}

	cfg := wrapper.Waterfall
	def := DefaultConfig()
	if len(cfg.Providers) == 0 {
		cfg.Providers = def.Providers
	}
	if cfg.MaxPatternAttempts <= 0 {
		cfg.MaxPatternAttempts = def.MaxPatternAttempts
	}
	if cfg.HarvestMaxPages <= 0 {
		cfg.HarvestMaxPages = def.HarvestMaxPages
	}
	return cfg, nil
}
