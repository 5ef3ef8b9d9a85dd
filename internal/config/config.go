package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"formbuilder-service/internal/domain"
	"formbuilder-service/internal/engine"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		// Store keeps form layouts in Redis when Postgres is not configured.
		Store bool `yaml:"store"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Builder Builder `yaml:"builder"`
}

// Builder overrides the structural policy of the question catalog.
type Builder struct {
	Pins         map[string]int `yaml:"pins"`
	Essential    []string       `yaml:"essential"`
	DeleteExempt []string       `yaml:"deleteExempt"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Apply returns base with every table the builder section sets replaced.
// Unset tables keep their defaults.
func (b Builder) Apply(base engine.Policy) (engine.Policy, error) {
	out := base
	if len(b.Pins) > 0 {
		out.Pins = make(engine.Pins, len(b.Pins))
		for typeID, pos := range b.Pins {
			if pos < 1 {
				return base, fmt.Errorf("builder.pins.%s: position must be at least 1", typeID)
			}
			out.Pins[domain.QuestionType(typeID)] = pos
		}
	}
	if len(b.Essential) > 0 {
		out.Essential = typeSet(b.Essential)
	}
	if len(b.DeleteExempt) > 0 {
		out.DeleteExempt = typeSet(b.DeleteExempt)
	}
	return out, nil
}

func typeSet(types []string) map[domain.QuestionType]bool {
	out := make(map[domain.QuestionType]bool, len(types))
	for _, t := range types {
		out[domain.QuestionType(t)] = true
	}
	return out
}
