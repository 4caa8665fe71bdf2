package config

import (
	"fmt"
	"os"
	"strconv"

	"goprove/domain/dataset"
	"goprove/internal/errors"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Evaluator EvaluatorConfig
	Scope     ScopeConfig
	Actor     string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds the read-only API server settings
type ServerConfig struct {
	Port string
}

// EvaluatorConfig holds eligibility thresholds
type EvaluatorConfig struct {
	MinNullFraction float64
}

// ScopeConfig is the hash-scope file: the allowlist of tables the
// canonical hasher covers, with per-table ordering configuration.
type ScopeConfig struct {
	Mode   dataset.Mode         `yaml:"mode"`
	Tables []dataset.TableScope `yaml:"tables"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Evaluator: EvaluatorConfig{
			MinNullFraction: getEnvFloatOrDefault("MIN_NULL_FRACTION", 0.95),
		},
		Actor: getEnvOrDefault("CONTROL_PLANE_ACTOR", "control-plane"),
	}

	if scopePath := os.Getenv("HASH_SCOPE_FILE"); scopePath != "" {
		scope, err := LoadScope(scopePath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load hash scope configuration")
		}
		cfg.Scope = *scope
	}

	if cfg.Evaluator.MinNullFraction <= 0 || cfg.Evaluator.MinNullFraction > 1 {
		return nil, errors.ConfigInvalid("MIN_NULL_FRACTION must be in (0, 1]")
	}
	return cfg, nil
}

// LoadScope reads and validates a hash-scope yaml file.
func LoadScope(path string) (*ScopeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scope config: %w", err)
	}

	var scope ScopeConfig
	if err := yaml.Unmarshal(data, &scope); err != nil {
		return nil, fmt.Errorf("parsing scope config: %w", err)
	}
	if err := validateScope(&scope); err != nil {
		return nil, fmt.Errorf("validating scope config: %w", err)
	}
	return &scope, nil
}

func validateScope(scope *ScopeConfig) error {
	if scope.Mode == "" {
		scope.Mode = dataset.ModeStrict
	}
	if scope.Mode != dataset.ModeStrict && scope.Mode != dataset.ModeFastDev {
		return fmt.Errorf("unknown mode %q", scope.Mode)
	}
	if len(scope.Tables) == 0 {
		return fmt.Errorf("at least one table is required")
	}
	seen := make(map[string]bool)
	for _, t := range scope.Tables {
		if t.Name == "" {
			return fmt.Errorf("table name cannot be empty")
		}
		if seen[t.Name] {
			return fmt.Errorf("table %q listed twice", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
