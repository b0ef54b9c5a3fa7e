package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadOrDefault loads configPath when it exists and falls back to DefaultConfig otherwise.
// A missing file is not an error; every other read or parse failure is.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(configPath)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	if cfg.Discovery.Mode != "" {
		mode, err := ParseMode(string(cfg.Discovery.Mode))
		if err != nil {
			return nil, err
		}
		cfg.Discovery.Mode = mode
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) error {
	cfg.Database.Host = expandEnvVar(cfg.Database.Host)
	cfg.Database.User = expandEnvVar(cfg.Database.User)
	cfg.Database.Password = expandEnvVar(cfg.Database.Password)
	cfg.Database.Database = expandEnvVar(cfg.Database.Database)

	cfg.Export.BaseIRI = expandEnvVar(cfg.Export.BaseIRI)
	cfg.Metrics.Textfile = expandEnvVar(cfg.Metrics.Textfile)
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// Overrides holds CLI flag values that take precedence over the config file.
// Zero values leave the file setting untouched.
type Overrides struct {
	LogLevel              string
	LogFormat             string
	Mode                  string
	EntityThreshold       int
	RelationshipThreshold int
	AttributeThreshold    int
	MetricsTextfile       string
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
	if o.Mode != "" {
		mode, err := ParseMode(o.Mode)
		if err != nil {
			return err
		}
		c.Discovery.Mode = mode
	}
	if o.EntityThreshold > 0 {
		c.Discovery.EntityThreshold = o.EntityThreshold
	}
	if o.RelationshipThreshold > 0 {
		c.Discovery.RelationshipThreshold = o.RelationshipThreshold
	}
	if o.AttributeThreshold > 0 {
		c.Discovery.AttributeThreshold = o.AttributeThreshold
	}
	if o.MetricsTextfile != "" {
		c.Metrics.Textfile = o.MetricsTextfile
	}
	return nil
}
