package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/ontoforge/internal/config"
	"github.com/dbsmedya/ontoforge/internal/exporter"
	"github.com/dbsmedya/ontoforge/internal/logger"
	"github.com/dbsmedya/ontoforge/internal/schema"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile               string
	logLevel              string
	logFormat             string
	mode                  string
	entityThreshold       int
	relationshipThreshold int
	attributeThreshold    int
	metricsTextfile       string
	noColor               bool
)

var rootCmd = &cobra.Command{
	Use:   "ontoforge",
	Short: "Ontology discovery and promotion engine",
	Long: `OntoForge grows an entity/relationship schema from generated documents.

It scans text for recurring entity, relationship and attribute phrasings,
tracks them as candidates, and promotes candidates that cross the configured
thresholds into the schema according to the discovery mode:

  strict     only the core types are valid, nothing is discovered
  guided     candidates become proposals that must be approved
  discovery  promotes into an empty schema
  hybrid     promotes on top of the core types (default)

Schemas can be exported as JSON or OWL, turned into extraction rules,
and stored as versioned snapshots in MySQL.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.Enable = false
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "ontoforge.yaml",
		"Path to configuration file (defaults are used when it does not exist)")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Discovery overrides
	rootCmd.PersistentFlags().StringVarP(&mode, "mode", "m", "",
		"Override discovery mode (strict, guided, discovery, hybrid)")
	rootCmd.PersistentFlags().IntVar(&entityThreshold, "entity-threshold", 0,
		"Override entity promotion threshold")
	rootCmd.PersistentFlags().IntVar(&relationshipThreshold, "relationship-threshold", 0,
		"Override relationship promotion threshold")
	rootCmd.PersistentFlags().IntVar(&attributeThreshold, "attribute-threshold", 0,
		"Override attribute promotion threshold")

	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "",
		"Write Prometheus metrics to this textfile on exit")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable coloured output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() config.Overrides {
	return config.Overrides{
		LogLevel:              logLevel,
		LogFormat:             logFormat,
		Mode:                  mode,
		EntityThreshold:       entityThreshold,
		RelationshipThreshold: relationshipThreshold,
		AttributeThreshold:    attributeThreshold,
		MetricsTextfile:       metricsTextfile,
	}
}

// loadConfig reads the config file, applies flag overrides and validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyOverrides(GetCLIOverrides()); err != nil {
		return nil, fmt.Errorf("invalid flag: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads configuration and builds the logger every command uses.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log.WithMode(cfg.Discovery.Mode), nil
}

// loadSchemaFile reads a JSON schema export. An empty path returns nil so callers fall
// back to the mode's built-in types.
func loadSchemaFile(path string) (*schema.Store, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	store, _, err := exporter.ImportJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", path, err)
	}
	return store, nil
}

// writeOutput writes data to path, or to the command's output when path is empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		out := cmd.OutOrStdout()
		if _, err := out.Write(data); err != nil {
			return err
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			_, err := fmt.Fprintln(out)
			return err
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// commandContext returns the command's context, or a background context when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
