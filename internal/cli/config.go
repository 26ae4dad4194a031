package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
)

// Config represents the keepmark configuration from keepmark.yaml.
type Config struct {
	// Policy is the promotion policy for abstract methods and interface
	// methods with a used implementation: "conservative" or "precise".
	Policy string `mapstructure:"policy" yaml:"policy"`

	// Explain selects the shortest marker, which keeps a cause chain for
	// every mark. Without it the simple marker only records states.
	Explain bool `mapstructure:"explain" yaml:"explain"`

	// MaxPasses caps the passes of each marking round. 0 means no cap.
	MaxPasses int `mapstructure:"max_passes" yaml:"max_passes"`

	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Report ReportConfig `mapstructure:"report" yaml:"report"`
}

// StoreConfig holds run store settings.
type StoreConfig struct {
	// Path of the SQLite database. Empty disables the store.
	Path string `mapstructure:"path" yaml:"path"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	// Format is used when --format is not given.
	Format string `mapstructure:"format" yaml:"format"`

	// MaxHops caps explanation chains. 0 means the node count of the
	// program.
	MaxHops int `mapstructure:"max_hops" yaml:"max_hops"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("KEEPMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, configPath, err
	}

	return &cfg, configPath, nil
}

// DefaultConfig returns the configuration used when no file or
// environment overrides exist.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("policy", "conservative")
	v.SetDefault("explain", true)
	v.SetDefault("max_passes", 0)

	v.SetDefault("store.path", "")

	v.SetDefault("report.format", "text")
	v.SetDefault("report.max_hops", 0)
}

func (c *Config) validate() error {
	switch c.Policy {
	case "conservative", "precise":
	default:
		return fmt.Errorf("invalid policy %q in config: must be conservative or precise", c.Policy)
	}
	if !isValidFormat(c.Report.Format) {
		return fmt.Errorf("invalid report.format %q in config: must be one of %v", c.Report.Format, ValidFormats)
	}
	if c.MaxPasses < 0 {
		return fmt.Errorf("invalid max_passes %d in config: must be non-negative", c.MaxPasses)
	}
	if c.Report.MaxHops < 0 {
		return fmt.Errorf("invalid report.max_hops %d in config: must be non-negative", c.Report.MaxHops)
	}
	return nil
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for keepmark.yaml or keepmark.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"keepmark.yaml", "keepmark.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Stop at the repo root.
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}
