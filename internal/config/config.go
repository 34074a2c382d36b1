package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = ".verbump"
	envPrefix  = "VERBUMP"
)

type Config struct {
	Manifest      string `mapstructure:"manifest"`
	PreID         string `mapstructure:"preid"`
	TagPrefix     string `mapstructure:"tag_prefix"`
	CommitMessage string `mapstructure:"commit_message"`
	GitTagVersion bool   `mapstructure:"git_tag_version"`
	StateDir      string `mapstructure:"state_dir"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Manifest:      "composer.json",
		PreID:         "alpha",
		TagPrefix:     "",
		CommitMessage: "%s",
		GitTagVersion: true,
		StateDir:      ".verbump-state",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Manifest) == "" {
		return fmt.Errorf("manifest cannot be empty")
	}
	if strings.TrimSpace(c.CommitMessage) == "" {
		return fmt.Errorf("commit_message cannot be empty")
	}
	if strings.Count(c.CommitMessage, "%s") > 1 {
		return fmt.Errorf("commit_message may contain %%s at most once")
	}
	if err := ValidateTagPrefix(c.TagPrefix); err != nil {
		return fmt.Errorf("invalid tag_prefix: %w", err)
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir cannot be empty")
	}
	// Check for path traversal in state directory
	if strings.Contains(filepath.ToSlash(c.StateDir), "..") {
		return fmt.Errorf("state_dir contains invalid path traversal")
	}
	return nil
}

// ValidateTagPrefix rejects prefixes git would refuse inside a ref name
func ValidateTagPrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if strings.ContainsAny(prefix, " ~^:?*[\\") {
		return fmt.Errorf("prefix %q contains characters not allowed in a tag name", prefix)
	}
	if strings.HasPrefix(prefix, "-") || strings.HasPrefix(prefix, "/") || strings.Contains(prefix, "..") {
		return fmt.Errorf("prefix %q is not a valid tag name start", prefix)
	}
	return nil
}

// Load reads configuration through v. Callers bind command-line flags to v
// beforehand so flags take precedence over the environment and the config file.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	// Configure environment variables
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("manifest", defaults.Manifest)
	v.SetDefault("preid", defaults.PreID)
	v.SetDefault("tag_prefix", defaults.TagPrefix)
	v.SetDefault("commit_message", defaults.CommitMessage)
	v.SetDefault("git_tag_version", defaults.GitTagVersion)
	v.SetDefault("state_dir", defaults.StateDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}
