// Package config provides configuration management for mdview using Viper
// for loading from files, environment variables, and command-line flags.
//
// Values come from a .mdview.yml file, MDVIEW_ prefixed environment variables
// (MDVIEW_SERVER_PORT_MIN, MDVIEW_RENDER_STYLE, ...) and flags bound by the
// cmd package. Load applies defaults for anything left unset and validates
// the result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/mdview/internal/validation"
)

const (
	DefaultHost            = "localhost"
	DefaultPortMin         = 28000
	DefaultPortMax         = 30000
	DefaultDir             = "."
	DefaultStyle           = "pygments"
	DefaultTabWidth        = 2
	DefaultShutdownTimeout = 5 * time.Second
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	// PortMin and PortMax bound the ports tried, inclusive.
	PortMin         int           `mapstructure:"port_min" yaml:"port_min"`
	PortMax         int           `mapstructure:"port_max" yaml:"port_max"`
	MetricsAddr     string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type RenderConfig struct {
	// Dir is the directory listed and served. It stands in for the process
	// working directory.
	Dir      string `mapstructure:"dir" yaml:"dir"`
	Style    string `mapstructure:"style" yaml:"style"`
	TabWidth int    `mapstructure:"tab_width" yaml:"tab_width"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// RegisterDefaults records the defaults with viper so that keys without a
// bound flag still pick up MDVIEW_ environment variables on Unmarshal.
// logging.level is left out so the --log-level fallback in Load can tell
// whether it was set.
func RegisterDefaults() {
	d := Default()
	viper.SetDefault("server.host", d.Server.Host)
	viper.SetDefault("server.port_min", d.Server.PortMin)
	viper.SetDefault("server.port_max", d.Server.PortMax)
	viper.SetDefault("server.metrics_addr", d.Server.MetricsAddr)
	viper.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	viper.SetDefault("render.dir", d.Render.Dir)
	viper.SetDefault("render.style", d.Render.Style)
	viper.SetDefault("render.tab_width", d.Render.TabWidth)
	viper.SetDefault("logging.format", d.Logging.Format)
}

// Load reads the configuration from viper, fills in defaults and validates
// the result.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// The root command binds --log-level at the top level.
	if viper.IsSet("log-level") && !viper.IsSet("logging.level") {
		config.Logging.Level = viper.GetString("log-level")
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if config.Server.PortMin == 0 {
		config.Server.PortMin = DefaultPortMin
	}
	if config.Server.PortMax == 0 {
		config.Server.PortMax = DefaultPortMax
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if config.Render.Dir == "" {
		config.Render.Dir = DefaultDir
	}
	if config.Render.Style == "" {
		config.Render.Style = DefaultStyle
	}
	if config.Render.TabWidth == 0 {
		config.Render.TabWidth = DefaultTabWidth
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateRenderConfig(&config.Render); err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	if err := validateLoggingConfig(&config.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validateServerConfig(config *ServerConfig) error {
	for _, port := range []int{config.PortMin, config.PortMax} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("port %d is not in valid range 1-65535", port)
		}
	}
	if config.PortMin > config.PortMax {
		return fmt.Errorf("port_min %d is greater than port_max %d", config.PortMin, config.PortMax)
	}

	if err := validation.ValidateHost(config.Host); err != nil {
		return err
	}

	if config.MetricsAddr != "" {
		if err := validation.ValidateListenAddr(config.MetricsAddr); err != nil {
			return fmt.Errorf("metrics_addr: %w", err)
		}
	}

	if config.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout must not be negative")
	}

	return nil
}

func validateRenderConfig(config *RenderConfig) error {
	info, err := os.Stat(config.Dir)
	if err != nil {
		return fmt.Errorf("dir %s: %w", config.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("dir %s is not a directory", config.Dir)
	}

	if config.TabWidth < 1 || config.TabWidth > 8 {
		return fmt.Errorf("tab_width %d is not in valid range 1-8", config.TabWidth)
	}

	return nil
}

func validateLoggingConfig(config *LoggingConfig) error {
	switch strings.ToLower(config.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown level %q", config.Level)
	}

	switch config.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q (supported: text, json)", config.Format)
	}

	return nil
}

// RootName returns the base name of the served directory, resolved to an
// absolute path so "." reports the real directory name.
func (c *Config) RootName() string {
	abs, err := filepath.Abs(c.Render.Dir)
	if err != nil {
		return filepath.Base(c.Render.Dir)
	}
	return filepath.Base(abs)
}
