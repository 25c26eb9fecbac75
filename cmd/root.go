// Package cmd provides the command-line interface for mdview.
//
// Configuration is read, highest priority first, from command-line flags,
// MDVIEW_ prefixed environment variables (MDVIEW_SERVER_PORT_MIN,
// MDVIEW_RENDER_STYLE, ...) and a .mdview.yml file in the working
// directory. MDVIEW_CONFIG_FILE or --config point at a different file.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/mdview/internal/config"
	"github.com/conneroisu/mdview/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mdview",
	Short: "Preview the markdown files of a directory in the browser",
	Long: `mdview serves the markdown files of a directory as styled HTML on a
loopback port, picking the first free port from 28000 to 30000.

  GET /          lists the .md files (or redirects when there is only one)
  GET /name      renders name.md
  GET /name?c    renders name.md as strict CommonMark

Running mdview without a subcommand is the same as "mdview serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .mdview.yml, can also use MDVIEW_CONFIG_FILE env var)")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.StringP("dir", "d", config.DefaultDir, "directory to serve")
	flags.String("style", config.DefaultStyle, "syntax highlighting style (see \"mdview styles\")")

	AddFlagValidation(rootCmd.PersistentFlags(), "log-format", func(format string) error {
		return ValidateFormat(format, []string{"text", "json"})
	})

	BindFlags(flags, map[string]string{
		"log-level":  "log-level",
		"log-format": "logging.format",
		"dir":        "render.dir",
		"style":      "render.style",
	})

	addServeFlags(rootCmd)
}

// initConfig picks the config file, enables MDVIEW_ environment overrides and
// reads the file if there is one.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("MDVIEW_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mdview")
	}

	viper.SetEnvPrefix("MDVIEW")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	config.RegisterDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger from the loaded configuration.
func newLogger(cfg *config.Config, out io.Writer) logging.Logger {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: out,
	})
}
