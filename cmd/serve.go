package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mdview/internal/config"
	"github.com/conneroisu/mdview/internal/monitoring"
	"github.com/conneroisu/mdview/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the markdown files of a directory",
	Long: `Serve the markdown files of a directory on the first free port of
the configured range (28000-30000 by default).

Examples:
  mdview serve                          # Serve the current directory
  mdview serve --dir docs               # Serve another directory
  mdview serve --metrics-addr :9100     # Also expose Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
}

// addServeFlags adds the listener flags. The root command runs serve too, so
// both carry them; whichever command runs owns the viper binding.
func addServeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("host", config.DefaultHost, "host to bind to")
	flags.Int("port-min", config.DefaultPortMin, "first port to try")
	flags.Int("port-max", config.DefaultPortMax, "last port to try")
	flags.String("metrics-addr", "", "address for the Prometheus metrics listener (disabled when empty)")

	AddFlagValidation(flags, "port-min", ValidatePort)
	AddFlagValidation(flags, "port-max", ValidatePort)

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		BindFlags(cmd.Flags(), map[string]string{
			"host":         "server.host",
			"port-min":     "server.port_min",
			"port-max":     "server.port_max",
			"metrics-addr": "server.metrics_addr",
		})
		return nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	opts := []server.Option{server.WithLogger(logger)}
	if cfg.Server.MetricsAddr != "" {
		opts = append(opts, server.WithMetrics(monitoring.NewMetrics()))
	}

	srv, err := server.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx, func(addr net.Addr) {
		fmt.Fprintf(cmd.OutOrStdout(), "serving markdown from %s on http://%s\n", cfg.RootName(), addr)
	})
}
