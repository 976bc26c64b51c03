// Package cli implements the geocoding command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"geocoding/apis"
	"geocoding/config"
	"geocoding/manager"
	"geocoding/observability"
)

type flags struct {
	configPath string
	provider   string
	verbose    bool
	asJSON     bool
}

// app is what the subcommands share once the root pre-run has loaded the
// configuration.
type app struct {
	config   *config.Config
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	opts     apis.Options
}

// manager builds the facade for the selected provider.
func (a *app) manager(provider string) (*manager.Manager, error) {
	geocoder, err := apis.New(provider, a.config, a.logger, a.opts)
	if err != nil {
		return nil, err
	}

	opts := []manager.Option{
		manager.WithLogger(a.logger),
		manager.WithMetrics(a.metrics),
	}
	if policy := a.config.RetryPolicy(); policy != nil {
		opts = append(opts, manager.WithRetry(policy))
	}

	return manager.New(geocoder, opts...), nil
}

// New returns the root command. opts is passed on to every provider client.
func New(opts apis.Options) (*cobra.Command, error) {
	f := &flags{}
	a := &app{opts: opts}

	cmd := &cobra.Command{
		Use:           "geocoding",
		Short:         "CLI application for forward and reverse geocoding",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			if f.provider != "" {
				cfg.Provider = f.provider
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			level := cfg.LogLevel
			if f.verbose {
				level = "debug"
			}

			a.config = cfg
			a.logger = observability.NewLogger(os.Stderr, level)
			a.registry = prometheus.NewRegistry()
			a.metrics = observability.NewMetrics(a.registry)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "path to a YAML config file (default: embedded)")
	cmd.PersistentFlags().StringVarP(&f.provider, "provider", "p", "", fmt.Sprintf("provider to use, one of %v", config.Providers))
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&f.asJSON, "json", false, "print results as JSON")

	cmd.AddCommand(
		newForwardCmd(a, f),
		newReverseCmd(a, f),
		newServeCmd(a),
		newProvidersCmd(),
	)

	return cmd, nil
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, cmd *cobra.Command) error {
	return cmd.ExecuteContext(ctx)
}
