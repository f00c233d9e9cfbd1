package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/haukened/rr-zonecheck/internal/dns/common/clock"
	"github.com/haukened/rr-zonecheck/internal/dns/common/log"
	"github.com/haukened/rr-zonecheck/internal/dns/config"
	"github.com/haukened/rr-zonecheck/internal/dns/infra/metrics"
	"github.com/haukened/rr-zonecheck/internal/dns/services/engine"
)

const (
	version = "0.1.0-dev"
	appName = "rr-zonecheck"
)

// app holds the components shared by every subcommand. It is populated by
// the root command's pre-run hook once configuration and logging are set up.
type app struct {
	cfg     *config.AppConfig
	logger  log.Logger
	clock   clock.Clock
	metrics *metrics.Recorder
	engine  *engine.Engine
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           appName,
		Short:         "Validate DNS zone data and RPZ rules",
		Long:          "rr-zonecheck validates DNS records, SOA updates and zone files, and\nmaintains a local store of Response Policy Zone rules.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	root.AddCommand(
		newZoneCommand(a),
		newSOACommand(a),
		newRPZCommand(a),
	)
	return root
}

// setup loads configuration from the environment and wires the engine.
func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		return fmt.Errorf("logging configuration error: %w", err)
	}

	a.cfg = cfg
	a.logger = log.GetLogger()
	a.clock = clock.RealClock{}
	a.metrics = metrics.New()
	a.engine = engine.New(engine.Options{
		Logger:     a.logger,
		Clock:      a.clock,
		Metrics:    a.metrics,
		DefaultTTL: cfg.DefaultTTL,
	})

	log.Debug(map[string]any{
		"version":  version,
		"env":      cfg.Env,
		"zone_dir": cfg.ZoneDir,
		"rpz_db":   cfg.RPZDB,
	}, "configuration loaded")
	return nil
}

// runE wraps a subcommand so the metrics textfile is written whether or not
// the command fails.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		return multierr.Append(err, a.flushMetrics())
	}
}

func (a *app) flushMetrics() error {
	if a.cfg == nil || a.cfg.MetricsFile == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", a.cfg.MetricsFile, err)
	}
	return nil
}
