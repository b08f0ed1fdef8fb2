package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/km-arc/go-spring/example/application"
	"github.com/km-arc/go-spring/framework/actuator"
	"github.com/km-arc/go-spring/framework/app"
	"github.com/km-arc/go-spring/framework/beans"
	"github.com/km-arc/go-spring/framework/config"
	"github.com/km-arc/go-spring/framework/logging"
	"github.com/km-arc/go-spring/framework/metrics"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:          "gospring",
		Short:        "Spring-style bean container demos",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "env files to load (default .env)")

	setup := func() (*config.Config, *zap.Logger, error) {
		cfg := config.Load(envFiles...)
		if err := cfg.LoadScanManifest(); err != nil {
			return nil, nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return nil, nil, err
		}
		return cfg, logger, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "factory",
			Short: "Drive the bean factory phase by phase over the example beans",
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, logger, err := setup()
				if err != nil {
					return err
				}
				defer logger.Sync() //nolint:errcheck
				return application.RunFactory(cmd.OutOrStdout(), beans.WithLogger(logger))
			},
		},
		&cobra.Command{
			Use:   "context",
			Short: "Start and close an application context over the example beans",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, logger, err := setup()
				if err != nil {
					return err
				}
				defer logger.Sync() //nolint:errcheck
				return application.RunContext(cmd.OutOrStdout(),
					app.WithConfig(cfg),
					app.WithLogger(logger),
				)
			},
		},
		serveCommand(setup),
	)
	return root
}

func serveCommand(setup func() (*config.Config, *zap.Logger, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [base-package...]",
		Short: "Refresh a context and serve the actuator until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			packages := args
			if len(packages) == 0 {
				packages = cfg.Scan.BasePackages
			}
			if len(packages) == 0 {
				packages = []string{application.Namespace}
			}
			enabled := cfg.Actuator.Enabled || addr != ""
			if addr == "" {
				addr = cfg.Actuator.Addr
			}

			catalog := beans.NewCatalog()
			if err := catalog.Install(application.Module{Out: cmd.OutOrStdout()}); err != nil {
				return err
			}

			ctx := app.New(catalog,
				app.WithConfig(cfg),
				app.WithLogger(logger),
				app.WithMetrics(metrics.NewCollector()),
			)
			if err := ctx.Refresh(packages...); err != nil {
				if beans.IsFatal(err) {
					return err
				}
				logger.Warn("context refreshed with failures", zap.Error(err))
			}
			defer ctx.Close() //nolint:errcheck

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !enabled {
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] running, actuator disabled\n", cfg.App.Name, ctx.ID())
				<-sigCtx.Done()
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] actuator on %s\n", cfg.App.Name, ctx.ID(), addr)
			return actuator.New(ctx).ListenAndServe(sigCtx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "actuator listen address; enables the actuator (default ACTUATOR_ADDR when ACTUATOR_ENABLED)")
	return cmd
}
