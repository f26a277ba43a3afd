package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tpcministries/ldc-command-center/internal/engine"
	"github.com/tpcministries/ldc-command-center/internal/server"
)

const serveLongDesc string = `Run the HTTP API. With scheduler.enabled (LDC_SCHEDULER_ENABLED=true)
the periodic summarization and suggestion jobs run in the same process.`

func newServeCmd() *cobra.Command {
	var withScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("scheduler") {
				a.cfg.Scheduler.Enabled = withScheduler
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a)
		},
	}

	cmd.Flags().BoolVar(&withScheduler, "scheduler", false, "Run the periodic jobs (overrides config)")

	return cmd
}

// runServe serves until ctx is canceled.
func runServe(ctx context.Context, a *app) error {
	if a.cfg.Scheduler.Enabled {
		sched, err := engine.NewScheduler(a.engine, engine.SchedulerConfig{
			SummarizeInterval: a.cfg.Scheduler.SummarizeInterval,
			SuggestInterval:   a.cfg.Scheduler.SuggestInterval,
			AgentType:         a.cfg.Scheduler.AgentType,
		})
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				a.logger.Error("scheduler shutdown error", "error", err)
			}
		}()
	}

	_, done, err := server.Start(ctx, a.cfg.Server, server.Deps{
		Engine:   a.engine,
		Logger:   a.logger,
		Metrics:  a.metrics,
		Gatherer: a.registry,
	})
	if err != nil {
		return err
	}

	<-done
	a.logger.Info("shutting down")
	return nil
}
