// Package serve implements the serve command: the long-running HTTP trigger
// server, with an optional in-process cron.
package serve

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/gonews/internal/api"
	"github.com/jonesrussell/gonews/internal/bootstrap"
	"github.com/jonesrussell/gonews/internal/config"
	"github.com/jonesrussell/gonews/internal/logger"
)

// Command returns the serve command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP trigger server",
		Long: `Starts the HTTP server that external cron callers hit to trigger
pipeline runs. With CRON_SCHEDULE set the server also triggers itself.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Options{
		Addr:            cfg.Server.Address,
		Debug:           cfg.App.Development,
		Token:           cfg.App.CronSecret,
		DefaultWorkflow: cfg.App.Workflow,
		ReadTimeout:     cfg.Server.ReadTimeout,
		// The trigger endpoint runs a whole pipeline synchronously, so the
		// write timeout has to cover the longest run.
		WriteTimeout: cfg.Server.WriteTimeout,
	}, app.Runner, app.Steps, app.Log)

	if cfg.App.CronSchedule != "" {
		c, err := api.NewCron(cfg.App.CronSchedule, app.Runner, app.Steps, cfg.App.Workflow, app.Log)
		if err != nil {
			return fmt.Errorf("configure cron: %w", err)
		}
		c.Start()
		defer c.Stop()
		app.Log.Info("cron enabled", logger.String("schedule", cfg.App.CronSchedule))
	}

	return server.Start(ctx)
}
