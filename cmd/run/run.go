// Package run implements the run command: a one-shot pipeline invocation
// that prints the step report as JSON.
package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/gonews/internal/bootstrap"
	"github.com/jonesrussell/gonews/internal/config"
	"github.com/jonesrussell/gonews/internal/stage"
)

var workflowFlag string

// Command returns the run command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&workflowFlag, "workflow", "",
		"comma-separated stages to run (defaults to WORKFLOW)")
	return cmd
}

func runOnce(ctx context.Context) error {
	cfg := config.Load()
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}

	spec := workflowFlag
	if spec == "" {
		spec = cfg.App.Workflow
	}
	names, err := stage.ParseWorkflow(spec)
	if err != nil {
		return err
	}
	steps, err := app.Steps(names)
	if err != nil {
		return err
	}

	report, err := app.Runner.Execute(ctx, steps)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))

	if !report.OK {
		return errors.New("workflow failed")
	}
	return nil
}
