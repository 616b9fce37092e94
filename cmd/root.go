// Package cmd implements the command-line interface for GoNews.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cmdrun "github.com/jonesrussell/gonews/cmd/run"
	"github.com/jonesrussell/gonews/cmd/serve"
)

var rootCmd = &cobra.Command{
	Use:   "gonews",
	Short: "An automated news pipeline",
	Long: `GoNews harvests stories from RSS feeds, rewrites them with a language
model, renders images and audio, and publishes the result to Telegram, X and
Bluesky. A spreadsheet is the shared work queue between stages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// Load .env early so configuration sees the variables.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "gonews version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(serve.Command())
	rootCmd.AddCommand(cmdrun.Command())
}
