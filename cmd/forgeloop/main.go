// forgeloop is a CLI for the agent loop: it attaches a model provider to a
// local project sandbox and drives changes through tool calls.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "forgeloop",
	Short: "An agent loop that edits and runs a project through tool calls",
	Long: `forgeloop connects a model provider to a local project sandbox.
The model edits files, runs commands, and starts the app's dev process
through tool calls; forgeloop executes them and feeds the results back
until the model answers in plain text.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.forgeloop/config.json)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(statusCmd)
}
