package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "viper",
	Short: "Viper traces the control flow of an instrumented program and " +
		"routes each occurrence through a filter, transform, write pipeline.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is fine; flags and defaults still apply.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
