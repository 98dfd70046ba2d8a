package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maitre",
	Short: "Maitre is a conversation engine for restaurant onboarding over WhatsApp",
	Long: `Maitre drives multi-step WhatsApp conversations from a declarative state
table: each state has a prompt, a validator, an optional AI-assisted
extractor, and token-keyed transitions.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Missing .env is fine; real deployments use proper env vars.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands). An empty --flow uses
	// the built-in onboarding flow.
	rootCmd.PersistentFlags().String("flow", "", "Directory of YAML flow files (default: built-in onboarding flow)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}
