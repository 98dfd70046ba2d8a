package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maitre-bot/maitre/pkg/flow"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the flow table for consistency",
	Long: `Loads the table and reports dangling state references, unreachable
transition tokens, and unknown callbacks.

With --watch, stays running and revalidates whenever a flow file changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ok := runValidation(cmd)

		watch, _ := cmd.Flags().GetBool("watch")
		dir, _ := cmd.Flags().GetString("flow")
		if !watch || dir == "" {
			if !ok {
				os.Exit(1)
			}
			return
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		changes, err := flow.Watch(ctx, dir)
		if err != nil {
			fmt.Printf("Failed to watch %s: %v\n", dir, err)
			os.Exit(1)
		}
		fmt.Printf("Watching %s for changes...\n", dir)
		for range changes {
			runValidation(cmd)
		}
	},
}

func runValidation(cmd *cobra.Command) bool {
	table, callbacks, err := buildFlow(cmd)
	if err != nil {
		fmt.Printf("Validation failed: %v\n", err)
		return false
	}
	if err := table.Validate(callbacks); err != nil {
		fmt.Printf("Validation failed: %v\n", err)
		return false
	}
	fmt.Printf("Flow is valid! ✅ (%d states)\n", table.Len())
	return true
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolP("watch", "w", false, "Revalidate whenever a flow file changes")
}
