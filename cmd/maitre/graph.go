package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maitre-bot/maitre/internal/presentation/graph"
	"github.com/maitre-bot/maitre/internal/runtime"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the flow graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) representing the flow's states and transitions.`,
	Run: func(cmd *cobra.Command, args []string) {
		table, _, err := buildFlow(cmd)
		if err != nil {
			fmt.Printf("Error loading flow: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.Mermaid(table, runtime.DefaultEntryState, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
