package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maitre-bot/maitre"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of maitre",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("maitre version %s\n", strings.TrimSpace(maitre.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
