package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/threadbare"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of threadbare",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("threadbare version %s\n", strings.TrimSpace(threadbare.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
