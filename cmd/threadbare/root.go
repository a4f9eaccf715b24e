package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/threadbare/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "threadbare",
	Short: "Threadbare runs branching dialogue stories",
	Long: `Threadbare plays dialogue stories written in YAML, in the terminal or over HTTP.
Progress is saved after every line, choice, timer and pause.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Log runner events to stderr")
}

// storyArg returns the story path from args or the --story flag.
func storyArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	path, _ := cmd.Flags().GetString("story")
	if path == "" {
		return "", fmt.Errorf("no story given")
	}
	return path, nil
}
