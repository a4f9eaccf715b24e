package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/threadbare/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [story.yaml]",
	Short: "Check the story for consistency",
	Long:  `Compiles the story, then crawls it from the start node and reports unreachable nodes.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		story, err := storyArg(cmd, args)
		if err != nil {
			return err
		}
		configPath, _ := cmd.Flags().GetString("config")
		if err := cli.Validate(story, configPath, os.Stdout); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Println("Story is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("story", "story.yaml", "Story file to check")
}
