package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/threadbare/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [story.yaml]",
	Short: "Export the story graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the story. With --save, the nodes visited by that save and its current stack are highlighted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		story, err := storyArg(cmd, args)
		if err != nil {
			return err
		}
		configPath, _ := cmd.Flags().GetString("config")
		save, _ := cmd.Flags().GetString("save")
		return cli.Graph(cli.GraphOptions{StoryPath: story, ConfigPath: configPath, SaveID: save}, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("story", "story.yaml", "Story file to draw")
	graphCmd.Flags().StringP("save", "s", "", "Save slot to overlay")
}
