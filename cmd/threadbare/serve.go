package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/threadbare/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve [story.yaml]",
	Short: "Start the HTTP server",
	Long:  `Serves story sessions over a JSON API, with SSE updates and Prometheus metrics.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		story, err := storyArg(cmd, args)
		if err != nil {
			return err
		}
		configPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")
		addr, _ := cmd.Flags().GetString("addr")

		return cli.Serve(cli.ServeOptions{
			StoryPath:  story,
			ConfigPath: configPath,
			Addr:       addr,
			Debug:      debug,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("story", "story.yaml", "Story file to serve")
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
}
