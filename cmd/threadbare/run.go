package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/threadbare/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [story.yaml]",
	Short: "Play a story in the terminal",
	Long:  `Plays a story interactively. Progress is autosaved and resumed on the next run with the same save slot.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		story, err := storyArg(cmd, args)
		if err != nil {
			return err
		}
		configPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")
		save, _ := cmd.Flags().GetString("save")
		jsonMode, _ := cmd.Flags().GetBool("json")
		headless, _ := cmd.Flags().GetBool("headless")
		fast, _ := cmd.Flags().GetBool("fast")
		fresh, _ := cmd.Flags().GetBool("fresh")

		return cli.Run(cli.RunOptions{
			StoryPath:  story,
			ConfigPath: configPath,
			SaveID:     save,
			JSON:       jsonMode,
			Headless:   headless,
			Fast:       fast,
			Fresh:      fresh,
			Debug:      debug,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("story", "story.yaml", "Story file to play")
	runCmd.Flags().StringP("save", "s", cli.DefaultSaveID, "Save slot to resume and autosave into")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().Bool("headless", false, "Plain text, no banner and no line acknowledgement")
	runCmd.Flags().Bool("fast", false, "Skip timers instead of waiting them out")
	runCmd.Flags().Bool("fresh", false, "Discard the save slot before starting")

	// 'run' is the default when no command is given.
	rootCmd.Args = runCmd.Args
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
