package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Spaced-repetition review scheduling for your notes",
	Long:  "Recall schedules note reviews with a bounded spaced-repetition policy: grade each note easy, medium, or hard and the interval adapts.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
}
