package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the fxreplay CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "fxreplay version %s\n", version)
		fmt.Fprintln(out, "Candle replay trading practice")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
