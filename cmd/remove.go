package cmd

import (
	"github.com/spf13/cobra"

	"craftd/pkg/client"
)

var removeCmd = &cobra.Command{
	Use:   "remove <server>",
	Short: "Remove a server instance, stopping it first if needed",
	Args:  cobra.ExactArgs(1),
	Run:   execRemoveCmd,
}

func init() {
	setupCommandPreRun(removeCmd, requireDaemonRunning)
	rootCmd.AddCommand(removeCmd)
}

func execRemoveCmd(cmd *cobra.Command, args []string) {
	printResponse(client.Remove(args[0]))
}
