package cmd

import (
	"github.com/spf13/cobra"

	"craftd/pkg/client"
)

var createCmd = &cobra.Command{
	Use:   "create <server>",
	Short: "Create a new server instance",
	Args:  cobra.ExactArgs(1),
	Run:   execCreateCmd,
}

func init() {
	setupCommandPreRun(createCmd, requireDaemonRunning)
	rootCmd.AddCommand(createCmd)
}

func execCreateCmd(cmd *cobra.Command, args []string) {
	printResponse(client.Create(args[0]))
}
