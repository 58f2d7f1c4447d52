package cmd

import (
	"github.com/spf13/cobra"

	"craftd/pkg/client"
)

var stopForce bool

var stopCmd = &cobra.Command{
	Use:   "stop <server>",
	Short: "Stop a server instance",
	Args:  cobra.ExactArgs(1),
	Run:   execStopCmd,
}

func init() {
	stopCmd.Flags().BoolVarP(&stopForce, "force", "f", false, "Skip the graceful phase and terminate directly")

	setupCommandPreRun(stopCmd, requireDaemonRunning)
	rootCmd.AddCommand(stopCmd)
}

func execStopCmd(cmd *cobra.Command, args []string) {
	printResponse(client.Stop(args[0], stopForce))
}
