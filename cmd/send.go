package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"craftd/pkg/client"
)

var sendCmd = &cobra.Command{
	Use:   "send <server> <command>...",
	Short: "Send a console command to a running server",
	Args:  cobra.MinimumNArgs(2),
	Run:   execSendCmd,
}

func init() {
	setupCommandPreRun(sendCmd, requireDaemonRunning)
	rootCmd.AddCommand(sendCmd)
}

func execSendCmd(cmd *cobra.Command, args []string) {
	command := strings.Join(args[1:], " ")
	printResponse(client.Send(args[0], command))
}
