package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"craftd/pkg/client"
)

var restartCmd = &cobra.Command{
	Use:   "restart <server>",
	Short: "Restart a server instance",
	Args:  cobra.ExactArgs(1),
	Run:   execRestartCmd,
}

func init() {
	setupCommandPreRun(restartCmd, requireDaemonRunning)
	rootCmd.AddCommand(restartCmd)
}

func execRestartCmd(cmd *cobra.Command, args []string) {
	res := client.Restart(args[0])
	if res == nil {
		return
	}

	if res.Pid > 0 {
		fmt.Printf("%d\t%s [PID %d]\n", res.Code, res.Message, res.Pid)
		return
	}
	printResponse(res)
}
