package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"craftd/pkg/client"
)

var (
	consoleLimit int
	consoleKind  string
)

var consoleCmd = &cobra.Command{
	Use:   "console <server>",
	Short: "Show recent console output of a server instance",
	Args:  cobra.ExactArgs(1),
	Run:   execConsoleCmd,
}

func init() {
	consoleCmd.Flags().IntVarP(&consoleLimit, "limit", "n", 50, "Maximum number of entries to show (0 for all retained)")
	consoleCmd.Flags().StringVarP(&consoleKind, "kind", "k", "", "Only show entries of this kind (info, warning, error, command)")

	setupCommandPreRun(consoleCmd, requireDaemonRunning)
	rootCmd.AddCommand(consoleCmd)
}

func execConsoleCmd(cmd *cobra.Command, args []string) {
	res := client.Console(args[0], consoleLimit, consoleKind)
	if res == nil {
		return
	}

	if res.Code != 200 {
		printResponse(res)
		return
	}

	for _, entry := range res.Console {
		fmt.Printf("%s [%s] %s\n", entry.Timestamp, entry.Kind, entry.Message)
	}
}
