package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"craftd/pkg/client"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all server instances",
	Run:   execListCmd,
}

func init() {
	setupCommandPreRun(listCmd, requireDaemonRunning)
	rootCmd.AddCommand(listCmd)
}

func execListCmd(cmd *cobra.Command, args []string) {
	res := client.List()
	if res == nil {
		return
	}

	if len(res.Servers) == 0 {
		fmt.Println("No servers found.")
		return
	}

	for _, srv := range res.Servers {
		fmt.Printf("%s\t\t%s\t\t%d players\n", srv.ID, srv.Status, srv.Players)
	}
}
