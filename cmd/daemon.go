package cmd

import (
	"fmt"
	"log"

	"craftd/pkg/config"
	"craftd/pkg/manager"
	"craftd/pkg/utils"
	"craftd/pkg/utils/constants"

	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the server manager as a daemon",
	Run:   execDaemonCmd,
}

func init() {
	daemonCmd.PersistentFlags().BoolVarP(&config.ForegroundFlag, "foreground", "f", false, "Run the daemon in the foreground")

	daemonCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		rootCmd.PersistentPreRun(cmd, args)
		execDaemonPersistentPreRun()
	}
	rootCmd.AddCommand(daemonCmd)
}

func execDaemonPersistentPreRun() {
	if err := utils.CheckPerm(constants.CraftdHome); err != nil {
		log.Fatal(err)
	}
}

func execDaemonCmd(cmd *cobra.Command, args []string) {
	if isDaemonRunning() {
		fmt.Println("Craftd daemon is running. Don't start again.")
		return
	}

	if err := manager.Run(); err != nil {
		log.Fatal(err)
	}
}
