package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"craftd/pkg/client"
)

var startCmd = &cobra.Command{
	Use:   "start <server>",
	Short: "Start a server instance",
	Args:  cobra.ExactArgs(1),
	Run:   execStartCmd,
}

func init() {
	// start brings the daemon up on demand instead of requiring it.
	setupCommandPreRun(startCmd, func() {
		if isDaemonRunning() {
			return
		}

		if err := tryRunDaemon(); err != nil {
			log.Fatal(err)
		}

		time.Sleep(1 * time.Second)
	})

	rootCmd.AddCommand(startCmd)
}

func execStartCmd(cmd *cobra.Command, args []string) {
	res := client.Start(args[0])
	if res == nil {
		return
	}

	if res.Pid > 0 {
		fmt.Printf("%d\t%s [PID %d]\n", res.Code, res.Message, res.Pid)
		return
	}
	printResponse(res)
}
