package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"craftd/pkg/client"
	"craftd/pkg/codec"
)

var (
	watchStatus  bool
	watchConsole bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <server>",
	Short: "Stream status changes and console output of a server instance",
	Args:  cobra.ExactArgs(1),
	Run:   execWatchCmd,
}

func init() {
	watchCmd.Flags().BoolVar(&watchStatus, "status", false, "Stream status changes only")
	watchCmd.Flags().BoolVar(&watchConsole, "console", false, "Stream console output only")

	setupCommandPreRun(watchCmd, requireDaemonRunning)
	rootCmd.AddCommand(watchCmd)
}

func execWatchCmd(cmd *cobra.Command, args []string) {
	// No flags means both streams.
	status, console := watchStatus, watchConsole
	if !status && !console {
		status, console = true, true
	}

	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		close(stop)
	}()

	err := client.Watch(args[0], status, console, stop, func(ev *codec.EventMsg) {
		switch ev.Kind {
		case codec.EventStatus:
			if ev.Status != nil {
				fmt.Printf("== %s is %s (%d players)\n", ev.Server, ev.Status.Status, ev.Status.Players.Count)
			}
		case codec.EventConsole:
			for _, entry := range ev.Console {
				fmt.Printf("%s [%s] %s\n", entry.Timestamp, entry.Kind, entry.Message)
			}
		}
	})
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}
