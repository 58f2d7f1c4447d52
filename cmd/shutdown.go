package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"craftd/pkg/client"
)

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Stop all servers and shut down the daemon",
	Run:   execShutdownCmd,
}

func init() {
	setupCommandPreRun(shutdownCmd, requireDaemonRunning)
	rootCmd.AddCommand(shutdownCmd)
}

func execShutdownCmd(cmd *cobra.Command, args []string) {
	// The daemon may exit before the response makes it back, so the call
	// runs with a timeout instead of blocking on the socket.
	done := make(chan struct{})
	go func() {
		_ = client.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		fmt.Println("Craftd daemon has been stopped.")
	case <-time.After(5 * time.Second):
		fmt.Println("Shutdown initiated (timeout waiting for response).")
	}
}
