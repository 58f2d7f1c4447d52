package cmd

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"syscall"

	"craftd/pkg/codec"
	"craftd/pkg/utils"
	"craftd/pkg/utils/constants"

	"github.com/spf13/cobra"
)

func isDaemonRunning() bool {
	daemonPid, err := utils.ReadPid(constants.DaemonPidFilePath)
	if err != nil {
		return false
	}

	if daemonPid < 0 {
		return false
	}

	return isPidActive(daemonPid)
}

func isPidActive(p int) bool {
	_, err := syscall.Getpgid(p)

	return err == nil
}

// tryRunDaemon re-executes the current binary as "craftd daemon" so client
// commands can bring the daemon up on demand.
func tryRunDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, "daemon")
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stdout
	cmd.Stdin = os.Stdin

	return cmd.Start()
}

func requireDaemonRunning() {
	if !isDaemonRunning() {
		log.Fatalln("ERROR: Daemon has not started. Run 'craftd daemon' first.")
	}
}

// setupCommandPreRun chains the root pre-run with a command-specific one.
func setupCommandPreRun(cmd *cobra.Command, pre func()) {
	cmd.PersistentPreRun = func(c *cobra.Command, args []string) {
		rootCmd.PersistentPreRun(c, args)
		pre()
	}
}

// printResponse prints the common "code message" result line. A nil
// response means the error was already reported on stderr.
func printResponse(res *codec.ResponseMsg) {
	if res == nil {
		return
	}
	fmt.Printf("%d\t%s\n", res.Code, res.Message)
}
