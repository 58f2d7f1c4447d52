package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"craftd/pkg/client"
)

var statusCmd = &cobra.Command{
	Use:   "status <server>",
	Short: "Show the full status of a server instance",
	Args:  cobra.ExactArgs(1),
	Run:   execStatusCmd,
}

func init() {
	setupCommandPreRun(statusCmd, requireDaemonRunning)
	rootCmd.AddCommand(statusCmd)
}

func execStatusCmd(cmd *cobra.Command, args []string) {
	res := client.Status(args[0])
	if res == nil {
		return
	}

	if res.Status == nil {
		printResponse(res)
		return
	}

	st := res.Status
	fmt.Printf("Server:   %s\n", st.Server)
	fmt.Printf("Status:   %s\n", st.Status)
	if st.Pid > 0 {
		fmt.Printf("PID:      %d\n", st.Pid)
	}
	if st.Uptime > 0 {
		fmt.Printf("Uptime:   %s\n", (time.Duration(st.Uptime) * time.Second).String())
	}
	if st.Version != "" {
		fmt.Printf("Version:  %s\n", st.Version)
	}
	fmt.Printf("CPU:      %.1f%%\n", st.Performance.CPUUsage)
	fmt.Printf("Memory:   %d/%d MB\n", st.Performance.MemoryUsage, st.Performance.MaxMemory)
	fmt.Printf("TPS:      %.1f\n", st.Performance.TPS)
	fmt.Printf("World:    %d MB\n", st.Performance.WorldSize)
	fmt.Printf("Players:  %d", st.Players.Count)
	if len(st.Players.List) > 0 {
		fmt.Printf(" (%s)", strings.Join(st.Players.List, ", "))
	}
	fmt.Println()
	if st.LastError != "" {
		fmt.Printf("Error:    %s\n", st.LastError)
	}
}
