// Package utils
package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"craftd/pkg/utils/constants"
)

const RuntimeModuleName = "craftd"

var SupervisorPid = os.Getpid()

// StopChan receives termination signals for the daemon main loop.
var StopChan = make(chan os.Signal, 1)

// FinishChan tells the ctl server loop to stop accepting sessions.
var FinishChan = make(chan struct{}, 1)

func InitEnv() {
	if err := os.MkdirAll(constants.CraftdHome, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func CheckPerm(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return &os.PathError{Op: "stat", Path: dir, Err: os.ErrInvalid}
	}

	probe := fmt.Sprintf("%s/.perm", dir)
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("no write permission on %s: %w", dir, err)
	}
	_ = f.Close()
	_ = os.Remove(probe)

	return nil
}

func ReadPid(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return -1, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return -1, err
	}

	return pid, nil
}

func WriteDaemonPid(pid int) error {
	return os.WriteFile(constants.DaemonPidFilePath, []byte(strconv.Itoa(pid)), 0644)
}
