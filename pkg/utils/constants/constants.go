// Package constants
package constants

import (
	"fmt"
	"os"
)

const (
	DefaultLogLevel   = "info"
	DefaultDaemonName = "craftd"

	// ServerJarName is the artifact a directory must contain to be
	// recognized as a server instance.
	ServerJarName = "server.jar"
)

var CraftdHome = getHome()

var DaemonLogFilePath = getDaemonPath("log")
var DaemonPidFilePath = getDaemonPath("pid")
var DaemonSockFilePath = getDaemonPath("sock")
var DaemonStateDirPath = getDaemonPath("state")

func getHome() string {
	return fmt.Sprintf("%s/.craftd", os.Getenv("HOME"))
}

func getDaemonPath(suffix string) string {
	return fmt.Sprintf("%s/%s.%s", CraftdHome, DefaultDaemonName, suffix)
}
