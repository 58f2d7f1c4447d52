// Package client wraps the daemon's control protocol in one function per
// operation, so the cmd layer never touches message construction or the
// socket framing.
package client

import (
	"craftd/pkg/codec"
	"craftd/pkg/manager"
)

// Create provisions a new server instance directory and registers it.
func Create(server string) *codec.ResponseMsg {
	return manager.ClientRun(&codec.ActionMsg{
		Action: codec.ActionCreate,
		Server: server,
	})
}

// Remove stops the server if needed and unregisters it. Its files stay on
// disk.
func Remove(server string) *codec.ResponseMsg {
	return manager.ClientRun(&codec.ActionMsg{
		Action: codec.ActionRemove,
		Server: server,
	})
}

// List returns a short summary row per registered server.
func List() *codec.ResponseMsg {
	return manager.ClientRun(&codec.ActionMsg{
		Action: codec.ActionList,
	})
}

// Start launches the server process.
func Start(server string) *codec.ResponseMsg {
	return manager.ClientRun(&codec.ActionMsg{
		Action: codec.ActionStart,
		Server: server,
	})
}

// Stop brings the server down. With force set the graceful phase is
// skipped and the process group is terminated directly.
func Stop(server string, force bool) *codec.ResponseMsg {
	return manager.ClientRun(&codec.ActionMsg{
		Action: codec.ActionStop,
		Server: server,
		Force:  force,
	})
}

// Restart is stop followed by start.
func Restart(server string) *codec.ResponseMsg {
	return manager.ClientRun(&codec.ActionMsg{
		Action: codec.ActionRestart,
		Server: server,
	})
}

// Send delivers a console command to the running server. The response
// message carries the server's reply when one came back over RCON.
func Send(server, command string) *codec.ResponseMsg {
	return manager.ClientRun(&codec.ActionMsg{
		Action:  codec.ActionSend,
		Server:  server,
		Command: command,
	})
}

// Status fetches the full status report for one server.
func Status(server string) *codec.ResponseMsg {
	return manager.ClientRun(&codec.ActionMsg{
		Action: codec.ActionStatus,
		Server: server,
	})
}

// Console fetches up to limit recent console entries, optionally filtered
// by kind (info, warning, error, command).
func Console(server string, limit int, kind string) *codec.ResponseMsg {
	return manager.ClientRun(&codec.ActionMsg{
		Action: codec.ActionConsole,
		Server: server,
		Limit:  limit,
		Kind:   kind,
	})
}

// Watch streams status changes and console output for one server, calling
// handle for every event until stop is closed or the daemon goes away.
func Watch(server string, status, console bool, stop <-chan struct{}, handle func(*codec.EventMsg)) error {
	return manager.ClientWatch(&codec.ActionMsg{
		Action:  codec.ActionWatch,
		Server:  server,
		Status:  status,
		Console: console,
	}, stop, handle)
}

// Shutdown asks the daemon to stop all servers and exit.
func Shutdown() *codec.ResponseMsg {
	return manager.ClientRun(&codec.ActionMsg{
		Action: codec.ActionShutdown,
	})
}
