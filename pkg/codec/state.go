package codec

type ServerState string

const (
	StateStopped  ServerState = "Stopped"
	StateStarting ServerState = "Starting"
	StateRunning  ServerState = "Running"
	StateStopping ServerState = "Stopping"
	StateCrashed  ServerState = "Crashed"
	StateError    ServerState = "Error"
)

// Active reports whether the state describes a live server process.
// Stopped, Crashed and Error are resting states.
func (s ServerState) Active() bool {
	switch s {
	case StateStarting, StateRunning, StateStopping:
		return true
	}
	return false
}

// EntryKind classifies a console line.
type EntryKind string

const (
	EntryInfo    EntryKind = "info"
	EntryWarning EntryKind = "warning"
	EntryError   EntryKind = "error"
	EntryCommand EntryKind = "command"
)
