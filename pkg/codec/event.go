package codec

type EventKind string

const (
	EventStatus  EventKind = "status"
	EventConsole EventKind = "console"
)

// EventMsg is one frame of a watch stream.
type EventMsg struct {
	Kind    EventKind      `cbor:""`
	Server  string         `cbor:""`
	Status  *StatusReport  `cbor:",omitempty"`
	Console []ConsoleEntry `cbor:",omitempty"`
}
