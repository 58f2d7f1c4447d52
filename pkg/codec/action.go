package codec

type ActionCtl int

const (
	ActionCreate ActionCtl = iota
	ActionRemove
	ActionList
	ActionStart
	ActionStop
	ActionRestart
	ActionSend
	ActionStatus
	ActionConsole
	ActionWatch
	ActionShutdown
)

var ActionResponse = map[ActionCtl]string{
	ActionCreate:  "Server created successfully",
	ActionRemove:  "Server removed successfully",
	ActionList:    "Server list fetched successfully",
	ActionStart:   "Server started successfully",
	ActionStop:    "Server stopped successfully",
	ActionRestart: "Server restarted successfully",
	ActionSend:    "Command sent successfully",
	ActionStatus:  "Server status fetched successfully",
	ActionConsole: "Console output fetched successfully",
}

type ActionMsg struct {
	Action  ActionCtl `cbor:""`
	Server  string    `cbor:",omitempty"`
	Force   bool      `cbor:",omitempty"`
	Command string    `cbor:",omitempty"`
	Limit   int       `cbor:",omitempty"`
	Kind    string    `cbor:",omitempty"`
	Status  bool      `cbor:",omitempty"`
	Console bool      `cbor:",omitempty"`
}
