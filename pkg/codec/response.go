package codec

// ConsoleEntry is one classified line of server output. Seq is the position
// in the instance's append-only history, monotonic within a single run.
type ConsoleEntry struct {
	Seq       uint64    `json:"seq"`
	Timestamp string    `json:"timestamp"`
	Kind      EntryKind `json:"kind"`
	Message   string    `json:"message"`
}

type PerfStats struct {
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage int64   `json:"memory_usage"`
	MaxMemory   int64   `json:"max_memory"`
	TPS         float64 `json:"tps"`
	WorldSize   int64   `json:"world_size"`
}

type PlayerInfo struct {
	Count int      `json:"count"`
	List  []string `json:"list"`
}

// StatusReport is the full answer to a status query.
type StatusReport struct {
	Server      string      `json:"server"`
	Status      ServerState `json:"status"`
	Pid         int         `json:"pid"`
	Uptime      int64       `json:"uptime"`
	Performance PerfStats   `json:"performance"`
	Players     PlayerInfo  `json:"players"`
	LastError   string      `json:"last_error,omitempty"`
	Version     string      `json:"version,omitempty"`
}

// ServerInfo is the short per-server row returned by list.
type ServerInfo struct {
	ID      string      `json:"id"`
	Status  ServerState `json:"status"`
	Players int         `json:"players"`
}

type ResponseCtl int

const (
	ResponseNormal ResponseCtl = iota
	ResponseShutdown
	ResponseStream
	ResponseMsgErr
)

type ResponseMsg struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Servers []*ServerInfo  `json:"servers,omitempty"`
	Status  *StatusReport  `json:"status,omitempty"`
	Console []ConsoleEntry `json:"console,omitempty"`
	Pid     int            `json:"pid,omitempty"`
}
