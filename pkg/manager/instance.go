// Package manager implements the server supervision core: a registry of
// server instances, per-instance process lifecycle, console pipeline,
// performance monitor, command channel and event broadcaster, plus the
// daemon and its unix-socket control plane.
package manager

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"craftd/pkg/codec"
	"craftd/pkg/config"
	"craftd/pkg/logger"

	"go.uber.org/zap"
)

const defaultTPS = 20.0

// ServerInstance is the aggregate for one managed server. Every mutable
// field is guarded by mu; the pipeline, monitor, broadcaster and control
// operations all go through it. opMu serializes lifecycle transitions
// without holding mu across the long waits in Stop.
type ServerInstance struct {
	ID   string
	Root string

	logger *zap.SugaredLogger

	opMu sync.Mutex

	mu        sync.Mutex
	status    codec.ServerState
	proc      *os.Process
	stdin     io.WriteCloser
	startedAt time.Time
	lastErr   string
	history   *consoleHistory
	players   map[string]struct{}
	perf      codec.PerfStats
	version   string
	cmdCh     *commandChannel

	// exited is closed by the reaper when the current run's process ends;
	// run distinguishes stale background tasks from the current run.
	exited chan struct{}
	run    uint64

	// stopRequested marks a Stop call in flight, so the exit watchers
	// leave the final transition to it.
	stopRequested bool

	props    Properties
	rconAddr string
	rconPass string

	// launch overrides the computed launch argv. Tests use it to supervise
	// small unix utilities instead of a JVM.
	launch []string
}

// NewInstance constructs the aggregate for the server rooted at dir. The
// property file and version side-file are read here; both fall back to
// defaults when unreadable.
func NewInstance(id, dir string) *ServerInstance {
	props := LoadProperties(dir)

	maxHeap := 2048
	if cfg := config.GetConfig(); cfg != nil && cfg.Java.MaxHeapMB > 0 {
		maxHeap = cfg.Java.MaxHeapMB
	}

	s := &ServerInstance{
		ID:      id,
		Root:    dir,
		logger:  logger.Logging(fmt.Sprintf("server::%s", id)),
		status:  codec.StateStopped,
		history: newConsoleHistory(),
		players: make(map[string]struct{}),
		perf: codec.PerfStats{
			TPS:       defaultTPS,
			MaxMemory: int64(maxHeap),
		},
		version:  loadVersion(dir),
		props:    props,
		rconPass: props.Get("rcon.password", ""),
		rconAddr: fmt.Sprintf("127.0.0.1:%s", props.Get("rcon.port", "25575")),
	}

	return s
}

func (s *ServerInstance) Status() codec.ServerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// StatusReport assembles a consistent snapshot of everything a status query
// answers: state, uptime, performance, players, last error and version.
func (s *ServerInstance) StatusReport() codec.StatusReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	var uptime int64
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	pid := 0
	if s.proc != nil {
		pid = s.proc.Pid
	}

	players := make([]string, 0, len(s.players))
	for name := range s.players {
		players = append(players, name)
	}
	sort.Strings(players)

	return codec.StatusReport{
		Server:      s.ID,
		Status:      s.status,
		Pid:         pid,
		Uptime:      uptime,
		Performance: s.perf,
		Players:     codec.PlayerInfo{Count: len(players), List: players},
		LastError:   s.lastErr,
		Version:     s.version,
	}
}

// ConsoleOutput returns the most recent limit entries oldest-to-newest,
// optionally filtered by kind.
func (s *ServerInstance) ConsoleOutput(limit int, kind codec.EntryKind) []codec.ConsoleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.tail(limit, kind)
}

// ConsoleSince returns entries appended after cursor and the new cursor.
// This is the broadcaster's read path.
func (s *ServerInstance) ConsoleSince(cursor uint64) ([]codec.ConsoleEntry, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.since(cursor)
}

func (s *ServerInstance) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

func (s *ServerInstance) Version() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *ServerInstance) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *ServerInstance) appendConsole(kind codec.EntryKind, message string) {
	s.mu.Lock()
	s.history.append(kind, message)
	s.mu.Unlock()
}

// restoreState merges daemon-snapshot metadata into a freshly rehydrated
// instance. The status itself stays Stopped; only version and last error
// carry over.
func (s *ServerInstance) restoreState(version, lastErr string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version == "" {
		s.version = version
	}
	if s.lastErr == "" {
		s.lastErr = lastErr
	}
}
