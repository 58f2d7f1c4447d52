package manager

import (
	"errors"
	"strings"
	"testing"
	"time"

	"craftd/pkg/codec"
)

// waitStatus polls until the instance reaches want or the deadline passes.
func waitStatus(t *testing.T, s *ServerInstance, want codec.ServerState, d time.Duration) {
	t.Helper()

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if s.Status() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status = %s, want %s within %s", s.Status(), want, d)
}

func TestStartAndStop(t *testing.T) {
	s := newTestInstance(t)
	s.launch = []string{"cat"}

	pid, err := s.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if pid <= 0 {
		t.Fatalf("pid = %d", pid)
	}

	if got := s.Status(); got != codec.StateStarting {
		t.Fatalf("status after start = %s, want %s", got, codec.StateStarting)
	}
	if !s.Status().Active() {
		t.Fatal("instance not active after start")
	}

	report := s.StatusReport()
	if report.Pid != pid {
		t.Errorf("report pid = %d, want %d", report.Pid, pid)
	}

	if err := s.Stop(true); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := s.Status(); got != codec.StateStopped {
		t.Fatalf("status after stop = %s, want %s", got, codec.StateStopped)
	}

	report = s.StatusReport()
	if report.Pid != 0 || report.Uptime != 0 {
		t.Errorf("stopped report still carries pid=%d uptime=%d", report.Pid, report.Uptime)
	}
}

func TestStartWhileActive(t *testing.T) {
	s := newTestInstance(t)
	s.launch = []string{"cat"}

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		_ = s.Stop(true)
	}()

	if _, err := s.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start error = %v, want ErrAlreadyRunning", err)
	}
}

func TestStopWhileStopped(t *testing.T) {
	s := newTestInstance(t)

	if err := s.Stop(false); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Stop error = %v, want ErrNotRunning", err)
	}
}

func TestSpawnFailureEntersError(t *testing.T) {
	s := newTestInstance(t)
	s.launch = []string{"/nonexistent/binary"}

	if _, err := s.Start(); err == nil {
		t.Fatal("Start succeeded with a bogus binary")
	}

	if got := s.Status(); got != codec.StateError {
		t.Fatalf("status = %s, want %s", got, codec.StateError)
	}
	if s.LastError() == "" {
		t.Error("last error empty after spawn failure")
	}

	// A resting error state is not active, so stop refuses.
	if err := s.Stop(false); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop in error state = %v, want ErrNotRunning", err)
	}
}

func TestUnexpectedExitMarksCrashed(t *testing.T) {
	s := newTestInstance(t)
	s.launch = []string{"true"}

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitStatus(t, s, codec.StateCrashed, 3*time.Second)

	if s.LastError() == "" {
		t.Error("crash left no last error")
	}

	// Crashed is a resting state, so the instance can start again.
	s.launch = []string{"cat"}
	if _, err := s.Start(); err != nil {
		t.Fatalf("restart after crash: %v", err)
	}
	defer func() {
		_ = s.Stop(true)
	}()

	if s.LastError() != "" {
		t.Error("last error not cleared by fresh start")
	}
}

func TestSelfStopReachesStopped(t *testing.T) {
	s := newTestInstance(t)
	// The process announces its own shutdown and exits, as a server does
	// when an in-game operator issues the stop command.
	s.launch = []string{"sh", "-c", `echo "Stopping server"; exit 0`}

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitStatus(t, s, codec.StateStopped, 3*time.Second)

	if s.LastError() != "" {
		t.Errorf("self-initiated stop recorded an error: %q", s.LastError())
	}

	report := s.StatusReport()
	if report.Pid != 0 || report.Uptime != 0 {
		t.Errorf("stopped report still carries pid=%d uptime=%d", report.Pid, report.Uptime)
	}

	// The instance is startable again without an operator Stop.
	s.launch = []string{"cat"}
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start after self-stop: %v", err)
	}
	defer func() {
		_ = s.Stop(true)
	}()
}

func TestCrashReleasesRunState(t *testing.T) {
	s := newTestInstance(t)
	s.launch = []string{"true"}

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitStatus(t, s, codec.StateCrashed, 3*time.Second)

	report := s.StatusReport()
	if report.Pid != 0 {
		t.Errorf("crashed report still carries pid %d", report.Pid)
	}
	if report.Uptime != 0 {
		t.Errorf("crashed report still counts uptime %d", report.Uptime)
	}

	s.mu.Lock()
	stdin, cmdCh := s.stdin, s.cmdCh
	s.mu.Unlock()
	if stdin != nil || cmdCh != nil {
		t.Error("crash left the input pipe or command channel attached")
	}
}

func TestStartResetsRunState(t *testing.T) {
	s := newTestInstance(t)
	s.launch = []string{"cat"}

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.mu.Lock()
	s.players["Ghost"] = struct{}{}
	s.perf.TPS = 3.5
	s.mu.Unlock()

	if err := s.Stop(true); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if _, err := s.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	defer func() {
		_ = s.Stop(true)
	}()

	if got := s.PlayerCount(); got != 0 {
		t.Errorf("player count after fresh start = %d, want 0", got)
	}

	report := s.StatusReport()
	if report.Performance.TPS != defaultTPS {
		t.Errorf("TPS after fresh start = %v, want %v", report.Performance.TPS, defaultTPS)
	}

	entries := s.ConsoleOutput(0, "")
	for _, e := range entries {
		if strings.Contains(e.Message, "Server stopped") {
			t.Errorf("history kept entries from previous run: %q", e.Message)
		}
	}
}

func TestStdinCommandReachesProcess(t *testing.T) {
	s := newTestInstance(t)
	// cat echoes stdin back to stdout, so a sent command comes back as a
	// console line.
	s.launch = []string{"cat"}

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		_ = s.Stop(true)
	}()

	if _, err := s.SendCommand("say hello"); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var echoed, command bool
		for _, e := range s.ConsoleOutput(0, "") {
			if e.Message == "say hello" {
				switch e.Kind {
				case codec.EntryCommand:
					command = true
				default:
					echoed = true
				}
			}
		}
		if echoed && command {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("command was not echoed back through the pipeline")
}

func TestSendCommandWhileStopped(t *testing.T) {
	s := newTestInstance(t)

	if _, err := s.SendCommand("list"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("SendCommand error = %v, want ErrNotRunning", err)
	}
}
