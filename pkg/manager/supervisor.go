package manager

import (
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"craftd/pkg/codec"
	"craftd/pkg/config"
	"craftd/pkg/utils/constants"
)

const (
	// Stop escalation windows. Worst case a Stop call blocks for the sum
	// of all three, roughly 20s.
	graceWindow = 5 * time.Second
	termWindow  = 10 * time.Second
	killWindow  = 5 * time.Second

	// restartSettleDelay gives the OS time to release ports between the
	// stop and start halves of a restart.
	restartSettleDelay = 2 * time.Second
)

func (s *ServerInstance) launchArgs() []string {
	if s.launch != nil {
		return s.launch
	}

	bin := "java"
	minHeap := 1024
	maxHeap := 2048
	if cfg := config.GetConfig(); cfg != nil {
		if cfg.Java.Bin != "" {
			bin = cfg.Java.Bin
		}
		if cfg.Java.MinHeapMB > 0 {
			minHeap = cfg.Java.MinHeapMB
		}
		if cfg.Java.MaxHeapMB > 0 {
			maxHeap = cfg.Java.MaxHeapMB
		}
	}

	return []string{
		bin,
		fmt.Sprintf("-Xms%dM", minHeap),
		fmt.Sprintf("-Xmx%dM", maxHeap),
		"-jar", constants.ServerJarName,
		"nogui",
	}
}

// Start spawns the server process and brings up the per-run tasks: the
// console pipeline, the performance monitor and the command channel. It
// fails with ErrAlreadyRunning while a run is active and returns the new
// process id on success. A spawn failure leaves the instance in Error.
func (s *ServerInstance) Start() (int, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.status.Active() {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrAlreadyRunning, s.ID)
	}
	s.mu.Unlock()

	argv := s.launchArgs()
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = s.Root
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// Merged output stream: stdout and stderr share one pipe, so the
	// pipeline sees lines in arrival order and gets a clean EOF when the
	// reaper closes the write end.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.failSpawn(err)
		return 0, fmt.Errorf("spawn %s: %w", s.ID, err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		s.failSpawn(err)
		return 0, fmt.Errorf("spawn %s: %w", s.ID, err)
	}

	pid := cmd.Process.Pid
	exited := make(chan struct{})

	s.mu.Lock()
	s.run++
	run := s.run
	s.history.reset()
	s.players = make(map[string]struct{})
	s.perf.CPUUsage = 0
	s.perf.MemoryUsage = 0
	s.perf.WorldSize = 0
	s.perf.TPS = defaultTPS
	s.lastErr = ""
	s.status = codec.StateStarting
	s.stopRequested = false
	s.proc = cmd.Process
	s.stdin = stdin
	s.startedAt = time.Now()
	s.exited = exited
	cc := newCommandChannel(s)
	s.cmdCh = cc
	s.history.append(codec.EntryInfo, fmt.Sprintf("Starting server with PID %d", pid))
	s.mu.Unlock()

	// Reaper: waits for the process so it is never left as a zombie,
	// then closes the pipe (pipeline EOF) and signals the waiters.
	go func() {
		_ = cmd.Wait()
		_ = pw.Close()
		close(exited)
	}()

	go s.runPipeline(pr, run)
	go s.runMonitor(run, pid, exited)

	if s.rconPass != "" {
		go cc.tryConnect()
	}

	s.logger.Infof("Started server process with PID %d", pid)
	return pid, nil
}

func (s *ServerInstance) failSpawn(err error) {
	s.mu.Lock()
	s.status = codec.StateError
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.logger.Errorf("Failed to start server: %v", err)
}

// Stop brings the current run down. Unless force is set, a graceful
// "stop" command is tried first; after the grace window the process group
// is terminated and, failing that, killed. The instance always ends
// Stopped.
func (s *ServerInstance) Stop(force bool) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if !s.status.Active() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotRunning, s.ID)
	}
	s.status = codec.StateStopping
	s.stopRequested = true
	proc := s.proc
	exited := s.exited
	cc := s.cmdCh
	s.mu.Unlock()

	// Graceful phase goes over RCON when connected, otherwise the "stop"
	// command is written to the input stream.
	if !force && cc != nil {
		if _, err := cc.send("stop"); err != nil {
			s.logger.Warnf("Graceful stop failed: %v", err)
		}
		waitExit(exited, graceWindow)
	}

	if !exitedAlready(exited) {
		_ = syscall.Kill(-proc.Pid, syscall.SIGTERM)
		if !waitExit(exited, termWindow) {
			s.logger.Warnf("Server did not exit on SIGTERM, killing process group")
			_ = syscall.Kill(-proc.Pid, syscall.SIGKILL)
			waitExit(exited, killWindow)
		}
	}

	s.mu.Lock()
	s.status = codec.StateStopped
	s.stopRequested = false
	cc = s.releaseRunLocked()
	s.history.append(codec.EntryInfo, "Server stopped")
	s.mu.Unlock()

	if cc != nil {
		cc.close()
	}

	s.logger.Info("Server stopped")
	return nil
}

// Restart is stop-then-start. A stop failure aborts the restart and is
// returned as-is; start is not attempted.
func (s *ServerInstance) Restart() (int, error) {
	if err := s.Stop(false); err != nil {
		return 0, err
	}

	time.Sleep(restartSettleDelay)
	return s.Start()
}

// markExited records a process exit the supervisor did not drive: a run
// that thought it was up crashes, a run that announced its own shutdown
// ends Stopped. While a Stop call is in flight the final transition is
// left to it. Both the pipeline (on EOF) and the monitor may call this;
// the first one wins and the rest are no-ops.
func (s *ServerInstance) markExited(run uint64) {
	s.mu.Lock()

	if s.run != run {
		s.mu.Unlock()
		return
	}

	var cc *commandChannel

	switch s.status {
	case codec.StateStarting, codec.StateRunning:
		s.status = codec.StateCrashed
		s.lastErr = "server process terminated unexpectedly"
		cc = s.releaseRunLocked()
		s.history.append(codec.EntryInfo, "Server process terminated")
		s.mu.Unlock()
		s.logger.Error("Server process terminated unexpectedly")
	case codec.StateStopping:
		if s.stopRequested {
			s.mu.Unlock()
			return
		}
		s.status = codec.StateStopped
		cc = s.releaseRunLocked()
		s.history.append(codec.EntryInfo, "Server stopped")
		s.mu.Unlock()
		s.logger.Info("Server stopped on its own")
	default:
		s.mu.Unlock()
		return
	}

	if cc != nil {
		cc.close()
	}
}

// releaseRunLocked clears the per-run fields once the process is gone.
// Call with mu held; the returned command channel must be closed outside
// the lock, since its own lock nests above mu.
func (s *ServerInstance) releaseRunLocked() *commandChannel {
	cc := s.cmdCh
	s.proc = nil
	s.stdin = nil
	s.startedAt = time.Time{}
	s.cmdCh = nil
	return cc
}

func waitExit(exited <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-exited:
		return true
	case <-timer.C:
		return false
	}
}

func exitedAlready(exited <-chan struct{}) bool {
	select {
	case <-exited:
		return true
	default:
		return false
	}
}
