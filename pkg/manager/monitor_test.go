package manager

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"craftd/pkg/codec"
)

func TestMonitorSamplesPerformance(t *testing.T) {
	s := newTestInstance(t)
	// The child pins a few MB in a shell variable so the resident-set
	// sample lands above the whole-megabyte floor.
	s.launch = []string{"sh", "-c", `pad=$(head -c 4000000 /dev/zero | tr '\000' x); cat`}

	// Pre-seed a world directory so the size sample has something to sum.
	worldDir := filepath.Join(s.Root, worldDirName)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(worldDir, "region.dat"), make([]byte, 2*1024*1024), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		_ = s.Stop(true)
	}()

	ok := waitFor(t, 5*time.Second, func() bool {
		return s.StatusReport().Performance.MemoryUsage > 0
	})
	if !ok {
		t.Fatalf("no memory sample past the monitor interval: %+v", s.StatusReport().Performance)
	}

	perf := s.StatusReport().Performance
	if perf.CPUUsage < 0 {
		t.Errorf("cpu usage = %v", perf.CPUUsage)
	}
	if perf.MaxMemory <= 0 {
		t.Errorf("max memory = %d", perf.MaxMemory)
	}
	if perf.WorldSize < 1 {
		t.Errorf("world size = %d MB, want at least 1", perf.WorldSize)
	}
}

func TestMonitorDetectsVanishedProcess(t *testing.T) {
	s := newTestInstance(t)
	s.launch = []string{"cat"}

	pid, err := s.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Kill out from under the supervisor; either exit watcher may notice
	// first, the outcome is the same.
	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
		t.Fatal(err)
	}

	waitStatus(t, s, codec.StateCrashed, 3*time.Second)

	if s.LastError() == "" {
		t.Error("vanished process left no last error")
	}
}
