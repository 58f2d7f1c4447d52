package manager

import (
	"io/fs"
	"path/filepath"
	"time"

	"craftd/pkg/codec"

	"github.com/shirou/gopsutil/v3/process"
)

const monitorInterval = 1 * time.Second

// worldDirName is the data directory whose on-disk size is sampled.
const worldDirName = "world"

// runMonitor samples process CPU and resident memory once per interval and
// recomputes the world directory size. A vanished process while the run is
// marked up transitions the instance to Crashed.
func (s *ServerInstance) runMonitor(run uint64, pid int, exited <-chan struct{}) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	// One handle for the whole run: gopsutil computes CPU percent against
	// the previous call on the same handle.
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		s.markExited(run)
		return
	}

	for {
		select {
		case <-exited:
			s.markExited(run)
			s.logger.Debug("Performance monitor stopped")
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		current := s.run == run && s.status.Active()
		s.mu.Unlock()
		if !current {
			return
		}

		if running, err := proc.IsRunning(); err != nil || !running {
			s.markExited(run)
			return
		}

		var stats codec.PerfStats
		stats.CPUUsage, _ = proc.CPUPercent()
		if mi, err := proc.MemoryInfo(); err == nil && mi != nil {
			stats.MemoryUsage = int64(mi.RSS) / 1024 / 1024
		}
		stats.WorldSize = dirSizeMB(filepath.Join(s.Root, worldDirName))

		s.mu.Lock()
		if s.run == run && s.status.Active() {
			s.perf.CPUUsage = stats.CPUUsage
			s.perf.MemoryUsage = stats.MemoryUsage
			s.perf.WorldSize = stats.WorldSize
		}
		s.mu.Unlock()
	}
}

// dirSizeMB sums file sizes under dir recursively. A missing or partially
// unreadable directory contributes what could be read, silently.
func dirSizeMB(dir string) int64 {
	var total int64

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})

	return total / 1024 / 1024
}
