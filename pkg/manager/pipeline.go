package manager

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"craftd/pkg/codec"
)

// Lifecycle and gameplay markers recognized in server output. These are
// best-effort text matches against free-form log lines; the player set and
// TPS they feed are observations, not ground truth.
const (
	markerStarted  = "For help, type"
	markerStopping = "Stopping server"
	markerStarting = "Starting minecraft server"
)

var (
	joinPattern    = regexp.MustCompile(`(\w+) joined the game`)
	leavePattern   = regexp.MustCompile(`(\w+) left the game`)
	tpsPattern     = regexp.MustCompile(`TPS: (\d+\.?\d*)`)
	versionPattern = regexp.MustCompile(`Starting minecraft server version (\S+)`)
)

// runPipeline consumes the merged output stream line by line until EOF.
// EOF with the run still marked up is the crash signal.
func (s *ServerInstance) runPipeline(r io.Reader, run uint64) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.consumeLine(run, line)
	}

	if err := scanner.Err(); err != nil && err != io.ErrClosedPipe {
		s.logger.Warnf("Console stream read error: %v", err)
	}

	s.markExited(run)
	s.logger.Debug("Console pipeline stopped")
}

func classifyLine(line string) codec.EntryKind {
	switch {
	case strings.Contains(line, "[ERROR]") || strings.Contains(line, "FAILED"):
		return codec.EntryError
	case strings.Contains(line, "[WARN]"):
		return codec.EntryWarning
	default:
		return codec.EntryInfo
	}
}

// consumeLine classifies one line, applies its side effects to the
// instance and appends it to the history. The lock is held only for the
// field updates; the version side-file write happens outside it.
func (s *ServerInstance) consumeLine(run uint64, line string) {
	kind := classifyLine(line)

	var saveVer string
	var promoted bool

	s.mu.Lock()
	if s.run != run {
		s.mu.Unlock()
		return
	}

	switch {
	case strings.Contains(line, "Done") && strings.Contains(line, markerStarted):
		if s.status == codec.StateStarting {
			s.status = codec.StateRunning
			promoted = true
		}
	case strings.Contains(line, markerStopping):
		if s.status.Active() {
			s.status = codec.StateStopping
		}
	case strings.Contains(line, markerStarting):
		if s.status.Active() {
			s.status = codec.StateStarting
		}
	}

	if s.version == "" {
		if m := versionPattern.FindStringSubmatch(line); m != nil {
			s.version = m[1]
			saveVer = m[1]
		}
	}

	if m := joinPattern.FindStringSubmatch(line); m != nil {
		s.players[m[1]] = struct{}{}
	} else if m := leavePattern.FindStringSubmatch(line); m != nil {
		delete(s.players, m[1])
	}

	if m := tpsPattern.FindStringSubmatch(line); m != nil {
		if tps, err := strconv.ParseFloat(m[1], 64); err == nil {
			s.perf.TPS = tps
		}
	}

	if kind == codec.EntryError {
		s.lastErr = line
	}

	s.history.append(kind, line)
	cc := s.cmdCh
	s.mu.Unlock()

	if promoted {
		s.logger.Info("Server is now running")
		// RCON only starts listening once the server is fully up, so the
		// connect attempt from Start usually lost the race. Try again now.
		if cc != nil && s.rconPass != "" {
			go cc.tryConnect()
		}
	}

	if saveVer != "" {
		s.logger.Infof("Detected server version %s", saveVer)
		if err := saveVersion(s.Root, saveVer); err != nil {
			s.logger.Warnf("Failed to save version cache: %v", err)
		}
	}
}
