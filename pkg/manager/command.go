package manager

import (
	"fmt"
	"sync"
	"time"

	"craftd/pkg/codec"

	"github.com/gorcon/rcon"

	"go.uber.org/zap"
)

const rconTimeout = 3 * time.Second

// commandChannel routes outgoing commands for one run. RCON is preferred
// when a session is connected; otherwise commands are written to the
// process input stream. Calls are serialized so RCON request/response
// pairs never interleave. Once RCON drops mid-run it stays down for the
// rest of the run; the next Start opens a fresh channel.
type commandChannel struct {
	mu     sync.Mutex
	inst   *ServerInstance
	conn   *rcon.Conn
	broken bool
	logger *zap.SugaredLogger
}

func newCommandChannel(s *ServerInstance) *commandChannel {
	return &commandChannel{
		inst:   s,
		logger: s.logger,
	}
}

// tryConnect attempts an RCON session. Failure is logged, never fatal: the
// channel simply keeps using the input-stream transport.
func (c *commandChannel) tryConnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil || c.broken || c.inst.rconPass == "" {
		return
	}

	conn, err := rcon.Dial(c.inst.rconAddr, c.inst.rconPass,
		rcon.SetDialTimeout(rconTimeout),
		rcon.SetDeadline(rconTimeout),
	)
	if err != nil {
		c.logger.Warnf("RCON connect to %s failed: %v", c.inst.rconAddr, err)
		return
	}

	c.conn = conn
	c.logger.Infof("RCON connection established to %s", c.inst.rconAddr)
}

// send delivers one command. Over RCON the server's textual response is
// returned; over the input stream the delivery is fire-and-forget and the
// response text is empty.
func (c *commandChannel) send(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		resp, err := c.conn.Execute(command)
		if err == nil {
			return resp, nil
		}

		c.logger.Warnf("RCON send failed, falling back to input stream: %v", err)
		_ = c.conn.Close()
		c.conn = nil
		c.broken = true
	}

	return "", c.writeStdin(command)
}

func (c *commandChannel) writeStdin(command string) error {
	c.inst.mu.Lock()
	stdin := c.inst.stdin
	c.inst.mu.Unlock()

	if stdin == nil {
		return fmt.Errorf("%w: %s", ErrNotRunning, c.inst.ID)
	}

	_, err := fmt.Fprintf(stdin, "%s\n", command)
	return err
}

func (c *commandChannel) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// SendCommand delivers a command to the running server and echoes it into
// the console history as a command-kind entry. It fails with ErrNotRunning
// when no run is active.
func (s *ServerInstance) SendCommand(command string) (string, error) {
	s.mu.Lock()
	if !s.status.Active() {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrNotRunning, s.ID)
	}
	cc := s.cmdCh
	s.mu.Unlock()

	if cc == nil {
		return "", fmt.Errorf("%w: %s", ErrNotRunning, s.ID)
	}

	resp, err := cc.send(command)
	if err != nil {
		return "", err
	}

	s.appendConsole(codec.EntryCommand, command)
	return resp, nil
}
