package manager

import (
	"errors"
	"net"
	"os"
	"sync"

	"craftd/pkg/codec"
	"craftd/pkg/logger"
	"craftd/pkg/utils"

	"go.uber.org/zap"
)

type ctlServer struct {
	d      *Daemon
	wg     sync.WaitGroup
	sock   net.Listener
	logger *zap.SugaredLogger
}

func (s *ctlServer) Listen() {
	defer func() {
		_ = s.sock.Close()
	}()

	for {
		conn, err := s.sock.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error(err)
			continue
		}

		session := NewSession(s.d, conn)

		s.wg.Add(1)
		go func(se *CtlSession) {
			defer s.wg.Done()

			result := se.Handle()
			if result == codec.ResponseShutdown {
				_ = s.sock.Close()
				select {
				case utils.FinishChan <- struct{}{}:
				default:
				}
			}
		}(session)
	}

	s.wg.Wait()
	s.logger.Info("Control server is stopped")
}

// StartServer brings up the unix-socket control listener and blocks in its
// accept loop. A shutdown request closes the listener and wakes the daemon
// main loop through FinishChan.
func (d *Daemon) StartServer(socketPath string) {
	_ = os.Remove(socketPath)

	socket, err := net.Listen("unix", socketPath)
	if err != nil {
		panic(err)
	}

	server := &ctlServer{
		d:      d,
		sock:   socket,
		logger: logger.Logging("craftd-daemon"),
	}

	d.setListener(socket)
	server.Listen()
}
