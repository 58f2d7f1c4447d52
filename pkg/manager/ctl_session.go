package manager

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"

	"craftd/pkg/codec"
	"craftd/pkg/logger"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"
)

type ctlSocket struct {
	conn net.Conn
}

func (s *ctlSocket) Recv(l uint64) ([]byte, error) {
	buf := make([]byte, l)
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *ctlSocket) Send(v []byte) error {
	_, err := s.conn.Write(v)
	return err
}

func (s *ctlSocket) Close() error {
	return s.conn.Close()
}

// CtlSession serves one client connection: a single framed request, a
// single framed response, except for watch which turns the connection into
// an event stream.
type CtlSession struct {
	d      *Daemon
	sock   *ctlSocket
	sendMu sync.Mutex
	logger *zap.SugaredLogger
}

func NewSession(d *Daemon, c net.Conn) *CtlSession {
	return &CtlSession{
		d:      d,
		sock:   &ctlSocket{conn: c},
		logger: logger.Logging("craftd-serv"),
	}
}

func (se *CtlSession) errorResponse(err error) (*codec.ResponseMsg, codec.ResponseCtl) {
	se.logger.Error(err)
	return &codec.ResponseMsg{
		Code:    errorCode(err),
		Message: err.Error(),
	}, codec.ResponseMsgErr
}

// errorCode maps domain errors onto the wire status codes clients print.
func errorCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrInvalidName):
		return 400
	case errors.Is(err, ErrAlreadyRunning),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrNotRunning):
		return 409
	default:
		return 500
	}
}

// sendFrame writes one length-prefixed cbor frame. Response and event
// frames share the connection, so writes are serialized.
func (se *CtlSession) sendFrame(v any) error {
	enc, err := codec.GetEncoder()
	if err != nil {
		return err
	}

	buf, err := enc.Marshal(v)
	if err != nil {
		return err
	}

	size := make([]byte, strconv.IntSize)
	binary.BigEndian.PutUint64(size, uint64(len(buf)))

	se.sendMu.Lock()
	defer se.sendMu.Unlock()

	if err := se.sock.Send(size); err != nil {
		return err
	}
	return se.sock.Send(buf)
}

func (se *CtlSession) sendResponse(res *codec.ResponseMsg, result codec.ResponseCtl) codec.ResponseCtl {
	if err := se.sendFrame(res); err != nil {
		se.logger.Error(err)
		return codec.ResponseMsgErr
	}
	return result
}

func (se *CtlSession) Handle() codec.ResponseCtl {
	defer func() {
		_ = se.sock.Close()
	}()

	buf, err := se.sock.Recv(strconv.IntSize)
	if err != nil {
		res, result := se.errorResponse(err)
		return se.sendResponse(res, result)
	}

	msgLen := binary.BigEndian.Uint64(buf)
	buf, err = se.sock.Recv(msgLen)
	if err != nil {
		res, result := se.errorResponse(err)
		return se.sendResponse(res, result)
	}

	var msg codec.ActionMsg
	if err := cbor.Unmarshal(buf, &msg); err != nil {
		res, result := se.errorResponse(err)
		return se.sendResponse(res, result)
	}

	switch msg.Action {
	case codec.ActionShutdown:
		res := &codec.ResponseMsg{
			Code:    200,
			Message: "Shutdown prepared",
		}
		return se.sendResponse(res, codec.ResponseShutdown)
	case codec.ActionWatch:
		return se.doWatch(&msg)
	default:
		return se.sendResponse(se.doAction(&msg), codec.ResponseNormal)
	}
}

func (se *CtlSession) doAction(msg *codec.ActionMsg) *codec.ResponseMsg {
	res := &codec.ResponseMsg{
		Code:    200,
		Message: codec.ActionResponse[msg.Action],
	}

	switch msg.Action {
	case codec.ActionCreate:
		if _, err := se.d.registry.Create(msg.Server); err != nil {
			r, _ := se.errorResponse(err)
			return r
		}
	case codec.ActionRemove:
		if err := se.d.registry.Remove(msg.Server); err != nil {
			r, _ := se.errorResponse(err)
			return r
		}
	case codec.ActionList:
		for _, info := range se.d.registry.List() {
			res.Servers = append(res.Servers, &codec.ServerInfo{
				ID:      info.ID,
				Status:  info.Status,
				Players: info.Players,
			})
		}
	default:
		return se.doInstanceAction(msg, res)
	}

	return res
}

// doInstanceAction covers the operations addressed to one existing server.
func (se *CtlSession) doInstanceAction(msg *codec.ActionMsg, res *codec.ResponseMsg) *codec.ResponseMsg {
	inst, err := se.d.registry.Get(msg.Server)
	if err != nil {
		r, _ := se.errorResponse(err)
		return r
	}

	switch msg.Action {
	case codec.ActionStart:
		pid, err := inst.Start()
		if err != nil {
			r, _ := se.errorResponse(err)
			return r
		}
		res.Pid = pid
	case codec.ActionStop:
		if err := inst.Stop(msg.Force); err != nil {
			r, _ := se.errorResponse(err)
			return r
		}
	case codec.ActionRestart:
		pid, err := inst.Restart()
		if err != nil {
			r, _ := se.errorResponse(err)
			return r
		}
		res.Pid = pid
	case codec.ActionSend:
		reply, err := inst.SendCommand(msg.Command)
		if err != nil {
			r, _ := se.errorResponse(err)
			return r
		}
		if reply != "" {
			res.Message = reply
		}
	case codec.ActionStatus:
		report := inst.StatusReport()
		res.Status = &report
	case codec.ActionConsole:
		res.Console = inst.ConsoleOutput(msg.Limit, codec.EntryKind(msg.Kind))
	default:
		res.Code = 400
		res.Message = "Unknown action"
	}

	return res
}

// watchSubscriber adapts the session into broadcaster subscribers. A frame
// write error bubbles up and gets the subscriber evicted.
type watchSubscriber struct {
	se *CtlSession
}

func (w *watchSubscriber) SendStatus(report codec.StatusReport) error {
	return w.se.sendFrame(&codec.EventMsg{
		Kind:   codec.EventStatus,
		Server: report.Server,
		Status: &report,
	})
}

func (w *watchSubscriber) SendConsole(server string, entries []codec.ConsoleEntry) error {
	return w.se.sendFrame(&codec.EventMsg{
		Kind:    codec.EventConsole,
		Server:  server,
		Console: entries,
	})
}

// doWatch acknowledges the request, registers the connection with the
// broadcaster and then parks on the read side until the client goes away.
func (se *CtlSession) doWatch(msg *codec.ActionMsg) codec.ResponseCtl {
	inst, err := se.d.registry.Get(msg.Server)
	if err != nil {
		res, result := se.errorResponse(err)
		return se.sendResponse(res, result)
	}

	ack := &codec.ResponseMsg{
		Code:    200,
		Message: "Watch stream established",
	}
	if se.sendResponse(ack, codec.ResponseStream) == codec.ResponseMsgErr {
		return codec.ResponseMsgErr
	}

	sub := &watchSubscriber{se: se}
	if msg.Status {
		se.d.broadcaster.SubscribeStatus(inst, sub)
		_ = sub.SendStatus(inst.StatusReport())
	}
	if msg.Console {
		se.d.broadcaster.SubscribeConsole(inst, sub)
	}

	// Clients never send again on a watch connection, so a read only
	// returns once the peer closes.
	buf := make([]byte, 1)
	for {
		if _, err := se.sock.conn.Read(buf); err != nil {
			break
		}
	}

	se.d.broadcaster.UnsubscribeStatus(inst, sub)
	se.d.broadcaster.UnsubscribeConsole(inst, sub)
	se.logger.Debugf("Watch stream for %s closed", inst.ID)
	return codec.ResponseStream
}
