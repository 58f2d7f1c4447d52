package manager

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"craftd/pkg/codec"
	"craftd/pkg/config"
	"craftd/pkg/logger"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"
)

type CtlClient struct {
	sock   *ctlSocket
	logger *zap.SugaredLogger
}

func dialDaemon() (*CtlClient, error) {
	conn, err := net.Dial("unix", config.GetConfig().Socket)
	if err != nil {
		return nil, err
	}

	return &CtlClient{
		sock:   &ctlSocket{conn: conn},
		logger: logger.Logging("craftd-cli"),
	}, nil
}

func (c *CtlClient) sendRequest(msg *codec.ActionMsg) error {
	enc, err := codec.GetEncoder()
	if err != nil {
		return err
	}

	data, err := enc.Marshal(msg)
	if err != nil {
		return err
	}

	size := make([]byte, strconv.IntSize)
	binary.BigEndian.PutUint64(size, uint64(len(data)))

	if err := c.sock.Send(size); err != nil {
		return err
	}
	return c.sock.Send(data)
}

func (c *CtlClient) recvFrame(v any) error {
	data, err := c.sock.Recv(strconv.IntSize)
	if err != nil {
		return err
	}

	length := binary.BigEndian.Uint64(data)
	data, err = c.sock.Recv(length)
	if err != nil {
		return err
	}

	return cbor.Unmarshal(data, v)
}

// ClientRun performs one request/response exchange with the daemon. Errors
// are reported on stderr and yield a nil response, so callers can treat
// nil as "nothing to show".
func ClientRun(msg *codec.ActionMsg) *codec.ResponseMsg {
	c, err := dialDaemon()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return nil
	}
	defer func() {
		_ = c.sock.Close()
	}()

	if err := c.sendRequest(msg); err != nil {
		c.logger.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return nil
	}

	var res codec.ResponseMsg
	if err := c.recvFrame(&res); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		c.logger.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return nil
	}

	return &res
}

// ClientWatch opens a watch stream and calls handle for every event frame
// until the daemon closes the stream or stop is closed.
func ClientWatch(msg *codec.ActionMsg, stop <-chan struct{}, handle func(*codec.EventMsg)) error {
	c, err := dialDaemon()
	if err != nil {
		return err
	}
	defer func() {
		_ = c.sock.Close()
	}()

	if err := c.sendRequest(msg); err != nil {
		return err
	}

	var ack codec.ResponseMsg
	if err := c.recvFrame(&ack); err != nil {
		return err
	}
	if ack.Code != 200 {
		return fmt.Errorf("watch rejected: %s", ack.Message)
	}

	// Closing the connection from another goroutine is what breaks the
	// blocking Recv below.
	go func() {
		<-stop
		_ = c.sock.Close()
	}()

	for {
		var ev codec.EventMsg
		if err := c.recvFrame(&ev); err != nil {
			return nil
		}
		handle(&ev)
	}
}
