package manager

import (
	"encoding/binary"
	"net"
	"strconv"
	"testing"

	"craftd/pkg/codec"
	"craftd/pkg/logger"

	"github.com/fxamacker/cbor/v2"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()

	return &Daemon{
		registry:    NewRegistry(t.TempDir()),
		broadcaster: NewBroadcaster(),
		logger:      logger.Logging("daemon-test"),
	}
}

// roundTrip runs one request through a real session over an in-memory
// connection and returns the decoded response.
func roundTrip(t *testing.T, d *Daemon, msg *codec.ActionMsg) *codec.ResponseMsg {
	t.Helper()

	server, clientConn := net.Pipe()
	session := NewSession(d, server)

	done := make(chan codec.ResponseCtl, 1)
	go func() {
		done <- session.Handle()
	}()

	enc, err := codec.GetEncoder()
	if err != nil {
		t.Fatal(err)
	}
	data, err := enc.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	size := make([]byte, strconv.IntSize)
	binary.BigEndian.PutUint64(size, uint64(len(data)))
	if _, err := clientConn.Write(size); err != nil {
		t.Fatal(err)
	}
	if _, err := clientConn.Write(data); err != nil {
		t.Fatal(err)
	}

	sock := &ctlSocket{conn: clientConn}
	buf, err := sock.Recv(strconv.IntSize)
	if err != nil {
		t.Fatal(err)
	}
	buf, err = sock.Recv(binary.BigEndian.Uint64(buf))
	if err != nil {
		t.Fatal(err)
	}

	var res codec.ResponseMsg
	if err := cbor.Unmarshal(buf, &res); err != nil {
		t.Fatal(err)
	}

	<-done
	_ = clientConn.Close()
	return &res
}

func TestSessionCreateAndList(t *testing.T) {
	d := newTestDaemon(t)

	res := roundTrip(t, d, &codec.ActionMsg{Action: codec.ActionCreate, Server: "survival"})
	if res.Code != 200 {
		t.Fatalf("create code = %d (%s)", res.Code, res.Message)
	}

	res = roundTrip(t, d, &codec.ActionMsg{Action: codec.ActionList})
	if res.Code != 200 || len(res.Servers) != 1 {
		t.Fatalf("list = %d with %d servers", res.Code, len(res.Servers))
	}
	if res.Servers[0].ID != "survival" || res.Servers[0].Status != codec.StateStopped {
		t.Errorf("row = %+v", res.Servers[0])
	}
}

func TestSessionErrorCodes(t *testing.T) {
	d := newTestDaemon(t)

	tests := []struct {
		name string
		msg  *codec.ActionMsg
		code int
	}{
		{"status of unknown server", &codec.ActionMsg{Action: codec.ActionStatus, Server: "ghost"}, 404},
		{"invalid create name", &codec.ActionMsg{Action: codec.ActionCreate, Server: "bad name"}, 400},
		{"stop of stopped server", &codec.ActionMsg{Action: codec.ActionStop, Server: "idle"}, 409},
	}

	if _, err := d.registry.Create("idle"); err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		res := roundTrip(t, d, tt.msg)
		if res.Code != tt.code {
			t.Errorf("%s: code = %d, want %d", tt.name, res.Code, tt.code)
		}
	}
}

func TestSessionStatusReport(t *testing.T) {
	d := newTestDaemon(t)

	if _, err := d.registry.Create("survival"); err != nil {
		t.Fatal(err)
	}

	res := roundTrip(t, d, &codec.ActionMsg{Action: codec.ActionStatus, Server: "survival"})
	if res.Code != 200 || res.Status == nil {
		t.Fatalf("status response = %+v", res)
	}
	if res.Status.Status != codec.StateStopped {
		t.Errorf("status = %s, want stopped", res.Status.Status)
	}
	if res.Status.Performance.TPS != defaultTPS {
		t.Errorf("TPS = %v, want default", res.Status.Performance.TPS)
	}
}

func TestSessionConsoleLimitAndKind(t *testing.T) {
	d := newTestDaemon(t)

	inst, err := d.registry.Create("survival")
	if err != nil {
		t.Fatal(err)
	}
	inst.appendConsole(codec.EntryInfo, "hello")
	inst.appendConsole(codec.EntryError, "boom")
	inst.appendConsole(codec.EntryInfo, "world")

	res := roundTrip(t, d, &codec.ActionMsg{Action: codec.ActionConsole, Server: "survival", Limit: 2})
	if len(res.Console) != 2 {
		t.Fatalf("limited console = %d entries", len(res.Console))
	}
	if res.Console[0].Message != "boom" || res.Console[1].Message != "world" {
		t.Errorf("entries = %v", res.Console)
	}

	res = roundTrip(t, d, &codec.ActionMsg{Action: codec.ActionConsole, Server: "survival", Kind: "error"})
	if len(res.Console) != 1 || res.Console[0].Message != "boom" {
		t.Errorf("kind-filtered entries = %v", res.Console)
	}
}

func TestSessionShutdownResult(t *testing.T) {
	d := newTestDaemon(t)

	server, clientConn := net.Pipe()
	session := NewSession(d, server)

	done := make(chan codec.ResponseCtl, 1)
	go func() {
		done <- session.Handle()
	}()

	enc, _ := codec.GetEncoder()
	data, _ := enc.Marshal(&codec.ActionMsg{Action: codec.ActionShutdown})
	size := make([]byte, strconv.IntSize)
	binary.BigEndian.PutUint64(size, uint64(len(data)))
	_, _ = clientConn.Write(size)
	_, _ = clientConn.Write(data)

	sock := &ctlSocket{conn: clientConn}
	buf, err := sock.Recv(strconv.IntSize)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sock.Recv(binary.BigEndian.Uint64(buf)); err != nil {
		t.Fatal(err)
	}

	if result := <-done; result != codec.ResponseShutdown {
		t.Fatalf("Handle result = %v, want ResponseShutdown", result)
	}
}
