package vndbclient

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeRemote is a minimal stand-in for vndb.org: it accepts a login, then
// answers every subsequent request with a canned "results" line.
type fakeRemote struct {
	conn    net.Conn
	reader  *bufio.Reader
	scripts chan string // canned response lines, one per expected request
}

func (fr *fakeRemote) serve(t *testing.T) {
	// Consume the login line and answer ok.
	if _, err := fr.reader.ReadString(terminator); err != nil {
		return
	}
	if _, err := fr.conn.Write([]byte("ok" + string(terminator))); err != nil {
		return
	}

	for {
		if _, err := fr.reader.ReadString(terminator); err != nil {
			return
		}
		line, ok := <-fr.scripts
		if !ok {
			return
		}
		if _, err := fr.conn.Write([]byte(line + string(terminator))); err != nil {
			return
		}
	}
}

func TestVNByIDDecodesResults(t *testing.T) {
	remoteCh := make(chan *fakeRemote, 1)
	dial := func() (io.ReadWriteCloser, error) {
		client, server := net.Pipe()
		fr := &fakeRemote{conn: server, reader: bufio.NewReader(server), scripts: make(chan string, 8)}
		remoteCh <- fr
		go fr.serve(t)
		return client, nil
	}

	c := New(dial, zerolog.Nop())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resultCh := make(chan struct {
		vns []VN
		err error
	}, 1)
	go func() {
		vns, err := c.VNByID(ctx, 17)
		resultCh <- struct {
			vns []VN
			err error
		}{vns, err}
	}()

	fr := <-remoteCh
	fr.scripts <- `results {"num":1,"more":false,"items":[{"id":17,"title":"Narcissu","original":""}]}`

	res := <-resultCh
	if res.err != nil {
		t.Fatalf("VNByID: %v", res.err)
	}
	if len(res.vns) != 1 || res.vns[0].ID != 17 {
		t.Fatalf("VNByID = %+v, want one VN with id 17", res.vns)
	}
}

func TestObjectByIDDecodesNonVNKind(t *testing.T) {
	remoteCh := make(chan *fakeRemote, 1)
	dial := func() (io.ReadWriteCloser, error) {
		client, server := net.Pipe()
		fr := &fakeRemote{conn: server, reader: bufio.NewReader(server), scripts: make(chan string, 8)}
		remoteCh <- fr
		go fr.serve(t)
		return client, nil
	}

	c := New(dial, zerolog.Nop())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resultCh := make(chan struct {
		objs []Object
		err  error
	}, 1)
	go func() {
		objs, err := c.ObjectByID(ctx, KindCharacter, 25)
		resultCh <- struct {
			objs []Object
			err  error
		}{objs, err}
	}()

	fr := <-remoteCh
	fr.scripts <- `results {"num":1,"more":false,"items":[{"id":25,"name":"Tomoya"}]}`

	res := <-resultCh
	if res.err != nil {
		t.Fatalf("ObjectByID: %v", res.err)
	}
	if len(res.objs) != 1 || res.objs[0].ID != 25 || res.objs[0].Name != "Tomoya" {
		t.Fatalf("ObjectByID = %+v, want one object {25 Tomoya}", res.objs)
	}
}

// TestSendFailsFastWhileDisconnected pins down that a request issued while
// the actor is stuck in its reconnect backoff fails immediately with
// ErrDisconnected instead of blocking on the unbuffered send channel until
// a connection comes up.
func TestSendFailsFastWhileDisconnected(t *testing.T) {
	dial := func() (io.ReadWriteCloser, error) {
		return nil, errors.New("dial refused")
	}

	c := New(dial, zerolog.Nop())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	_, err := c.VNByID(ctx, 1)
	elapsed := time.Since(start)

	vErr, ok := err.(*Error)
	if !ok || vErr.Kind != ErrDisconnected {
		t.Fatalf("VNByID error = %v, want *Error{Kind: ErrDisconnected}", err)
	}
	if elapsed > 500*time.Millisecond {
		t.Fatalf("VNByID took %v to fail while disconnected, want well under the 1s backoff step", elapsed)
	}
}

func TestDisconnectAbortsPendingRequest(t *testing.T) {
	remoteCh := make(chan *fakeRemote, 1)
	dial := func() (io.ReadWriteCloser, error) {
		client, server := net.Pipe()
		fr := &fakeRemote{conn: server, reader: bufio.NewReader(server), scripts: make(chan string, 8)}
		remoteCh <- fr
		go fr.serve(t)
		return client, nil
	}

	c := New(dial, zerolog.Nop())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		_, err := c.VNByID(ctx, 1)
		resultCh <- err
	}()

	fr := <-remoteCh
	// Wait until the request has been written and queued, so it is pending
	// on the live connection rather than arriving during a reconnect.
	waitFor(t, func() bool { return c.Stats().Pending == 1 })
	// Kill the connection without ever answering — forces the pending
	// request to be drained as aborted, matching Q2.
	fr.conn.Close()

	err := <-resultCh
	if err == nil {
		t.Fatal("VNByID succeeded despite connection being dropped mid-flight")
	}
	vErr, ok := err.(*Error)
	if !ok || vErr.Kind != ErrAborted {
		t.Fatalf("VNByID error = %v, want *Error{Kind: ErrAborted}", err)
	}
}

func TestStatsReflectsConnectionLifecycle(t *testing.T) {
	remoteCh := make(chan *fakeRemote, 1)
	dial := func() (io.ReadWriteCloser, error) {
		client, server := net.Pipe()
		fr := &fakeRemote{conn: server, reader: bufio.NewReader(server), scripts: make(chan string, 8)}
		remoteCh <- fr
		go fr.serve(t)
		return client, nil
	}

	c := New(dial, zerolog.Nop())
	defer c.Close()

	fr := <-remoteCh
	waitFor(t, func() bool { return c.Stats().Connected })
	if stats := c.Stats(); !stats.Connected || stats.Reconnects != 1 {
		t.Fatalf("Stats() = %+v, want Connected=true Reconnects=1", stats)
	}

	fr.conn.Close()
	waitFor(t, func() bool { return !c.Stats().Connected })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
