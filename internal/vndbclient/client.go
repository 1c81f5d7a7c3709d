package vndbclient

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// VN is the decoded subset of a vndb.org VN record this client returns.
type VN struct {
	ID       int64
	Title    string
	Original string
}

// Dialer opens a fresh transport to the remote. Production code dials TLS;
// tests substitute a net.Pipe-backed fake remote.
type Dialer func() (io.ReadWriteCloser, error)

const (
	backoffStep = time.Second
	backoffCap  = 5 * time.Second
)

type sendRequest struct {
	req   request
	reply chan sendResult
}

type sendResult struct {
	resp response
	err  error
}

// Client is the public face of C2: callers invoke its methods exactly like
// a blocking RPC client, while a single goroutine behind it owns the actual
// connection, queue and backoff state.
type Client struct {
	dial   Dialer
	log    zerolog.Logger
	send   chan sendRequest
	closed chan struct{}

	connected  atomic.Bool
	reconnects atomic.Int64
	pending    atomic.Int64
	backoffMs  atomic.Int64
}

// Stats is a point-in-time snapshot of the actor's connection state, which
// the supervisor copies into the metrics registry.
type Stats struct {
	Connected      bool
	Reconnects     int64
	Pending        int64
	BackoffSeconds float64
}

// Stats reports the client's current connection/backoff state.
func (c *Client) Stats() Stats {
	return Stats{
		Connected:      c.connected.Load(),
		Reconnects:     c.reconnects.Load(),
		Pending:        c.pending.Load(),
		BackoffSeconds: float64(c.backoffMs.Load()) / 1000,
	}
}

// TLSDialer builds a Dialer connecting to addr (host:port) over TLS, the
// production transport for api.vndb.org:19535.
func TLSDialer(addr string) Dialer {
	return func() (io.ReadWriteCloser, error) {
		conn, err := tls.Dial("tcp", addr, &tls.Config{MinVersion: tls.VersionTLS12})
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// New starts the C2 actor goroutine. dial is called every time the client
// needs to (re)establish a connection.
func New(dial Dialer, log zerolog.Logger) *Client {
	c := &Client{
		dial:   dial,
		log:    log,
		send:   make(chan sendRequest),
		closed: make(chan struct{}),
	}
	go c.run()
	return c
}

// Close stops the actor goroutine, aborting any in-flight request.
func (c *Client) Close() {
	close(c.closed)
}

func (c *Client) run() {
	var (
		conn     io.ReadWriteCloser
		writer   io.Writer
		queue    []chan sendResult
		backoff  time.Duration
		incoming chan response
		readErr  chan error
	)

	disconnect := func(err error) {
		if conn != nil {
			conn.Close()
			conn = nil
		}
		c.connected.Store(false)
		for _, waiter := range queue {
			waiter <- sendResult{err: &Error{Kind: ErrAborted, Message: "connection restarting"}}
		}
		c.pending.Add(-int64(len(queue)))
		queue = nil
		if err != nil {
			c.log.Warn().Err(err).Msg("vndbclient: connection lost")
		}
	}

	connect := func() bool {
		rwc, err := c.dial()
		if err != nil {
			c.log.Warn().Err(err).Msg("vndbclient: dial failed")
			return false
		}
		reader := bufio.NewReader(rwc)

		if _, err := rwc.Write(loginRequest().encode()); err != nil {
			c.log.Warn().Err(err).Msg("vndbclient: login write failed")
			rwc.Close()
			return false
		}
		resp, err := readResponse(reader)
		if err != nil || resp.kind != respOK {
			c.log.Warn().Err(err).Msg("vndbclient: login rejected")
			rwc.Close()
			return false
		}

		conn = rwc
		writer = rwc
		c.connected.Store(true)
		c.reconnects.Add(1)
		incoming = make(chan response)
		readErr = make(chan error, 1)
		go func() {
			for {
				r, err := readResponse(reader)
				if err != nil {
					readErr <- err
					return
				}
				incoming <- r
			}
		}()
		c.log.Info().Msg("vndbclient: connected")
		return true
	}

	for {
		if conn == nil {
			if connect() {
				backoff = 0
				c.backoffMs.Store(0)
			} else {
				select {
				case sr := <-c.send:
					sr.reply <- sendResult{err: &Error{Kind: ErrDisconnected, Message: "not connected"}}
					continue
				case <-time.After(backoff):
				case <-c.closed:
					return
				}
				if backoff < backoffCap {
					backoff += backoffStep
					if backoff > backoffCap {
						backoff = backoffCap
					}
				}
				c.backoffMs.Store(backoff.Milliseconds())
				continue
			}
		}

		select {
		case sr := <-c.send:
			if _, err := writer.Write(sr.req.encode()); err != nil {
				disconnect(err)
				sr.reply <- sendResult{err: &Error{Kind: ErrDisconnected, Message: err.Error()}}
				continue
			}
			queue = append(queue, sr.reply)
			c.pending.Add(1)

		case resp := <-incoming:
			if len(queue) == 0 {
				if resp.kind != respOK {
					c.log.Warn().Str("kind", string(resp.kind)).Msg("vndbclient: unsolicited response")
				}
				continue
			}
			waiter := queue[0]
			queue = queue[1:]
			c.pending.Add(-1)
			waiter <- sendResult{resp: resp}

		case err := <-readErr:
			disconnect(err)

		case <-c.closed:
			disconnect(nil)
			return
		}
	}
}

func (c *Client) do(ctx context.Context, req request) (response, error) {
	corrID := uuid.NewString()
	reply := make(chan sendResult, 1)
	select {
	case c.send <- sendRequest{req: req, reply: reply}:
		c.log.Debug().Str("correlation_id", corrID).Msg("vndbclient: request queued")
	case <-ctx.Done():
		return response{}, ctx.Err()
	case <-c.closed:
		return response{}, &Error{Kind: ErrDisconnected, Message: "client closed"}
	}

	select {
	case res := <-reply:
		c.log.Debug().Str("correlation_id", corrID).Bool("ok", res.err == nil).Msg("vndbclient: request completed")
		return res.resp, res.err
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

func decodeVNs(resp response) ([]VN, error) {
	if resp.kind == respError {
		var e errorPayload
		if err := json.Unmarshal(resp.payload, &e); err != nil {
			return nil, &Error{Kind: ErrRemoteProtocol, Message: "malformed error payload"}
		}
		return nil, &Error{Kind: ErrRemoteRejected, Message: fmt.Sprintf("%s: %s", e.ID, e.Message)}
	}
	if resp.kind != respResults {
		return nil, &Error{Kind: ErrRemoteProtocol, Message: fmt.Sprintf("unexpected response kind %q", resp.kind)}
	}

	var results resultsPayload
	if err := json.Unmarshal(resp.payload, &results); err != nil {
		return nil, &Error{Kind: ErrRemoteProtocol, Message: "malformed results payload"}
	}

	vns := make([]VN, 0, len(results.Items))
	for _, raw := range results.Items {
		var item vnItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &Error{Kind: ErrRemoteProtocol, Message: "malformed VN item"}
		}
		vns = append(vns, VN{ID: item.ID, Title: item.Title, Original: item.Original})
	}
	return vns, nil
}

// Object is a minimal decoded non-VN remote object (character, release,
// producer, user) — just enough to render a "kXX: name" reference line.
type Object struct {
	ID   int64
	Name string
}

func decodeObjects(resp response) ([]Object, error) {
	if resp.kind == respError {
		var e errorPayload
		if err := json.Unmarshal(resp.payload, &e); err != nil {
			return nil, &Error{Kind: ErrRemoteProtocol, Message: "malformed error payload"}
		}
		return nil, &Error{Kind: ErrRemoteRejected, Message: fmt.Sprintf("%s: %s", e.ID, e.Message)}
	}
	if resp.kind != respResults {
		return nil, &Error{Kind: ErrRemoteProtocol, Message: fmt.Sprintf("unexpected response kind %q", resp.kind)}
	}

	var results resultsPayload
	if err := json.Unmarshal(resp.payload, &results); err != nil {
		return nil, &Error{Kind: ErrRemoteProtocol, Message: "malformed results payload"}
	}

	objs := make([]Object, 0, len(results.Items))
	for _, raw := range results.Items {
		var item objectItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &Error{Kind: ErrRemoteProtocol, Message: "malformed object item"}
		}
		objs = append(objs, Object{ID: item.ID, Name: item.displayName()})
	}
	return objs, nil
}

// ObjectByID looks up a single non-VN object (character, release, producer,
// or user) by id, decoding only its display name. Callers needing a VN use
// VNByID instead, which decodes the fuller VN shape.
func (c *Client) ObjectByID(ctx context.Context, kind Kind, id int64) ([]Object, error) {
	resp, err := c.do(ctx, getByID(kind, id))
	if err != nil {
		return nil, err
	}
	return decodeObjects(resp)
}

// VNByID looks up a single VN by its numeric id.
func (c *Client) VNByID(ctx context.Context, id int64) ([]VN, error) {
	resp, err := c.do(ctx, vnByID(id))
	if err != nil {
		return nil, err
	}
	return decodeVNs(resp)
}

// VNByExactTitle matches VNs whose title or original title equals title.
func (c *Client) VNByExactTitle(ctx context.Context, title string) ([]VN, error) {
	resp, err := c.do(ctx, vnByExactTitle(title))
	if err != nil {
		return nil, err
	}
	return decodeVNs(resp)
}

// VNByFuzzyTitle matches VNs whose title or original title contains title.
func (c *Client) VNByFuzzyTitle(ctx context.Context, title string) ([]VN, error) {
	resp, err := c.do(ctx, vnByFuzzyTitle(title))
	if err != nil {
		return nil, err
	}
	return decodeVNs(resp)
}
