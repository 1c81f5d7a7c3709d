package store

import "sync/atomic"

// Client is C1's public face: a handle callers use exactly like a blocking
// database client, even though every call is actually serviced by one of a
// fixed pool of worker goroutines reading off a shared request channel.
//
// A single *db sits behind every worker. Go's database/sql with
// SetMaxOpenConns(1) already forces every call into it to execute one at a
// time, so sizing the pool above 1 buys overlapped request queuing/scanning
// without ever letting two goroutines touch SQLite concurrently — the same
// "only one worker may hold the store handle" discipline the original
// actor-per-thread model enforced.
type Client struct {
	conn     *db
	requests chan request
	done     chan struct{}

	queueDepth atomic.Int64
	inFlight   atomic.Int64
}

type request struct {
	fn    func(*db) (any, error)
	reply chan result
}

type result struct {
	val any
	err error
}

// Open starts a worker pool of size workers (minimum 1) backed by the
// SQLite file at path, creating the schema if necessary.
func Open(path string, workers int) (*Client, error) {
	if workers < 1 {
		workers = 1
	}

	conn, err := openDB(path)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:     conn,
		requests: make(chan request),
		done:     make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		go c.worker(conn)
	}

	return c, nil
}

func (c *Client) worker(conn *db) {
	for {
		select {
		case req, ok := <-c.requests:
			if !ok {
				return
			}
			c.queueDepth.Add(-1)
			c.inFlight.Add(1)
			val, err := req.fn(conn)
			c.inFlight.Add(-1)
			req.reply <- result{val: val, err: err}
		case <-c.done:
			return
		}
	}
}

// QueueDepth reports how many requests are currently waiting for a worker.
func (c *Client) QueueDepth() int64 { return c.queueDepth.Load() }

// InFlight reports how many requests are currently executing.
func (c *Client) InFlight() int64 { return c.inFlight.Load() }

// Close stops the worker pool and closes the underlying SQLite handle.
// In-flight requests may be abandoned; callers should not still be in
// flight when Close is invoked.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.close()
}

func (c *Client) do(op string, fn func(*db) (any, error)) (any, error) {
	reply := make(chan result, 1)
	c.queueDepth.Add(1)
	c.requests <- request{fn: fn, reply: reply}
	res := <-reply
	if res.err != nil {
		return nil, wrapErr(op, res.err)
	}
	return res.val, nil
}

// GetVn retrieves a VN by id, returning (nil, nil) if it is not catalogued.
func (c *Client) GetVn(id int64) (*Vn, error) {
	v, err := c.do("get_vn", func(d *db) (any, error) { return d.getVn(id) })
	if err != nil || v == nil {
		return nil, err
	}
	return v.(*Vn), nil
}

// GetVnData retrieves a VN together with every hook recorded against it.
func (c *Client) GetVnData(id int64) (*VnData, error) {
	vn, err := c.GetVn(id)
	if err != nil {
		return nil, err
	}
	if vn == nil {
		return nil, nil
	}
	hooks, err := c.GetHooks(vn.ID)
	if err != nil {
		return nil, err
	}
	return &VnData{Vn: *vn, Hooks: hooks}, nil
}

// PutVn inserts a VN if missing, or returns the existing record.
func (c *Client) PutVn(id int64, title string) (*Vn, error) {
	v, err := c.do("put_vn", func(d *db) (any, error) { return d.putVn(id, title) })
	if err != nil {
		return nil, err
	}
	return v.(*Vn), nil
}

// SearchVn returns every VN whose title contains the given substring.
func (c *Client) SearchVn(title string) ([]Vn, error) {
	v, err := c.do("search_vn", func(d *db) (any, error) { return d.searchVn(title) })
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.([]Vn), nil
}

// GetHooks lists every hook recorded for the given VN id.
func (c *Client) GetHooks(vnID int64) ([]Hook, error) {
	v, err := c.do("get_hooks", func(d *db) (any, error) { return d.getHooks(vnID) })
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.([]Hook), nil
}

// PutHook inserts or updates the hook for vnID/version.
func (c *Client) PutHook(vnID int64, version, code string) (*Hook, error) {
	v, err := c.do("put_hook", func(d *db) (any, error) { return d.putHook(vnID, version, code) })
	if err != nil {
		return nil, err
	}
	return v.(*Hook), nil
}

// DeleteHook removes the hook for vnID/version, returning rows affected.
func (c *Client) DeleteHook(vnID int64, version string) (int64, error) {
	v, err := c.do("delete_hook", func(d *db) (any, error) { return d.deleteHook(vnID, version) })
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// DeleteVn removes a VN and, via ON DELETE CASCADE, every hook for it.
func (c *Client) DeleteVn(id int64) (int64, error) {
	v, err := c.do("delete_vn", func(d *db) (any, error) { return d.deleteVn(id) })
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// Stats reports table row counts, backing the HTTP admin dashboard and the
// "stats" CLI subcommand.
func (c *Client) Stats() (Stats, error) {
	vns, err := c.do("count_vns", func(d *db) (any, error) { return d.countVns() })
	if err != nil {
		return Stats{}, err
	}
	hooks, err := c.do("count_hooks", func(d *db) (any, error) { return d.countHooks() })
	if err != nil {
		return Stats{}, err
	}
	return Stats{Vns: vns.(int64), Hooks: hooks.(int64)}, nil
}
