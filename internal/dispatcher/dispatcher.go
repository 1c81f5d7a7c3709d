package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/doumanash/roseline/internal/executor"
	"github.com/doumanash/roseline/internal/metrics"
	"github.com/doumanash/roseline/internal/store"
	"github.com/doumanash/roseline/internal/transport"
	"github.com/doumanash/roseline/internal/vndbclient"
)

// retryDelay is how long the dispatcher waits before re-issuing a command
// that failed with a transient remote error, per spec.md §4.4/§9: C2 itself
// never retries, but C4 gets one retry at the chat-command layer.
const retryDelay = 500 * time.Millisecond

// Dispatcher is C4: it turns parsed commands into executor calls and
// formatted reply lines, and keeps a per-network ignore list so a muted
// user's messages are dropped before they ever reach the executor.
type Dispatcher struct {
	exec *executor.Executor
	log  zerolog.Logger
	m    *metrics.Registry

	mu      sync.RWMutex
	ignored map[string]map[string]bool // network -> sender -> ignored
}

// New builds a Dispatcher over an already-constructed Executor. m may be
// nil, in which case commands are dispatched without being counted.
func New(exec *executor.Executor, log zerolog.Logger, m *metrics.Registry) *Dispatcher {
	return &Dispatcher{
		exec:    exec,
		log:     log,
		m:       m,
		ignored: make(map[string]map[string]bool),
	}
}

// Ignore mutes sender on network: their messages are dropped before
// parsing, without any acknowledgement reply.
func (d *Dispatcher) Ignore(network, sender string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ignored[network] == nil {
		d.ignored[network] = make(map[string]bool)
	}
	d.ignored[network][sender] = true
}

// Unignore reverses a prior Ignore.
func (d *Dispatcher) Unignore(network, sender string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.ignored[network], sender)
}

func (d *Dispatcher) isIgnored(network, sender string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ignored[network][sender]
}

// Handle parses ev.Text and, if it names a command or contains a bare
// reference, executes it and sends the formatted reply back through
// reply. It is a no-op for messages that parse to nothing, and for
// messages from an ignored sender.
func (d *Dispatcher) Handle(ctx context.Context, ev transport.Event, reply transport.Replier) {
	if d.isIgnored(ev.Network, ev.Sender) {
		return
	}

	cmd, ok := Parse(ev.Text)
	if !ok {
		return
	}
	if d.m != nil {
		d.m.CommandsTotal.WithLabelValues(cmd.Kind.String()).Inc()
	}

	lines := d.dispatch(ctx, ev, cmd)
	if len(lines) == 0 {
		return
	}
	if err := reply.Reply(ctx, ev, lines); err != nil {
		d.log.Warn().Err(err).Str("network", ev.Network).Str("channel", ev.Channel).Msg("dispatcher: reply failed")
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, ev transport.Event, cmd Command) []string {
	switch cmd.Kind {
	case CmdPing:
		return []string{"pong"}
	case CmdHelp:
		return []string{helpText}
	case CmdDBStats:
		return d.dbStats()
	case CmdVN:
		return d.vn(ctx, cmd)
	case CmdGetHookHelp:
		return []string{"For which VN...?"}
	case CmdGetHookByID:
		return d.getHookByID(ctx, cmd.ID)
	case CmdGetHook:
		return d.getHookByTitle(ctx, cmd.Title)
	case CmdSetHookHelp:
		if cmd.HelpMessage != "" {
			return []string{cmd.HelpMessage}
		}
		return []string{"Usage: <title> <version> <code>"}
	case CmdSetHookByID, CmdSetHook:
		return d.setHook(ctx, cmd)
	case CmdDelHookHelp:
		if cmd.HelpMessage != "" {
			return []string{cmd.HelpMessage}
		}
		return []string{"Usage: <title> <version>"}
	case CmdDelHookByID, CmdDelHook:
		return d.delHook(ctx, cmd)
	case CmdDelVnHelp:
		return []string{"Usage: <title>"}
	case CmdDelVnByID, CmdDelVn:
		return d.delVn(ctx, cmd)
	case CmdVnRef:
		return d.vnRef(ctx, cmd.Refs)
	case CmdIgnoreHelp:
		return []string{"Who to ignore?"}
	case CmdIgnore:
		return d.toggleIgnore(ev.Network, cmd.Title)
	case CmdIgnoreList:
		return d.ignoreList(ev.Network)
	default:
		return nil
	}
}

// toggleIgnore flips name's ignored state on network, per spec's
// ".ignore <name> toggles" grammar.
func (d *Dispatcher) toggleIgnore(network, name string) []string {
	if d.isIgnored(network, name) {
		d.Unignore(network, name)
		return []string{"No longer ignoring " + name}
	}
	d.Ignore(network, name)
	return []string{"Now ignoring " + name}
}

func (d *Dispatcher) ignoreList(network string) []string {
	d.mu.RLock()
	names := make([]string, 0, len(d.ignored[network]))
	for name := range d.ignored[network] {
		names = append(names, name)
	}
	d.mu.RUnlock()

	if len(names) == 0 {
		return []string{"Nobody is ignored"}
	}
	sort.Strings(names)
	return []string{"Ignoring: " + strings.Join(names, ", ")}
}

func (d *Dispatcher) dbStats() []string {
	stats, err := d.exec.Stats()
	if err != nil {
		return []string{errLine(err)}
	}
	return []string{fmt.Sprintf("DB has %d VNs and %d Hooks", stats.Vns, stats.Hooks)}
}

func (d *Dispatcher) vn(ctx context.Context, cmd Command) []string {
	if !cmd.HasTitle {
		return []string{"Which VN...?"}
	}

	var vn vndbclient.VN
	err := retryOnBadRemote(ctx, func() error {
		v, err := d.exec.FindVN(ctx, cmd.Title)
		vn = v
		return err
	})
	if err != nil {
		return []string{errLine(err)}
	}
	return []string{formatVnLink(vn.Title, vn.ID)}
}

func (d *Dispatcher) getHookByID(ctx context.Context, id int64) []string {
	var data *store.VnData
	err := retryOnBadRemote(ctx, func() error {
		d2, err := d.exec.GetHook(ctx, "v"+strconv.FormatInt(id, 10))
		data = d2
		return err
	})
	if err != nil {
		return []string{errLine(err)}
	}
	return []string{formatHookData(data)}
}

func (d *Dispatcher) getHookByTitle(ctx context.Context, title string) []string {
	var data *store.VnData
	err := retryOnBadRemote(ctx, func() error {
		d2, err := d.exec.GetHook(ctx, title)
		data = d2
		return err
	})
	if err != nil {
		return []string{errLine(err)}
	}
	return []string{formatHookData(data)}
}

func (d *Dispatcher) setHook(ctx context.Context, cmd Command) []string {
	ref := cmd.Title
	if cmd.Kind == CmdSetHookByID {
		ref = "v" + strconv.FormatInt(cmd.ID, 10)
	}

	var hookCode string
	var vnTitle string
	err := retryOnBadRemote(ctx, func() error {
		hook, err := d.exec.SetHook(ctx, ref, cmd.Version, cmd.Code)
		if err != nil {
			return err
		}
		hookCode = hook.Code
		vn, getErr := d.exec.GetVNLocal(hook.VnID)
		if getErr == nil && vn != nil {
			vnTitle = vn.Title
		}
		return nil
	})
	if err != nil {
		return []string{errLine(err)}
	}
	return []string{"Added hook '" + hookCode + "' for VN: " + vnTitle}
}

func (d *Dispatcher) delHook(ctx context.Context, cmd Command) []string {
	ref := cmd.Title
	if cmd.Kind == CmdDelHookByID {
		ref = "v" + strconv.FormatInt(cmd.ID, 10)
	}

	var n int64
	err := retryOnBadRemote(ctx, func() error {
		num, err := d.exec.DelHook(ctx, ref, cmd.Version)
		n = num
		return err
	})
	if err != nil {
		return []string{errLine(err)}
	}
	if n == 0 {
		return []string{"No hook for the version '" + cmd.Version + "' exists"}
	}
	return []string{"Removed hook"}
}

func (d *Dispatcher) delVn(ctx context.Context, cmd Command) []string {
	ref := cmd.Title
	if cmd.Kind == CmdDelVnByID {
		ref = "v" + strconv.FormatInt(cmd.ID, 10)
	}

	var n int64
	err := retryOnBadRemote(ctx, func() error {
		num, err := d.exec.DelVN(ctx, ref)
		n = num
		return err
	})
	if err != nil {
		return []string{errLine(err)}
	}
	if n == 0 {
		return []string{"No hooks exists for VN"}
	}
	return []string{"Removed VN with all hooks"}
}

func (d *Dispatcher) vnRef(ctx context.Context, refs []ObjectRef) []string {
	var lines []string
	for _, ref := range refs {
		var name string
		err := retryOnBadRemote(ctx, func() error {
			n, err := d.exec.GetVndbObject(ctx, executor.RemoteObjectRef{Kind: ref.Kind, ID: ref.ID})
			name = n
			return err
		})
		if err != nil {
			d.log.Warn().Err(err).Str("kind", string(ref.Kind)).Int64("id", ref.ID).Msg("dispatcher: object ref lookup failed")
			continue
		}
		lines = append(lines, formatRef(letterFromKind(ref.Kind), ref.ID, name))
	}
	return lines
}

func retryOnBadRemote(ctx context.Context, fn func() error) error {
	err := fn()
	if _, ok := err.(executor.BadRemote); !ok {
		return err
	}
	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn()
}

func errLine(err error) string {
	return err.Error()
}
