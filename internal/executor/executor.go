// Package executor implements C3: composing C1 (store) and C2 (remote)
// calls into the ladder workflows chat commands and the HTTP admin surface
// both drive. Every public method runs on its caller's own goroutine and
// touches no shared mutable state beyond the already-serialized C1/C2
// clients, so no actor machinery is needed here.
package executor

import (
	"context"
	"time"

	"github.com/doumanash/roseline/internal/metrics"
	"github.com/doumanash/roseline/internal/store"
	"github.com/doumanash/roseline/internal/vndbclient"
)

// Store is the subset of store.Client an Executor needs.
type Store interface {
	GetVn(id int64) (*store.Vn, error)
	PutVn(id int64, title string) (*store.Vn, error)
	SearchVn(title string) ([]store.Vn, error)
	GetHooks(vnID int64) ([]store.Hook, error)
	PutHook(vnID int64, version, code string) (*store.Hook, error)
	DeleteHook(vnID int64, version string) (int64, error)
	DeleteVn(id int64) (int64, error)
	Stats() (store.Stats, error)
}

// Remote is the subset of vndbclient.Client an Executor needs.
type Remote interface {
	VNByID(ctx context.Context, id int64) ([]vndbclient.VN, error)
	VNByExactTitle(ctx context.Context, title string) ([]vndbclient.VN, error)
	VNByFuzzyTitle(ctx context.Context, title string) ([]vndbclient.VN, error)
	ObjectByID(ctx context.Context, kind vndbclient.Kind, id int64) ([]vndbclient.Object, error)
}

// Executor ties a store worker pool and a remote client actor together.
type Executor struct {
	store  Store
	remote Remote
	m      *metrics.Registry
}

// New builds an Executor over the given C1/C2 clients. m may be nil, in
// which case workflow calls simply aren't instrumented (tests don't need a
// live Prometheus registry to exercise workflow logic).
func New(store Store, remote Remote, m *metrics.Registry) *Executor {
	return &Executor{store: store, remote: remote, m: m}
}

// record reports a workflow's latency and, on failure, its error kind.
// Called via defer at the top of every exported workflow method except the
// remote-only lookups GetVN, FindVN and GetVndbObject, which are not recorded.
func (e *Executor) record(workflow string, start time.Time, err *error) {
	if e.m == nil {
		return
	}
	e.m.WorkflowDuration.WithLabelValues(workflow).Observe(float64(time.Since(start).Milliseconds()))
	if *err != nil {
		e.m.WorkflowErrors.WithLabelValues(workflow, errorKind(*err)).Inc()
	}
}

// errorKind labels a workflow error by its ResponseError variant for the
// workflow_errors_total metric, falling back to "unknown" for anything not
// in the taxonomy (it should never be, since every workflow method below
// only ever returns errors.go's variants or nil).
func errorKind(err error) string {
	switch err.(type) {
	case UnknownVN:
		return "unknown_vn"
	case TooMany:
		return "too_many"
	case TooManyLocal:
		return "too_many_local"
	case InvalidVNID:
		return "invalid_vn_id"
	case UnknownObject:
		return "unknown_object"
	case BadRemote:
		return "bad_remote"
	case BadRemoteResponse:
		return "bad_remote_response"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// GetVN fetches a VN by id straight from vndb.org, bypassing the store.
func (e *Executor) GetVN(ctx context.Context, id int64) (vndbclient.VN, error) {
	vns, err := e.remote.VNByID(ctx, id)
	if err != nil {
		return vndbclient.VN{}, fromRemoteErr(err)
	}
	if len(vns) == 0 {
		return vndbclient.VN{}, UnknownVN{}
	}
	return vns[0], nil
}

// GetVNLocal fetches a VN by id from the local store only, returning
// (nil, nil) if it has not been catalogued.
func (e *Executor) GetVNLocal(id int64) (vn *store.Vn, err error) {
	defer e.record("get_vn_local", time.Now(), &err)
	vn, err = e.store.GetVn(id)
	if err != nil {
		return nil, Internal{Err: err}
	}
	return vn, nil
}

// FindVN resolves title to a single VN on vndb.org: an exact title match
// first, falling back to a fuzzy (substring) search when the exact search
// does not return exactly one VN. Matches original_source/actors/src/exec.rs's
// FindVn ladder.
func (e *Executor) FindVN(ctx context.Context, title string) (vndbclient.VN, error) {
	exact, err := e.remote.VNByExactTitle(ctx, title)
	if err != nil {
		return vndbclient.VN{}, fromRemoteErr(err)
	}
	if len(exact) == 1 {
		return exact[0], nil
	}

	fuzzy, err := e.remote.VNByFuzzyTitle(ctx, title)
	if err != nil {
		return vndbclient.VN{}, fromRemoteErr(err)
	}
	switch len(fuzzy) {
	case 0:
		return vndbclient.VN{}, UnknownVN{}
	case 1:
		return fuzzy[0], nil
	default:
		return vndbclient.VN{}, TooMany{Num: len(fuzzy), Title: title}
	}
}

// FindVNLocal resolves title to a single catalogued VN via a local
// substring search. It never reaches out to vndb.org.
func (e *Executor) FindVNLocal(title string) (vn *store.Vn, err error) {
	defer e.record("find_vn_local", time.Now(), &err)
	vns, err := e.store.SearchVn(title)
	if err != nil {
		return nil, Internal{Err: err}
	}
	switch len(vns) {
	case 0:
		return nil, nil
	case 1:
		return &vns[0], nil
	default:
		return nil, TooManyLocal{Num: len(vns)}
	}
}

// resolveLocalVN resolves a chat-style reference (either a bare "v<id>",
// or a free-text title) to a catalogued local VN, reaching out to vndb.org
// only when nothing local matches. A remote hit is cached in the store when
// cacheRemote is true; otherwise it is returned without being stored. This
// is the ladder shared by GetHook/SetHook/DelHook/DelVN.
func (e *Executor) resolveLocalVN(ctx context.Context, text string, cacheRemote bool) (*store.Vn, error) {
	if ref, ok := parseRef(text); ok {
		if ref.Kind != vndbclient.KindVN {
			return nil, InvalidVNID{Kind: ref.Kind, ID: ref.ID}
		}
		if vn, err := e.GetVNLocal(ref.ID); err != nil || vn != nil {
			return vn, err
		}
		remote, err := e.GetVN(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if !cacheRemote {
			return uncachedVN(remote), nil
		}
		return e.cacheVN(remote)
	}

	if local, err := e.FindVNLocal(text); err != nil || local != nil {
		return local, err
	}

	remote, err := e.FindVN(ctx, text)
	if err != nil {
		return nil, err
	}
	if !cacheRemote {
		return uncachedVN(remote), nil
	}
	return e.cacheVN(remote)
}

// uncachedVN turns a remote VN into a transient *store.Vn without writing
// it to the catalogue, for delete workflows that must resolve an id
// without the side effect of cataloguing it.
func uncachedVN(vn vndbclient.VN) *store.Vn {
	title := vn.Title
	if title == "" {
		title = vn.Original
	}
	return &store.Vn{ID: vn.ID, Title: title}
}

func (e *Executor) cacheVN(vn vndbclient.VN) (*store.Vn, error) {
	title := vn.Title
	if title == "" {
		title = vn.Original
	}
	cached, err := e.store.PutVn(vn.ID, title)
	if err != nil {
		return nil, Internal{Err: err}
	}
	return cached, nil
}

// GetHook retrieves every hook recorded for the VN named by ref, resolving
// ref through the local-then-remote ladder and caching a remote hit.
func (e *Executor) GetHook(ctx context.Context, ref string) (data *store.VnData, err error) {
	defer e.record("get_hook", time.Now(), &err)
	vn, err := e.resolveLocalVN(ctx, ref, true)
	if err != nil {
		return nil, err
	}
	if vn == nil {
		return nil, UnknownVN{}
	}

	hooks, err := e.store.GetHooks(vn.ID)
	if err != nil {
		return nil, Internal{Err: err}
	}
	return &store.VnData{Vn: *vn, Hooks: hooks}, nil
}

// SetHook records a hook for ref/version, resolving and caching ref through
// the same ladder as GetHook.
func (e *Executor) SetHook(ctx context.Context, ref, version, code string) (hook *store.Hook, err error) {
	defer e.record("set_hook", time.Now(), &err)
	vn, err := e.resolveLocalVN(ctx, ref, true)
	if err != nil {
		return nil, err
	}
	if vn == nil {
		return nil, UnknownVN{}
	}

	hook, err = e.store.PutHook(vn.ID, version, code)
	if err != nil {
		return nil, Internal{Err: err}
	}
	return hook, nil
}

// DelHook removes the hook for ref/version. Resolution never caches a
// remote hit locally: a delete on a title vndb.org still knows about but
// the store never catalogued should act on nothing, not insert a VN row
// first.
func (e *Executor) DelHook(ctx context.Context, ref, version string) (n int64, err error) {
	defer e.record("del_hook", time.Now(), &err)
	vn, err := e.resolveLocalVN(ctx, ref, false)
	if err != nil {
		return 0, err
	}
	if vn == nil {
		return 0, UnknownVN{}
	}

	n, err = e.store.DeleteHook(vn.ID, version)
	if err != nil {
		return 0, Internal{Err: err}
	}
	return n, nil
}

// DelVN removes a VN and, via the store's ON DELETE CASCADE, every hook
// recorded for it. Title resolution never caches a remote hit: a title
// vndb.org knows about but the store never catalogued should delete zero
// rows, not get inserted first.
func (e *Executor) DelVN(ctx context.Context, ref string) (n int64, err error) {
	defer e.record("del_vn", time.Now(), &err)
	if parsedRef, ok := parseRef(ref); ok {
		if parsedRef.Kind != vndbclient.KindVN {
			return 0, InvalidVNID{Kind: parsedRef.Kind, ID: parsedRef.ID}
		}
		n, err = e.store.DeleteVn(parsedRef.ID)
		if err != nil {
			return 0, Internal{Err: err}
		}
		return n, nil
	}

	vn, err := e.resolveLocalVN(ctx, ref, false)
	if err != nil {
		return 0, err
	}
	if vn == nil {
		return 0, UnknownVN{}
	}

	n, err = e.store.DeleteVn(vn.ID)
	if err != nil {
		return 0, Internal{Err: err}
	}
	return n, nil
}

// Stats reports the local catalogue's VN and hook counts.
func (e *Executor) Stats() (stats store.Stats, err error) {
	defer e.record("stats", time.Now(), &err)
	stats, err = e.store.Stats()
	if err != nil {
		return store.Stats{}, Internal{Err: err}
	}
	return stats, nil
}

// GetVndbObject resolves ref's display name straight from vndb.org, for
// expanding a bare chat reference (v17, c25, r10, p7, u42) into a link.
// Nothing is cached locally, matching the original's Get::get_by_id pass-
// through for any kind.
func (e *Executor) GetVndbObject(ctx context.Context, ref RemoteObjectRef) (name string, err error) {
	if ref.Kind == vndbclient.KindVN {
		vns, err := e.remote.VNByID(ctx, ref.ID)
		if err != nil {
			return "", fromRemoteErr(err)
		}
		if len(vns) == 0 {
			return "", UnknownVN{}
		}
		title := vns[0].Title
		if title == "" {
			title = vns[0].Original
		}
		return title, nil
	}

	objs, err := e.remote.ObjectByID(ctx, ref.Kind, ref.ID)
	if err != nil {
		return "", fromRemoteErr(err)
	}
	if len(objs) == 0 {
		return "", UnknownObject{Kind: ref.Kind}
	}
	return objs[0].Name, nil
}
