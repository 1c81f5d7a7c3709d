package executor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/doumanash/roseline/internal/vndbclient"
)

// ResponseError is the taxonomy every executor workflow returns instead of
// a raw store/vndbclient error, in the teacher's small-typed-error style
// (internal/mcpserver/client/errors.go) rather than one stringly-typed
// error. Error() produces the exact chat-facing line for each variant.
type ResponseError interface {
	error
	responseError()
}

// BadRemote means no answer came back from vndb.org: the request could not
// be sent, or the connection was lost while it was in flight.
type BadRemote struct{ Err error }

func (BadRemote) responseError() {}
func (e BadRemote) Error() string {
	return "Error with VNDB. Forgive me, I cannot execute your request"
}

// BadRemoteResponse means vndb.org answered, but not in the shape expected.
type BadRemoteResponse struct{ Err error }

func (BadRemoteResponse) responseError() {}
func (e BadRemoteResponse) Error() string {
	return "Bad VNDB response. Forgive me."
}

// TooMany means more than one VN matched a remote fuzzy title search.
type TooMany struct {
	Num   int
	Title string
}

func (TooMany) responseError() {}
func (e TooMany) Error() string {
	return fmt.Sprintf("There are too many hits>='%d'. Try yourself -> https://vndb.org/v/all?sq=%s",
		e.Num, strings.ReplaceAll(e.Title, " ", "+"))
}

// TooManyLocal means more than one VN matched a local title search.
type TooManyLocal struct{ Num int }

func (TooManyLocal) responseError() {}
func (e TooManyLocal) Error() string {
	return fmt.Sprintf("Found '%d' matches in DB. Try a better query.", e.Num)
}

// UnknownVN means no VN could be found, locally or remotely.
type UnknownVN struct{}

func (UnknownVN) responseError() {}
func (UnknownVN) Error() string { return "No such VN could be found." }

// UnknownObject means no remote object of the given non-VN kind could be
// found, e.g. a c123 reference for a character that no longer exists.
type UnknownObject struct{ Kind vndbclient.Kind }

func (UnknownObject) responseError() {}
func (e UnknownObject) Error() string {
	return fmt.Sprintf("No such %s could be found.", e.Kind)
}

// InvalidVNID means a reference parsed but named a non-VN kind where a VN
// was required, e.g. "c123" passed to a VN-only command.
type InvalidVNID struct {
	Kind vndbclient.Kind
	ID   int64
}

func (InvalidVNID) responseError() {}
func (e InvalidVNID) Error() string {
	return fmt.Sprintf("%s%d is not an VN ID", shortKind(e.Kind), e.ID)
}

// Internal wraps an unexpected failure (a store error, a context
// cancellation, ...) that is not supposed to happen.
type Internal struct{ Err error }

func (Internal) responseError() {}
func (e Internal) Error() string {
	return fmt.Sprintf("ごめんなさい、エラー: %v", e.Err)
}

// fromRemoteErr translates a vndbclient.Error into the executor's own
// taxonomy, keeping raw transport errors from leaking past C3.
func fromRemoteErr(err error) ResponseError {
	var vErr *vndbclient.Error
	if !errors.As(err, &vErr) {
		return Internal{Err: err}
	}
	switch vErr.Kind {
	case vndbclient.ErrRemoteRejected, vndbclient.ErrRemoteProtocol:
		return BadRemoteResponse{Err: err}
	default:
		return BadRemote{Err: err}
	}
}
