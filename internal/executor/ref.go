package executor

import (
	"strconv"
	"strings"

	"github.com/doumanash/roseline/internal/vndbclient"
)

// RemoteObjectRef identifies a single vndb.org object by kind and numeric
// id, e.g. "v17" -> {Kind: vndbclient.KindVN, ID: 17}.
type RemoteObjectRef struct {
	Kind vndbclient.Kind
	ID   int64
}

// parseRef parses a bare "[vcrpu]<digits>" reference, matching
// original_source/actors/src/exec.rs's parse_vndb_ref. It does not accept
// a leading sigil or surrounding text — that scanning is dispatcher's job.
func parseRef(text string) (RemoteObjectRef, bool) {
	if text == "" {
		return RemoteObjectRef{}, false
	}

	var kind vndbclient.Kind
	switch text[0] {
	case 'v':
		kind = vndbclient.KindVN
	case 'c':
		kind = vndbclient.KindCharacter
	case 'r':
		kind = vndbclient.KindRelease
	case 'p':
		kind = vndbclient.KindProducer
	case 'u':
		kind = vndbclient.KindUser
	default:
		return RemoteObjectRef{}, false
	}

	digits := text[1:]
	if digits == "" || strings.ContainsFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) {
		return RemoteObjectRef{}, false
	}

	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || id <= 0 {
		return RemoteObjectRef{}, false
	}

	return RemoteObjectRef{Kind: kind, ID: id}, true
}

// shortKind returns the one-letter wire code for a Kind, used in error
// messages such as "c123 is not an VN ID".
func shortKind(k vndbclient.Kind) string {
	switch k {
	case vndbclient.KindVN:
		return "v"
	case vndbclient.KindCharacter:
		return "c"
	case vndbclient.KindRelease:
		return "r"
	case vndbclient.KindProducer:
		return "p"
	case vndbclient.KindUser:
		return "u"
	default:
		return "?"
	}
}
