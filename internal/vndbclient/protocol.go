// Package vndbclient implements the C2 remote client actor: a single
// goroutine owning one TLS connection to the vndb.org D11 text protocol,
// translating blocking Go method calls into queued line-oriented requests.
package vndbclient

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
)

// terminator is the vndb.org D11 protocol's message delimiter. Every
// request and response line ends with it instead of a newline.
const terminator = '\x04'

// Kind is the object type requested with "get", one wire word per row in
// spec.md's RemoteObjectRef enum (vn, character, release, producer, user).
type Kind string

const (
	KindVN        Kind = "vn"
	KindRelease   Kind = "release"
	KindProducer  Kind = "producer"
	KindCharacter Kind = "character"
	KindUser      Kind = "user"
)

// request is a single outbound protocol line, built by the request
// constructors in requests.go.
type request struct {
	line string
}

func (r request) encode() []byte {
	return append([]byte(r.line), terminator)
}

func loginRequest() request {
	return request{line: `login {"protocol":1,"client":"roseline","clientver":"2.0"}`}
}

func getRequest(kind Kind, flags string, filters string, options string) request {
	var b strings.Builder
	fmt.Fprintf(&b, "get %s %s (%s)", kind, flags, filters)
	if options != "" {
		b.WriteByte(' ')
		b.WriteString(options)
	}
	return request{line: b.String()}
}

// responseKind is the first word of a response line.
type responseKind string

const (
	respOK      responseKind = "ok"
	respResults responseKind = "results"
	respError   responseKind = "error"
)

// response is a decoded protocol reply.
type response struct {
	kind responseKind
	// payload is the raw JSON body for "results"/"error" responses, empty
	// for a bare "ok".
	payload json.RawMessage
}

// errorPayload is the JSON body of an "error" response.
type errorPayload struct {
	ID      string `json:"id"`
	Message string `json:"msg"`
}

// resultsPayload is the JSON body of a "results" response to a "get" query.
type resultsPayload struct {
	Num   int               `json:"num"`
	More  bool              `json:"more"`
	Items []json.RawMessage `json:"items"`
}

// vnItem is the subset of a vndb.org VN item this client cares about.
type vnItem struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Original string `json:"original"`
}

// objectItem is the subset of any non-VN vndb.org item (character, release,
// producer, user) this client needs: an id and whichever name-shaped field
// that kind's schema actually carries.
type objectItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Username string `json:"username"`
}

// displayName picks the first populated name-shaped field, in the order a
// character/producer ("name"), release ("title") or user ("username") item
// would carry one.
func (o objectItem) displayName() string {
	switch {
	case o.Name != "":
		return o.Name
	case o.Title != "":
		return o.Title
	default:
		return o.Username
	}
}

// readResponse reads one terminator-delimited line from r and decodes it.
func readResponse(r *bufio.Reader) (response, error) {
	line, err := r.ReadString(terminator)
	if err != nil {
		return response{}, err
	}
	line = strings.TrimSuffix(line, string(terminator))
	line = strings.TrimRight(line, "\n")

	word, rest, _ := strings.Cut(line, " ")
	switch responseKind(word) {
	case respOK:
		return response{kind: respOK}, nil
	case respResults:
		return response{kind: respResults, payload: json.RawMessage(rest)}, nil
	case respError:
		return response{kind: respError, payload: json.RawMessage(rest)}, nil
	default:
		return response{}, fmt.Errorf("vndbclient: unrecognized response line %q", line)
	}
}
