// Package dispatcher implements C4: parsing dot-prefixed chat commands and
// bare vndb.org references out of a transport message, and routing them to
// the C3 executor.
package dispatcher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/doumanash/roseline/internal/vndbclient"
)

var (
	// extractCmd pulls the verb and the rest of the line out of a
	// ".verb rest of line" message.
	extractCmd = regexp.MustCompile(`^\s*\.([^\s]*)(?:\s+(.+))?`)
	// extractReference scans free text for bare "[vcrpu]<digits>"
	// references, matching either the start of the string, after a
	// lowercase-letter-then-slash (a vndb.org URL path segment), or after
	// whitespace.
	extractReference = regexp.MustCompile(`(^|[a-z]/|\s)([vcrpu])([0-9]+)`)
	// extractVnID matches a bare "v<digits>" argument in full.
	extractVnID = regexp.MustCompile(`^v([0-9]+)$`)
	// collapseSpace is used only when rendering a too-many-hits search URL.
	collapseSpace = regexp.MustCompile(`\s+`)
	// shellSplitRE tokenizes a command's argument string, matching
	// original_source/src/handlers/args.rs's shell_split exactly: no escape
	// processing inside quotes, a token with unbalanced end quotes is an error.
	shellSplitRE = regexp.MustCompile(`"[^"]+"|'[^']+'|\S+`)
)

// maxRefs is the cap on bare references scanned out of a single message.
const maxRefs = 5

// Kind identifies which Command variant is populated.
type Kind int

const (
	CmdNone Kind = iota
	CmdPing
	CmdHelp
	CmdDBStats
	CmdVN
	CmdGetHookHelp
	CmdGetHookByID
	CmdGetHook
	CmdSetHookHelp
	CmdSetHookByID
	CmdSetHook
	CmdDelHookHelp
	CmdDelHookByID
	CmdDelHook
	CmdDelVnHelp
	CmdDelVnByID
	CmdDelVn
	CmdVnRef
	CmdIgnoreHelp
	CmdIgnore
	CmdIgnoreList
)

var kindNames = [...]string{
	"none", "ping", "help", "db_stats", "vn",
	"get_hook_help", "get_hook_by_id", "get_hook",
	"set_hook_help", "set_hook_by_id", "set_hook",
	"del_hook_help", "del_hook_by_id", "del_hook",
	"del_vn_help", "del_vn_by_id", "del_vn",
	"vn_ref",
	"ignore_help", "ignore", "ignore_list",
}

// String renders the command kind as a metrics/log label.
func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ObjectRef is a single bare reference scanned out of free text, e.g. "v17".
type ObjectRef struct {
	Kind vndbclient.Kind
	ID   int64
}

// Command is the parsed form of a single chat message. Only the fields
// relevant to Kind are populated; the rest are zero.
type Command struct {
	Kind Kind

	Title   string // CmdVN, CmdGetHook, CmdSetHook, CmdDelHook, CmdDelVn, CmdIgnore
	Version string // CmdSetHook*, CmdDelHook*
	Code    string // CmdSetHook*
	ID      int64  // CmdGetHookByID, CmdSetHookByID, CmdDelHookByID, CmdDelVnByID

	// HasTitle distinguishes "CmdVN with no argument" from "CmdVN "" ".
	HasTitle bool
	// HelpMessage carries a parse-error explanation for the *Help variants
	// (e.g. a bad shell_split quoting error), empty for the bare usage case.
	HelpMessage string

	Refs []ObjectRef // CmdVnRef
}

// Parse parses a single transport message into a Command. It returns
// (Command{}, false) when text is neither a ".verb" command nor free text
// containing at least one bare reference — i.e. when the dispatcher has
// nothing to do with the message at all.
func Parse(text string) (Command, bool) {
	if m := extractCmd.FindStringSubmatch(text); m != nil {
		return parseVerb(m[1], m[2])
	}
	if extractReference.MatchString(text) {
		return Command{Kind: CmdVnRef, Refs: scanRefs(text)}, true
	}
	return Command{}, false
}

func parseVerb(verb, rest string) (Command, bool) {
	switch verb {
	case "ping":
		return Command{Kind: CmdPing}, true
	case "help":
		return Command{Kind: CmdHelp}, true
	case "db_stats":
		return Command{Kind: CmdDBStats}, true
	case "vn":
		if rest == "" {
			return Command{Kind: CmdVN}, true
		}
		return Command{Kind: CmdVN, Title: rest, HasTitle: true}, true
	case "hook":
		return parseHook(rest)
	case "del_vn":
		return parseDelVn(rest)
	case "set_hook":
		return parseSetHook(rest)
	case "del_hook":
		return parseDelHook(rest)
	case "ignore":
		return parseIgnore(rest)
	case "ignore_list":
		return Command{Kind: CmdIgnoreList}, true
	default:
		return Command{}, false
	}
}

func parseIgnore(rest string) (Command, bool) {
	name := strings.TrimSpace(rest)
	if name == "" {
		return Command{Kind: CmdIgnoreHelp}, true
	}
	return Command{Kind: CmdIgnore, Title: name}, true
}

func parseHook(rest string) (Command, bool) {
	if rest == "" {
		return Command{Kind: CmdGetHookHelp}, true
	}
	arg := strings.TrimSpace(rest)
	if id, ok := parseVnIDArg(arg); ok {
		return Command{Kind: CmdGetHookByID, ID: id}, true
	}
	return Command{Kind: CmdGetHook, Title: arg}, true
}

func parseDelVn(rest string) (Command, bool) {
	if rest == "" {
		return Command{Kind: CmdDelVnHelp}, true
	}
	arg := strings.TrimSpace(rest)
	if id, ok := parseVnIDArg(arg); ok {
		return Command{Kind: CmdDelVnByID, ID: id}, true
	}
	return Command{Kind: CmdDelVn, Title: arg}, true
}

func parseSetHook(rest string) (Command, bool) {
	if rest == "" {
		return Command{Kind: CmdSetHookHelp}, true
	}
	args, err := shellSplit(rest)
	if err != nil {
		return Command{Kind: CmdSetHookHelp, HelpMessage: err.Error()}, true
	}
	if len(args) != 3 {
		return Command{Kind: CmdSetHookHelp, HelpMessage: invalidArgCount(len(args), 3)}, true
	}
	title, version, code := args[0], args[1], args[2]
	if id, ok := parseVnIDArg(title); ok {
		return Command{Kind: CmdSetHookByID, ID: id, Version: version, Code: code}, true
	}
	return Command{Kind: CmdSetHook, Title: title, Version: version, Code: code}, true
}

func parseDelHook(rest string) (Command, bool) {
	if rest == "" {
		return Command{Kind: CmdDelHookHelp}, true
	}
	args, err := shellSplit(rest)
	if err != nil {
		return Command{Kind: CmdDelHookHelp, HelpMessage: err.Error()}, true
	}
	if len(args) != 2 {
		return Command{Kind: CmdDelHookHelp, HelpMessage: invalidArgCount(len(args), 2)}, true
	}
	title, version := args[0], args[1]
	if id, ok := parseVnIDArg(title); ok {
		return Command{Kind: CmdDelHookByID, ID: id, Version: version}, true
	}
	return Command{Kind: CmdDelHook, Title: title, Version: version}, true
}

func parseVnIDArg(arg string) (int64, bool) {
	m := extractVnID.FindStringSubmatch(arg)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func invalidArgCount(got, want int) string {
	return "Invalid number of arguments " + strconv.Itoa(got) + ". Expected " + strconv.Itoa(want)
}

// scanRefs scans text for up to maxRefs bare "[vcrpu]<digits>" references.
func scanRefs(text string) []ObjectRef {
	var refs []ObjectRef
	for _, m := range extractReference.FindAllStringSubmatch(text, -1) {
		kind, ok := kindFromLetter(m[2])
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		refs = append(refs, ObjectRef{Kind: kind, ID: id})
		if len(refs) >= maxRefs {
			break
		}
	}
	return refs
}

func letterFromKind(k vndbclient.Kind) string {
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

func kindFromLetter(letter string) (vndbclient.Kind, bool) {
	switch letter {
	case "v":
		return vndbclient.KindVN, true
	case "c":
		return vndbclient.KindCharacter, true
	case "r":
		return vndbclient.KindRelease, true
	case "p":
		return vndbclient.KindProducer, true
	case "u":
		return vndbclient.KindUser, true
	default:
		return "", false
	}
}
