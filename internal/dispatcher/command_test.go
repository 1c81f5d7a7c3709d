package dispatcher

import (
	"testing"

	"github.com/doumanash/roseline/internal/vndbclient"
)

func TestParsePing(t *testing.T) {
	cmd, ok := Parse(" .ping")
	if !ok || cmd.Kind != CmdPing {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	if _, ok := Parse("ping"); ok {
		t.Fatal("bare 'ping' with no dot should not parse")
	}
}

func TestParseHelp(t *testing.T) {
	cmd, ok := Parse(".help")
	if !ok || cmd.Kind != CmdHelp {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	if _, ok := Parse(".relp"); ok {
		t.Fatal("unknown verb should not parse")
	}
}

func TestParseVnRefScansKnownKindsOnly(t *testing.T) {
	cmd, ok := Parse("v1 d2 v2 u55 c25")
	if !ok || cmd.Kind != CmdVnRef {
		t.Fatalf("got %+v, %v", cmd, ok)
	}
	want := []ObjectRef{
		{Kind: vndbclient.KindVN, ID: 1},
		{Kind: vndbclient.KindVN, ID: 2},
		{Kind: vndbclient.KindUser, ID: 55},
		{Kind: vndbclient.KindCharacter, ID: 25},
	}
	if len(cmd.Refs) != len(want) {
		t.Fatalf("got %d refs, want %d: %+v", len(cmd.Refs), len(want), cmd.Refs)
	}
	for i, ref := range cmd.Refs {
		if ref != want[i] {
			t.Errorf("ref %d: got %+v, want %+v", i, ref, want[i])
		}
	}
}

func TestParseVnRefRejectsUnknownKindAndOffsetDigit(t *testing.T) {
	if _, ok := Parse("g1 d2 g2"); ok {
		t.Fatal("only unknown kind letters should not parse")
	}
	if _, ok := Parse("2v2"); ok {
		t.Fatal("a ref glued to a preceding digit should not parse")
	}
}

func TestParseVnRefCapsAtMaxRefs(t *testing.T) {
	cmd, ok := Parse("v1 v2 v3 v4 v5 v6 v7")
	if !ok {
		t.Fatal("expected a parse")
	}
	if len(cmd.Refs) != maxRefs {
		t.Fatalf("got %d refs, want cap of %d", len(cmd.Refs), maxRefs)
	}
}

func TestParseHook(t *testing.T) {
	cmd, ok := Parse(".hook")
	if !ok || cmd.Kind != CmdGetHookHelp {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(".hook Some Title")
	if !ok || cmd.Kind != CmdGetHook || cmd.Title != "Some Title" {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(".hook v5555")
	if !ok || cmd.Kind != CmdGetHookByID || cmd.ID != 5555 {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	// "v5555g" has a trailing letter, so it is not a bare vn id: treated as
	// a title lookup instead.
	cmd, ok = Parse(".hook v5555g")
	if !ok || cmd.Kind != CmdGetHook || cmd.Title != "v5555g" {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(".hook    gv5555")
	if !ok || cmd.Kind != CmdGetHook || cmd.Title != "gv5555" {
		t.Fatalf("got %+v, %v", cmd, ok)
	}
}

func TestParseDelVn(t *testing.T) {
	cmd, ok := Parse(".del_vn")
	if !ok || cmd.Kind != CmdDelVnHelp {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(".del_vn v17")
	if !ok || cmd.Kind != CmdDelVnByID || cmd.ID != 17 {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(".del_vn Narcissu")
	if !ok || cmd.Kind != CmdDelVn || cmd.Title != "Narcissu" {
		t.Fatalf("got %+v, %v", cmd, ok)
	}
}

func TestParseSetHook(t *testing.T) {
	cmd, ok := Parse(".set_hook")
	if !ok || cmd.Kind != CmdSetHookHelp || cmd.HelpMessage != "" {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(`.set_hook "Narcissu" v1.0 "some code"`)
	if !ok || cmd.Kind != CmdSetHook {
		t.Fatalf("got %+v, %v", cmd, ok)
	}
	if cmd.Title != "Narcissu" || cmd.Version != "v1.0" || cmd.Code != "some code" {
		t.Fatalf("got %+v", cmd)
	}

	cmd, ok = Parse(`.set_hook v17 v1.0 code`)
	if !ok || cmd.Kind != CmdSetHookByID || cmd.ID != 17 {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(`.set_hook "Narcissu v1.0 code`)
	if !ok || cmd.Kind != CmdSetHookHelp || cmd.HelpMessage == "" {
		t.Fatalf("expected a quoting error, got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(`.set_hook one two`)
	if !ok || cmd.Kind != CmdSetHookHelp || cmd.HelpMessage == "" {
		t.Fatalf("expected a wrong-arg-count error, got %+v, %v", cmd, ok)
	}
}

func TestParseDelHook(t *testing.T) {
	cmd, ok := Parse(".del_hook")
	if !ok || cmd.Kind != CmdDelHookHelp {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(".del_hook v17 v1.0")
	if !ok || cmd.Kind != CmdDelHookByID || cmd.ID != 17 || cmd.Version != "v1.0" {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(`.del_hook Narcissu v1.0`)
	if !ok || cmd.Kind != CmdDelHook || cmd.Title != "Narcissu" || cmd.Version != "v1.0" {
		t.Fatalf("got %+v, %v", cmd, ok)
	}
}

func TestParseIgnore(t *testing.T) {
	cmd, ok := Parse(".ignore")
	if !ok || cmd.Kind != CmdIgnoreHelp {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(".ignore bob")
	if !ok || cmd.Kind != CmdIgnore || cmd.Title != "bob" {
		t.Fatalf("got %+v, %v", cmd, ok)
	}

	cmd, ok = Parse(".ignore_list")
	if !ok || cmd.Kind != CmdIgnoreList {
		t.Fatalf("got %+v, %v", cmd, ok)
	}
}

func TestShellSplit(t *testing.T) {
	got, err := shellSplit(`Narcissu "v1.0" 'some code'`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Narcissu", "v1.0", "some code"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestShellSplitRejectsUnbalancedQuote(t *testing.T) {
	if _, err := shellSplit(`"unterminated`); err == nil {
		t.Fatal("expected an unbalanced-quote error")
	}
}
