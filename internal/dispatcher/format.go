package dispatcher

import (
	"fmt"
	"strings"

	"github.com/doumanash/roseline/internal/store"
)

const helpText = "Available commands: .ping, .vn, .hook, .set_hook, .del_hook, .del_vn, .ignore, .ignore_list"

// formatTooMany renders the "too many hits" line with the query's
// whitespace collapsed to "+", matching
// original_source/bot/src/handlers/command.rs's return_too_many_vn_hits.
func formatTooMany(num int, title string) string {
	collapsed := collapseSpace.ReplaceAllString(title, "+")
	return fmt.Sprintf("There are too many hits>='%d'. Try yourself -> https://vndb.org/v/all?sq=%s", num, collapsed)
}

// formatHookData renders a VnData as ".hook" reply text: a single hook is
// shown inline, multiple hooks are listed "version: code" pipe-separated.
func formatHookData(data *store.VnData) string {
	if len(data.Hooks) == 0 {
		return "No hooks registered"
	}
	if len(data.Hooks) == 1 {
		return fmt.Sprintf("%s - %s", data.Vn.Title, data.Hooks[0].Code)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s - ", data.Vn.Title)
	parts := make([]string, 0, len(data.Hooks))
	for _, h := range data.Hooks {
		parts = append(parts, fmt.Sprintf("%s: %s", h.Version, h.Code))
	}
	b.WriteString(strings.Join(parts, " | "))
	return b.String()
}

// formatVnLink renders a VN as "<title> - https://vndb.org/v<id>", the
// ".vn" success reply.
func formatVnLink(title string, id int64) string {
	return fmt.Sprintf("%s - https://vndb.org/v%d", title, id)
}

// formatRef renders a single scanned reference's remote details, e.g.
// "v17: Narcissu - https://vndb.org/v17". letter is the ref kind's one
// character wire code ("v", "c", "r", "p", "u").
func formatRef(letter string, id int64, name string) string {
	return fmt.Sprintf("%s%d: %s - https://vndb.org/%s%d", letter, id, name, letter, id)
}
