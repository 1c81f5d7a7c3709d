package dispatcher

import "fmt"

// shellSplit tokenizes a command's raw argument string. It recognizes
// "double" and 'single' quoted tokens and bare whitespace-delimited words,
// with no escape processing inside quotes — matching
// original_source/src/handlers/args.rs's shell_split exactly. A token is an
// error (an unbalanced quote) when the number of quote characters trimmed
// from its two ends is neither zero nor two; quotes inside a token are kept.
func shellSplit(s string) ([]string, error) {
	matches := shellSplitRE.FindAllStringIndex(s, -1)
	result := make([]string, 0, len(matches))

	for _, idx := range matches {
		raw := s[idx[0]:idx[1]]
		trimmed := trimMatchingQuotes(raw)
		removed := len(raw) - len(trimmed)
		if removed != 0 && removed != 2 {
			return nil, fmt.Errorf("Badly quoted arguments after position %d", idx[0])
		}
		result = append(result, trimmed)
	}

	return result, nil
}

// trimMatchingQuotes trims a leading and/or trailing quote character,
// mirroring Rust's str::trim_matches(&['\'', '"']) — each end is trimmed
// independently, so a lone leading or trailing quote is still removed.
func trimMatchingQuotes(s string) string {
	for len(s) > 0 && isQuote(s[0]) {
		s = s[1:]
	}
	for len(s) > 0 && isQuote(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

func isQuote(b byte) bool {
	return b == '\'' || b == '"'
}
