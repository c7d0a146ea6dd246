package channels

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkLimit is the per-message chunk size used for Discord delivery,
// kept under the platform's 2000-char cap to leave margin for overhead.
const DefaultChunkLimit = 1990

// SplitMessage splits text into ordered chunks of at most limit bytes,
// preferring to cut at line boundaries. A newline is only used as the cut
// point when it sits in the second half of the window; otherwise the cut is
// hard at the limit (backed up to a rune boundary so multi-byte characters
// are never split). Leading whitespace is stripped from each remainder, so
// rejoining the chunks reproduces the input modulo that whitespace.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultChunkLimit
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len(remaining) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(remaining[cut]) {
			cut--
		}
		if idx := strings.LastIndexByte(remaining[:limit], '\n'); idx >= limit/2 && idx > 0 {
			cut = idx
		}
		if cut == 0 {
			// limit 1 with a leading multi-byte rune; emit it whole rather
			// than loop forever
			_, size := utf8.DecodeRuneInString(remaining)
			cut = size
		}
		chunks = append(chunks, remaining[:cut])
		remaining = strings.TrimLeft(remaining[cut:], " \t\r\n")
	}
	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}
