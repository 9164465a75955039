package textproc

import "strings"

const (
	// A sentence terminator only closes a chunk once the buffer is longer
	// than this, so abbreviations and initials rarely split mid-sentence.
	minChunkRunes = 10

	// A single chunk longer than this gets re-split on clause boundaries so
	// the first audio does not wait on one giant synthesis call.
	clauseSplitThreshold = 100
)

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isClauseBoundary(r rune) bool {
	return r == ',' || r == ';' || r == ':'
}

// Segment splits sanitized text into ordered speakable chunks. Sentences
// close on . ! ? once the running buffer exceeds minChunkRunes; a trailing
// unterminated buffer becomes the final chunk. A lone over-long chunk is
// re-split on commas, semicolons and colons when that yields more than one
// part. Empty input yields nil.
func Segment(text string) []string {
	var chunks []string
	var buf strings.Builder
	runes := 0

	for _, r := range text {
		buf.WriteRune(r)
		runes++
		if isTerminal(r) && runes > minChunkRunes {
			if t := strings.TrimSpace(buf.String()); t != "" {
				chunks = append(chunks, t)
			}
			buf.Reset()
			runes = 0
		}
	}
	if t := strings.TrimSpace(buf.String()); t != "" {
		chunks = append(chunks, t)
	}

	if len(chunks) == 1 && len([]rune(chunks[0])) > clauseSplitThreshold {
		var parts []string
		for _, p := range strings.FieldsFunc(chunks[0], isClauseBoundary) {
			if t := strings.TrimSpace(p); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 1 {
			return parts
		}
	}
	return chunks
}
