// Package textproc prepares raw request text for synthesis: it strips
// markup and noise that should not be spoken, then splits the result into
// speakable chunks.
package textproc

import (
	"regexp"
	"strings"
)

// Removal order matters: images before links (so alt text is dropped, not
// kept), fenced blocks before inline code, paths before the whitespace
// collapse that would merge their surroundings.
var (
	urlRE        = regexp.MustCompile(`https?://[^\s<>\])"']+`)
	imageRE      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRE       = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	strongRE     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	emphasisRE   = regexp.MustCompile(`\*([^*]+)\*`)
	underline2RE = regexp.MustCompile(`__([^_]+)__`)
	underlineRE  = regexp.MustCompile(`_([^_]+)_`)
	headingRE    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	codeBlockRE  = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRE = regexp.MustCompile("`([^`]+)`")
	footnoteRE   = regexp.MustCompile(`\[\d+\]`)
	htmlTagRE    = regexp.MustCompile(`<[^>]+>`)
	emailRE      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	pathRE       = regexp.MustCompile(`(?:/[\w.-]+){2,}`)
	spaceRunRE   = regexp.MustCompile(`\s{2,}`)
	bulletRE     = regexp.MustCompile(`(?m)^\s*[-*•]\s+`)
	numberedRE   = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
)

// Clean strips markup and unspeakable noise from text. It is total and
// idempotent: Clean(Clean(x)) == Clean(x).
func Clean(text string) string {
	result := text
	result = urlRE.ReplaceAllString(result, "")
	result = imageRE.ReplaceAllString(result, "")
	result = linkRE.ReplaceAllString(result, "$1")
	result = strongRE.ReplaceAllString(result, "$1")
	result = emphasisRE.ReplaceAllString(result, "$1")
	result = underline2RE.ReplaceAllString(result, "$1")
	result = underlineRE.ReplaceAllString(result, "$1")
	result = headingRE.ReplaceAllString(result, "")
	result = codeBlockRE.ReplaceAllString(result, "")
	result = inlineCodeRE.ReplaceAllString(result, "$1")
	result = footnoteRE.ReplaceAllString(result, "")
	result = htmlTagRE.ReplaceAllString(result, "")
	result = emailRE.ReplaceAllString(result, "")
	result = pathRE.ReplaceAllString(result, "")
	result = spaceRunRE.ReplaceAllString(result, " ")
	result = bulletRE.ReplaceAllString(result, "")
	result = numberedRE.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
