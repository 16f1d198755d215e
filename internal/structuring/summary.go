package structuring

import (
	"strings"
	"unicode/utf8"
)

const summaryLength = 500

// Summarize returns the leading text of a document with heading markup
// removed, cut at a word boundary
func Summarize(raw string) string {
	var parts []string
	for _, line := range strings.Split(normalizeNewlines(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if h, ok := parseHeading(line); ok && h.style == styleMarkdown {
			line = h.text
		}
		parts = append(parts, strings.TrimSpace(inlineMarkupRe.ReplaceAllString(line, "")))
	}
	text := collapseWhitespace(strings.Join(parts, " "))
	if utf8.RuneCountInString(text) <= summaryLength {
		return text
	}

	cut := string([]rune(text)[:summaryLength])
	if idx := strings.LastIndex(cut, " "); idx > summaryLength/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:.-") + "..."
}
