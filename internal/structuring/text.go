package structuring

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	bulletRe       = regexp.MustCompile(`^\s*[•\-*]\s+(.*)$`)
	orderedRe      = regexp.MustCompile(`^\s*(?:\d{1,3}[.)]|\(\d{1,3}\))\s+(.*)$`)
	markdownRe     = regexp.MustCompile(`^\s*(#{1,6})\s+(.+?)\s*#*\s*$`)
	strongRe       = regexp.MustCompile(`^\s*(?:\*\*|__)(.+?)(?:\*\*|__)\s*:?\s*$`)
	emphasisRe     = regexp.MustCompile(`^\s*(?:\*([^*\s][^*]*)\*|_([^_\s][^_]*)_)\s*:?\s*$`)
	numberPrefixRe = regexp.MustCompile(`^(?:\d{1,2}[.)]|[IVX]{1,4}\.|[A-Z]\.)\s+`)
	inlineMarkupRe = regexp.MustCompile(`\*\*|__|` + "`")
	whitespaceRe   = regexp.MustCompile(`\s+`)
	blankLineRe    = regexp.MustCompile(`\n[ \t]*\n`)
)

type headingStyle int

const (
	styleMarkdown headingStyle = iota + 1
	styleStrong
	styleCaps
	styleColon
)

type heading struct {
	text  string
	level int // markdown level, 0 for other styles
	style headingStyle
}

// parseHeading recognizes a line that introduces a section
func parseHeading(line string) (heading, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return heading{}, false
	}
	if m := markdownRe.FindStringSubmatch(trimmed); m != nil {
		return heading{text: cleanHeading(m[2]), level: len(m[1]), style: styleMarkdown}, true
	}
	if bulletRe.MatchString(trimmed) || orderedRe.MatchString(trimmed) {
		return heading{}, false
	}
	if m := strongRe.FindStringSubmatch(trimmed); m != nil {
		return heading{text: cleanHeading(m[1]), style: styleStrong}, true
	}
	if m := emphasisRe.FindStringSubmatch(trimmed); m != nil {
		text := m[1]
		if text == "" {
			text = m[2]
		}
		return heading{text: cleanHeading(text), style: styleStrong}, true
	}
	if isAllCaps(trimmed) && wordCount(trimmed) <= 10 {
		return heading{text: cleanHeading(trimmed), style: styleCaps}, true
	}
	if strings.HasSuffix(trimmed, ":") {
		body := strings.TrimSuffix(trimmed, ":")
		if body != "" && !strings.Contains(body, ":") && wordCount(body) <= 8 {
			return heading{text: cleanHeading(body), style: styleColon}, true
		}
	}
	return heading{}, false
}

// cleanHeading strips markup, numbering and a trailing colon
func cleanHeading(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimLeft(text, "#")
	text = inlineMarkupRe.ReplaceAllString(text, "")
	text = strings.Trim(text, "*_ \t")
	text = strings.TrimSuffix(text, ":")
	text = numberPrefixRe.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.TrimSpace(text)
}

// isAllCaps requires mostly letters so that "BP 152/88" is not a heading
func isAllCaps(s string) bool {
	letters, nonSpace := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		nonSpace++
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 3 && float64(letters) >= 0.7*float64(nonSpace)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// stripListMarker removes a leading bullet or step number
func stripListMarker(line string) string {
	if m := bulletRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := orderedRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(line)
}

// plainLine strips list markers and inline emphasis from a content line
func plainLine(line string) string {
	return strings.TrimSpace(inlineMarkupRe.ReplaceAllString(stripListMarker(line), ""))
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// splitParagraphs returns blank-line separated paragraphs as trimmed,
// non-empty lines
func splitParagraphs(text string) [][]string {
	var paragraphs [][]string
	for _, chunk := range blankLineRe.Split(normalizeNewlines(text), -1) {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			if l := strings.TrimRight(line, " \t"); strings.TrimSpace(l) != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) > 0 {
			paragraphs = append(paragraphs, lines)
		}
	}
	return paragraphs
}
