package structuring

import (
	"strings"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

const syntheticTitleWords = 5

// Split breaks an unrecognized block into titled sections. Paragraphs are
// blank-line separated; a heading-like first line becomes the title and a
// heading standing alone titles the paragraph that follows it.
func Split(block string) []models.DynamicSection {
	var sections []models.DynamicSection
	pending := ""

	flushPending := func() {
		if pending != "" {
			sections = append(sections, models.NewTextSection(pending, ""))
			pending = ""
		}
	}

	for _, lines := range splitParagraphs(block) {
		title, body := "", lines
		if isTitleLine(lines[0]) {
			title = cleanHeading(lines[0])
			body = lines[1:]
		}

		if title != "" && len(body) == 0 {
			flushPending()
			pending = title
			continue
		}

		if title == "" {
			title = pending
			if title == "" {
				title = syntheticTitle(lines)
			}
			pending = ""
		} else {
			flushPending()
		}
		sections = append(sections, buildSection(title, body))
	}
	flushPending()

	return sections
}

func isTitleLine(line string) bool {
	_, ok := parseHeading(line)
	return ok
}

// syntheticTitle uses the paragraph's first words
func syntheticTitle(lines []string) string {
	words := strings.Fields(plainLine(strings.Join(lines, " ")))
	if len(words) <= syntheticTitleWords {
		return strings.TrimRight(strings.Join(words, " "), ".,;:")
	}
	return strings.TrimRight(strings.Join(words[:syntheticTitleWords], " "), ".,;:") + "..."
}

// buildSection picks the content kind by majority of line markers
func buildSection(title string, lines []string) models.DynamicSection {
	bullets, steps := 0, 0
	for _, line := range lines {
		switch {
		case bulletRe.MatchString(line):
			bullets++
		case orderedRe.MatchString(line):
			steps++
		}
	}

	switch {
	case bullets*2 > len(lines):
		return models.NewListSection(title, models.KindBulletList, collectItems(lines))
	case steps*2 > len(lines):
		return models.NewListSection(title, models.KindOrderedSteps, collectItems(lines))
	}

	trimmed := make([]string, len(lines))
	for i, line := range lines {
		trimmed[i] = strings.TrimSpace(line)
	}
	return models.NewTextSection(title, strings.Join(trimmed, "\n"))
}

// collectItems strips markers; unmarked lines continue the previous item
func collectItems(lines []string) []string {
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		marked := bulletRe.MatchString(line) || orderedRe.MatchString(line)
		text := stripListMarker(line)
		if !marked && len(items) > 0 {
			items[len(items)-1] += " " + text
			continue
		}
		items = append(items, text)
	}
	return items
}
