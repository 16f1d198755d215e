package structuring

import (
	"strings"
	"unicode/utf8"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

const maxTitleLength = 120

type block struct {
	label   sectionLabel
	heading string
	lines   []string
	isTitle bool
}

func (b block) text() string {
	return strings.TrimSpace(strings.Join(b.lines, "\n"))
}

// kept reports whether a block carries anything the author wrote. A heading
// with no body is kept unless it is the document title.
func (b block) kept() bool {
	return b.text() != "" || (b.heading != "" && !b.isTitle)
}

// Route turns generated prose into a StructuredDocument. Recognized headings
// are filed into typed fields, everything else is classified and split into
// dynamic sections. Route never fails and is deterministic.
func Route(rawText, title string) models.StructuredDocument {
	doc := models.StructuredDocument{RawText: rawText}

	docTitle, blocks := splitBlocks(rawText)
	doc.Title = strings.TrimSpace(title)
	if doc.Title == "" {
		doc.Title = docTitle
	}

	known := map[sectionLabel][]string{}
	var unknown []block
	for _, b := range blocks {
		if b.label == labelNone {
			unknown = append(unknown, b)
			continue
		}
		// first match wins: later blocks with the same label extend it
		known[b.label] = append(known[b.label], b.text())
	}
	text := func(label sectionLabel) string {
		return strings.TrimSpace(strings.Join(known[label], "\n\n"))
	}

	if s := text(labelSummary); s != "" {
		doc.Summary = collapseWhitespace(inlineMarkupRe.ReplaceAllString(s, ""))
	} else {
		doc.Summary = Summarize(rawText)
	}
	doc.Overview.Summary = doc.Summary
	doc.Overview.Objectives = listLines(text(labelObjectives))

	if s := text(labelSubject); s != "" {
		subject, residual := ExtractBackground(s)
		doc.Background.Subject = subject
		doc.Background.Sections = Split(residual)
	}

	if s := text(labelFindings); s != "" {
		findings := ExtractFindings(s)
		doc.Findings.VitalSigns = findings.Vitals
		doc.Findings.LabResults = findings.Labs
		doc.Findings.Sections = Split(findings.Residual)
	}

	doc.CarePlan.Progression = Split(text(labelProgression))
	doc.CarePlan.Documentation = Split(text(labelDocumentation))
	doc.Instruction.EducationalNotes = Split(text(labelEducation))
	doc.Instruction.DebriefQuestions = listLines(text(labelDebrief))

	for _, b := range unknown {
		content := b.text()
		if b.heading != "" {
			content = b.heading + ":\n" + content
		}
		for _, section := range Split(content) {
			fileSection(&doc, section)
		}
	}

	doc.Normalize()
	return doc
}

// fileSection classifies one unrecognized section by its title and content
func fileSection(doc *models.StructuredDocument, section models.DynamicSection) {
	text := section.Title + "\n" + strings.Join(section.Lines(), "\n")
	switch Classify(text) {
	case models.CategoryInstruction:
		doc.Instruction.Sections = append(doc.Instruction.Sections, section)
	case models.CategoryCarePlan:
		doc.CarePlan.Sections = append(doc.CarePlan.Sections, section)
	case models.CategoryBackground:
		doc.Background.Sections = append(doc.Background.Sections, section)
	case models.CategoryFindings:
		doc.Findings.Sections = append(doc.Findings.Sections, section)
	default:
		doc.Overview.Sections = append(doc.Overview.Sections, section)
	}
}

// splitBlocks cuts the text at section headings. A heading opens a block
// when it matches a known label, when it is a markdown heading at the
// document's top level, or, in documents without markdown headings, when it
// is bold or all caps. A known heading repeating the current block's label
// is a sub-heading and stays inside the block.
func splitBlocks(raw string) (string, []block) {
	lines := strings.Split(normalizeNewlines(raw), "\n")
	topLevel, h1Count := markdownTopLevel(lines)

	var blocks []block
	current := block{}
	docTitle := ""
	firstContent := true

	for _, line := range lines {
		h, isHeading := parseHeading(line)
		isFirst := false

		if firstContent && strings.TrimSpace(line) != "" {
			firstContent = false
			isFirst = true
			if isHeading && h.style == styleMarkdown && h.level == 1 && h1Count == 1 {
				docTitle = h.text
				continue
			}
			docTitle = truncateTitle(cleanHeading(plainLine(line)))
		}

		if !isHeading {
			current.lines = append(current.lines, line)
			continue
		}

		label, known := matchLabel(h.text)
		boundary := known ||
			(h.style == styleMarkdown && h.level <= topLevel) ||
			(topLevel == 0 && (h.style == styleStrong || h.style == styleCaps))

		if !boundary || (known && label == current.label) {
			current.lines = append(current.lines, line)
			continue
		}

		if current.kept() {
			blocks = append(blocks, current)
		}
		current = block{label: label, heading: h.text, isTitle: isFirst}
	}
	if current.kept() {
		blocks = append(blocks, current)
	}
	return docTitle, blocks
}

// markdownTopLevel is the shallowest markdown level used at least twice, or
// the shallowest level present. Zero means no markdown headings.
func markdownTopLevel(lines []string) (int, int) {
	counts := map[int]int{}
	for _, line := range lines {
		if h, ok := parseHeading(line); ok && h.style == styleMarkdown {
			counts[h.level]++
		}
	}
	top := 0
	for level := 1; level <= 6; level++ {
		if counts[level] >= 2 {
			return level, counts[1]
		}
		if top == 0 && counts[level] > 0 {
			top = level
		}
	}
	return top, counts[1]
}

// listLines flattens a block into one entry per list item or prose line
func listLines(text string) []string {
	var out []string
	for _, section := range Split(text) {
		if section.Kind == models.KindText {
			for _, line := range strings.Split(section.Text, "\n") {
				if l := plainLine(line); l != "" {
					out = append(out, l)
				}
			}
			continue
		}
		out = append(out, section.Items...)
	}
	return out
}

func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= maxTitleLength {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:maxTitleLength])) + "..."
}
