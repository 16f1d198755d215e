package structuring

import (
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

// MinLabeledFields is how many fields the labeled pass must populate before
// the keyword fallback pass is skipped
const MinLabeledFields = 3

type backgroundField int

const (
	fieldName backgroundField = iota + 1
	fieldAge
	fieldSex
	fieldOccupation
	fieldConcern
	fieldHistory
	fieldConditions
	fieldMedications
	fieldAllergies
	fieldLiving
	fieldSubstance
	fieldFamily
)

var fieldLabels = labelIndex(map[backgroundField][]string{
	fieldName:        {"name", "patient name", "patient"},
	fieldAge:         {"age"},
	fieldSex:         {"sex", "gender"},
	fieldOccupation:  {"occupation", "profession", "job", "employment"},
	fieldConcern:     {"chief complaint", "presenting complaint", "presenting concern", "presenting problem", "reason for visit", "reason for admission"},
	fieldHistory:     {"history of present illness", "hpi", "history", "present illness", "narrative"},
	fieldConditions:  {"past medical history", "medical history", "pmh", "prior conditions", "comorbidities", "conditions", "diagnoses"},
	fieldMedications: {"medications", "current medications", "home medications", "meds", "medication"},
	fieldAllergies:   {"allergies", "allergy", "drug allergies"},
	fieldLiving:      {"living situation", "social situation", "home situation", "living arrangement", "lives", "social history"},
	fieldSubstance:   {"substance use", "tobacco", "tobacco use", "smoking", "alcohol", "alcohol use", "drug use"},
	fieldFamily:      {"family history", "fhx", "family medical history"},
})

func labelIndex(groups map[backgroundField][]string) map[string]backgroundField {
	index := map[string]backgroundField{}
	for field, labels := range groups {
		for _, label := range labels {
			index[label] = field
		}
	}
	return index
}

// fallbackKeywords map generic section titles to fields, checked in order
var fallbackKeywords = []struct {
	pattern *regexp.Regexp
	field   backgroundField
}{
	{regexp.MustCompile(`(?i)medication|\bmeds\b`), fieldMedications},
	{regexp.MustCompile(`(?i)allerg`), fieldAllergies},
	{regexp.MustCompile(`(?i)family`), fieldFamily},
	{regexp.MustCompile(`(?i)substance|smok|alcohol|tobacco`), fieldSubstance},
	{regexp.MustCompile(`(?i)social|living|lives|home`), fieldLiving},
	{regexp.MustCompile(`(?i)medical history|\bpmh\b|condition|comorbid|diagnos`), fieldConditions},
	{regexp.MustCompile(`(?i)complaint|concern|reason for`), fieldConcern},
	{regexp.MustCompile(`(?i)history|\bhpi\b|present illness`), fieldHistory},
	{regexp.MustCompile(`(?i)occupation|employ|work`), fieldOccupation},
}

var (
	entryRe      = regexp.MustCompile(`^\s*(?:[-*•]\s+)?(?:\*\*|__)?([A-Za-z][A-Za-z /&'()-]{0,40}?)(?:\*\*|__)?\s*:\s*(?:\*\*|__)?\s*(.*)$`)
	ageSexRe     = regexp.MustCompile(`(?i)\b(\d{1,3})[- ]year[- ]old(?:\s+(male|female|man|woman|boy|girl))?`)
	presentsRe   = regexp.MustCompile(`(?i)\bpresents?\b[^.]*?\bwith\s+([^.]+)`)
	honorificRe  = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Miss|Dr)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)
	doseTokenRe  = regexp.MustCompile(`(?i)\d+(?:[.,]\d+)?\s*(?:%|(?:mcg/kg/min|mg/kg|mg/ml|mcg|µg|mg|meq|ml|units?|iu|puffs?|tablets?|tabs?|capsules?|caps?|drops?|g|l)\b)`)
	doseGapRe    = regexp.MustCompile(`^[\s/,+-]*(?:and\s*)?$`)
	parentheticR = regexp.MustCompile(`^(.*?)\s*\(([^()]*)\)\s*$`)
	allergyDash  = regexp.MustCompile(`^(.+?)\s+[-–:]\s+(.+)$`)
)

type backgroundEntry struct {
	label string
	value string
	lines []string
}

// ExtractBackground builds the subject profile from a background block. The
// returned residual holds whatever no field claimed.
func ExtractBackground(text string) (models.SubjectBackground, string) {
	entries, loose := parseEntries(text)

	var bg models.SubjectBackground
	var residual []string
	for _, e := range entries {
		field, ok := fieldLabels[normalizeLabel(e.label)]
		if !ok || !assignField(&bg, field, e.value, e.lines) {
			residual = append(residual, renderEntry(e))
		}
	}
	residual = append(residual, loose...)
	unclaimed := strings.TrimSpace(strings.Join(residual, "\n\n"))
	bg.ExtractionPass = models.PassLabeled

	if populatedFields(bg) >= MinLabeledFields {
		return bg, unclaimed
	}

	// entries the labeled pass consumed are not offered to the fallback again
	fallback, leftover := fallbackBackground(unclaimed, text)
	mergeBackground(&bg, fallback)
	bg.ExtractionPass = models.PassFallback
	return bg, leftover
}

// parseEntries groups "Label: value" lines with their continuation lines.
// A blank line ends an entry unless the entry is still an empty header.
// Lines outside any entry come back grouped into paragraphs.
func parseEntries(text string) ([]backgroundEntry, []string) {
	var entries []backgroundEntry
	var loose []string
	var current *backgroundEntry
	sawBlank := false
	inParagraph := false

	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			sawBlank = true
			inParagraph = false
			continue
		}

		if m := entryRe.FindStringSubmatch(trimmed); m != nil && isEntryLabel(trimmed, m[1]) {
			entries = append(entries, backgroundEntry{label: m[1], value: strings.TrimSpace(m[2])})
			current = &entries[len(entries)-1]
			sawBlank = false
			inParagraph = false
			continue
		}

		if current != nil && acceptsContinuation(current, trimmed, sawBlank) {
			current.lines = append(current.lines, trimmed)
			sawBlank = false
			continue
		}

		current = nil
		if inParagraph {
			loose[len(loose)-1] += "\n" + trimmed
		} else {
			loose = append(loose, trimmed)
			inParagraph = true
		}
		sawBlank = false
	}
	return entries, loose
}

// isEntryLabel keeps list items such as "- Metoprolol: 25 mg" out of the
// entry parser unless they name a known field
func isEntryLabel(line, label string) bool {
	if wordCount(label) > 5 {
		return false
	}
	if bulletRe.MatchString(line) || orderedRe.MatchString(line) {
		_, known := fieldLabels[normalizeLabel(label)]
		return known
	}
	return true
}

// acceptsContinuation attaches list lines to any entry and prose lines only
// to header entries or narrative fields
func acceptsContinuation(e *backgroundEntry, line string, afterBlank bool) bool {
	header := e.value == "" && len(e.lines) == 0
	if afterBlank && !header {
		return false
	}
	if header || bulletRe.MatchString(line) || orderedRe.MatchString(line) {
		return true
	}
	switch fieldLabels[normalizeLabel(e.label)] {
	case fieldHistory, fieldConcern, fieldLiving:
		return true
	}
	return e.value == ""
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.TrimPrefix(label, "the ")
	return collapseWhitespace(strings.Trim(label, "()'-&/ "))
}

func renderEntry(e backgroundEntry) string {
	lines := append([]string{strings.TrimSpace(e.label + ": " + e.value)}, e.lines...)
	return strings.Join(lines, "\n")
}

// assignField fills an empty field; it reports false when the field was
// already set so the duplicate entry stays in the residual
func assignField(bg *models.SubjectBackground, field backgroundField, value string, lines []string) bool {
	scalar := collapseWhitespace(strings.Join(append([]string{value}, plainLines(lines)...), " "))
	items := listItems(value, lines)

	switch field {
	case fieldName:
		return setScalar(&bg.Name, scalar)
	case fieldAge:
		return setScalar(&bg.Age, scalar)
	case fieldSex:
		return setScalar(&bg.Sex, scalar)
	case fieldOccupation:
		return setScalar(&bg.Occupation, scalar)
	case fieldConcern:
		return setScalar(&bg.PresentingConcern, scalar)
	case fieldHistory:
		return setScalar(&bg.History, scalar)
	case fieldLiving:
		return setScalar(&bg.LivingSituation, scalar)
	case fieldConditions:
		return setList(&bg.PriorConditions, items)
	case fieldFamily:
		return setList(&bg.FamilyHistory, items)
	case fieldSubstance:
		return setList(&bg.SubstanceUse, items)
	case fieldMedications:
		if len(bg.Medications) > 0 || len(items) == 0 {
			return false
		}
		for _, item := range items {
			bg.Medications = append(bg.Medications, ParseMedication(item))
		}
		return true
	case fieldAllergies:
		if len(bg.Allergies) > 0 || len(items) == 0 {
			return false
		}
		for _, item := range items {
			bg.Allergies = append(bg.Allergies, ParseAllergy(item))
		}
		return true
	}
	return false
}

func setScalar(dst *string, value string) bool {
	if *dst != "" || value == "" {
		return false
	}
	*dst = value
	return true
}

func setList(dst *[]string, items []string) bool {
	if len(*dst) > 0 || len(items) == 0 {
		return false
	}
	*dst = items
	return true
}

// listItems splits an inline value on semicolons and list commas and takes
// each continuation line as its own item
func listItems(value string, lines []string) []string {
	var items []string
	for _, part := range splitListValue(value) {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	for _, line := range plainLines(lines) {
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// splitListValue splits on ';' and on ',' unless the comma groups digits,
// so "Metformin 1,000 mg" stays one item
func splitListValue(value string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case ';':
		case ',':
			if i > 0 && i+1 < len(value) && isDigit(value[i-1]) && isDigit(value[i+1]) {
				continue
			}
		default:
			continue
		}
		parts = append(parts, value[start:i])
		start = i + 1
	}
	if start < len(value) {
		parts = append(parts, value[start:])
	}
	return parts
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func plainLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, plainLine(l))
	}
	return out
}

func populatedFields(bg models.SubjectBackground) int {
	n := 0
	for _, s := range []string{bg.Name, bg.Age, bg.Sex, bg.Occupation, bg.PresentingConcern, bg.History, bg.LivingSituation} {
		if s != "" {
			n++
		}
	}
	for _, l := range []int{len(bg.PriorConditions), len(bg.Medications), len(bg.Allergies), len(bg.SubstanceUse), len(bg.FamilyHistory)} {
		if l > 0 {
			n++
		}
	}
	return n
}

// fallbackBackground matches generic sections of the unclaimed text by
// keyword and mines the whole block's prose for age, sex, name and
// presenting concern
func fallbackBackground(unclaimed, text string) (models.SubjectBackground, string) {
	var bg models.SubjectBackground
	var leftover []string

	for _, section := range Split(unclaimed) {
		field, ok := matchFallbackField(section.Title)
		lines := section.Lines()
		if !ok || !assignField(&bg, field, "", lines) {
			leftover = append(leftover, renderSection(section))
		}
	}

	if m := ageSexRe.FindStringSubmatch(text); m != nil {
		setScalar(&bg.Age, m[1])
		setScalar(&bg.Sex, normalizeSex(m[2]))
	}
	if m := presentsRe.FindStringSubmatch(text); m != nil {
		setScalar(&bg.PresentingConcern, strings.TrimSpace(m[1]))
	}
	if name := honorificRe.FindString(text); name != "" {
		setScalar(&bg.Name, name)
	}
	return bg, strings.TrimSpace(strings.Join(leftover, "\n\n"))
}

func matchFallbackField(title string) (backgroundField, bool) {
	for _, k := range fallbackKeywords {
		if k.pattern.MatchString(title) {
			return k.field, true
		}
	}
	return 0, false
}

func renderSection(s models.DynamicSection) string {
	var b strings.Builder
	b.WriteString(s.Title)
	b.WriteString(":\n")
	if s.Kind == models.KindText {
		b.WriteString(s.Text)
		return b.String()
	}
	for i, item := range s.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}

func normalizeSex(s string) string {
	switch strings.ToLower(s) {
	case "male", "man", "boy":
		return "male"
	case "female", "woman", "girl":
		return "female"
	}
	return ""
}

// mergeBackground copies fallback values into fields the labeled pass left empty
func mergeBackground(dst *models.SubjectBackground, src models.SubjectBackground) {
	setScalar(&dst.Name, src.Name)
	setScalar(&dst.Age, src.Age)
	setScalar(&dst.Sex, src.Sex)
	setScalar(&dst.Occupation, src.Occupation)
	setScalar(&dst.PresentingConcern, src.PresentingConcern)
	setScalar(&dst.History, src.History)
	setScalar(&dst.LivingSituation, src.LivingSituation)
	setList(&dst.PriorConditions, src.PriorConditions)
	setList(&dst.SubstanceUse, src.SubstanceUse)
	setList(&dst.FamilyHistory, src.FamilyHistory)
	if len(dst.Medications) == 0 {
		dst.Medications = src.Medications
	}
	if len(dst.Allergies) == 0 {
		dst.Allergies = src.Allergies
	}
}

// ParseMedication splits a medication line at the last run of dose tokens:
// "Lisinopril 10 mg daily" is name "Lisinopril", dosage "10 mg daily"
func ParseMedication(line string) models.Medication {
	line = plainLine(line)
	matches := doseTokenRe.FindAllStringIndex(line, -1)
	if len(matches) == 0 {
		return models.Medication{Name: line}
	}

	start := matches[len(matches)-1][0]
	for i := len(matches) - 2; i >= 0; i-- {
		if !doseGapRe.MatchString(line[matches[i][1]:start]) {
			break
		}
		start = matches[i][0]
	}

	name := strings.TrimRight(strings.TrimSpace(line[:start]), " -:,(")
	if name == "" {
		return models.Medication{Name: line}
	}
	return models.Medication{Name: name, Dosage: strings.TrimSpace(line[start:])}
}

// ParseAllergy reads "Penicillin (hives)" or "Penicillin - hives"
func ParseAllergy(line string) models.Allergy {
	line = plainLine(line)
	if m := parentheticR.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
		return models.Allergy{Allergen: strings.TrimSpace(m[1]), Reaction: strings.TrimSpace(m[2])}
	}
	if m := allergyDash.FindStringSubmatch(line); m != nil {
		return models.Allergy{Allergen: strings.TrimSpace(m[1]), Reaction: strings.TrimSpace(m[2])}
	}
	return models.Allergy{Allergen: line}
}
