package structuring

import (
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

var (
	labHeadingRe   = regexp.MustCompile(`(?i)\b(?:lab|labs|laboratory|blood ?work|chemistry|hematology|abg|arterial blood gas|cbc|bmp|cmp|panel)\b`)
	vitalHeadingRe = regexp.MustCompile(`(?i)\bvital`)
)

type findingsContext int

const (
	contextNone findingsContext = iota
	contextVitals
	contextLabs
)

// Findings is the typed content of a findings block plus whatever the
// extractors did not consume
type Findings struct {
	Vitals   []models.VitalSign
	Labs     []models.LabResult
	Residual string
}

// ExtractFindings pulls labs, then vitals, out of a findings block. Lab and
// vital sub-headings are consumed; every other line is kept in Residual.
func ExtractFindings(text string) Findings {
	var out Findings
	var residual []string
	seenLabs := map[string]bool{}
	ctx := contextNone

	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if strings.TrimSpace(line) == "" {
			residual = append(residual, "")
			continue
		}

		if h, ok := parseHeading(line); ok {
			switch {
			case labHeadingRe.MatchString(h.text):
				ctx = contextLabs
				continue
			case vitalHeadingRe.MatchString(h.text):
				ctx = contextVitals
				continue
			default:
				ctx = contextNone
				residual = append(residual, line)
				continue
			}
		}

		if labs, ok := parseLabLine(line, ctx == contextLabs); ok {
			for _, lab := range labs {
				key := strings.ToLower(lab.Name)
				if seenLabs[key] {
					continue
				}
				seenLabs[key] = true
				out.Labs = append(out.Labs, lab)
			}
			continue
		}

		if ctx != contextLabs {
			if vitals, ok := parseVitalLine(line); ok {
				out.Vitals = append(out.Vitals, vitals...)
				continue
			}
		}

		residual = append(residual, line)
	}

	out.Residual = strings.TrimSpace(blankRunRe.ReplaceAllString(strings.Join(residual, "\n"), "\n\n"))
	return out
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)
