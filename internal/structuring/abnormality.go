package structuring

import (
	"regexp"
	"strings"
)

// abnormalTerms are word prefixes that mark a finding as outside normal
// limits. Only consulted when no numeric comparison is available.
var abnormalTerms = []string{
	"abnormal", "absent", "critical", "decreased", "diminished", "elevated",
	"increased", "reduced", "positive", "irregular", "high", "low",
	"tachycardi", "bradycardi", "tachypne", "bradypne", "hypotensi", "hypertensi",
	"hypoxi", "hypoxemi", "hyperthermi", "hypothermi", "febrile", "fever",
	"crackles", "rales", "rhonchi", "wheez", "stridor", "labored", "distress",
	"confus", "letharg", "unresponsive", "obtunded", "cyanos", "cyanotic",
	"pallor", "diaphore", "mottl", "edema", "jaundice", "guarding", "rigid",
}

var abnormalPattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(abnormalTerms, "|") + `)`)

// IsLikelyAbnormal reports whether free text contains abnormality vocabulary
func IsLikelyAbnormal(text string) bool {
	return abnormalPattern.MatchString(text)
}
