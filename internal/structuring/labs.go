package structuring

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

var knownAnalytes = []string{
	"glucose", "blood glucose", "sodium", "na", "potassium", "k", "chloride", "cl",
	"bicarbonate", "hco3", "co2", "bun", "urea", "creatinine", "cr", "egfr",
	"hemoglobin", "hgb", "hb", "hematocrit", "hct", "wbc", "white blood cell",
	"rbc", "platelets?", "plt", "troponin", "lactate", "lactic acid", "bnp",
	"nt-probnp", "inr", "pt", "ptt", "aptt", "albumin", "calcium", "ca",
	"magnesium", "mg", "phosphate", "ph", "pco2", "po2", "pao2", "paco2",
	"a1c", "hba1c", "hemoglobin a1c", "crp", "esr", "procalcitonin", "alt", "ast",
	"alp", "bilirubin", "lipase", "amylase", "d-dimer", "ck", "tsh", "ammonia",
	"ketones", "cholesterol", "ldl", "hdl", "triglycerides", "anion gap",
	"osmolality", "ferritin", "neutrophils", "lymphocytes",
}

var (
	analyteRe  = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?:` + strings.Join(knownAnalytes, "|") + `)(?:$|[^a-z0-9])`)
	labLineRe  = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 ,()/+\-]*?)\s*(?::|=|\s-\s|\s)\s*([<>]?\s*-?\d+(?:\.\d+)?)\s*(.*)$`)
	labUnitRe  = regexp.MustCompile(`^([A-Za-z%µμ/][A-Za-z0-9%µμ/^.*]*)`)
	refLabelRe = regexp.MustCompile(`(?i)[\[(]\s*(?:reference(?:\s*range)?|ref(?:\s*range)?|normal(?:\s*range)?|nr)\s*[:=]?\s*([^\])]*)[\])]`)
	refBareRe  = regexp.MustCompile(`\[([^\]]*\d[^\]]*)\]`)
	rangeRe    = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(?:-|–|to)\s*(-?\d+(?:\.\d+)?)`)
	upperRe    = regexp.MustCompile(`^\s*(?:<|≤|<=|less than)\s*(\d+(?:\.\d+)?)`)
	lowerRe    = regexp.MustCompile(`^\s*(?:>|≥|>=|greater than)\s*(\d+(?:\.\d+)?)`)
)

// flags of this length or shorter (H, L, N, HH, LL) only count at the edges
// of the trailing text, so "on 2 L nasal cannula" is not a low flag
const shortFlagLength = 2

// Canonical lab flags
const (
	FlagHigh     = "high"
	FlagLow      = "low"
	FlagCritical = "critical"
	FlagAbnormal = "abnormal"
	FlagNormal   = "normal"
)

// ExtractLabs parses every line as a lab result. Names are deduplicated
// case-insensitively; the first occurrence wins.
func ExtractLabs(lines []string) []models.LabResult {
	var labs []models.LabResult
	seen := map[string]bool{}
	for _, line := range lines {
		found, ok := parseLabLine(line, true)
		if !ok {
			continue
		}
		for _, lab := range found {
			key := strings.ToLower(lab.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			labs = append(labs, lab)
		}
	}
	return labs
}

// parseLabLine accepts a line when it names a known analyte, carries a
// reference range or sits under a lab heading (inLabContext)
func parseLabLine(line string, inLabContext bool) ([]models.LabResult, bool) {
	line = plainLine(line)
	if line == "" {
		return nil, false
	}

	segments := splitSegments(line)
	if len(segments) > 1 {
		var labs []models.LabResult
		for _, seg := range segments {
			lab, ok := parseLab(seg, inLabContext)
			if !ok {
				labs = nil
				break
			}
			labs = append(labs, lab)
		}
		if labs != nil {
			return labs, true
		}
	}

	if lab, ok := parseLab(line, inLabContext); ok {
		return []models.LabResult{lab}, true
	}
	return nil, false
}

func parseLab(seg string, inLabContext bool) (models.LabResult, bool) {
	m := labLineRe.FindStringSubmatch(seg)
	if m == nil {
		// "CBC: WBC 14.2" names a panel before the analyte
		if idx := strings.Index(seg, ":"); idx > 0 && idx < len(seg)-1 {
			return parseLab(strings.TrimSpace(seg[idx+1:]), inLabContext)
		}
		return models.LabResult{}, false
	}

	name := strings.TrimSpace(strings.TrimRight(m[1], " -"))
	value := strings.ReplaceAll(m[2], " ", "")
	rest := strings.TrimSpace(m[3])

	lab := models.LabResult{Name: name, Value: value}

	if u := labUnitRe.FindString(rest); u != "" && canonicalFlag(u) == "" {
		lab.Unit = u
		rest = strings.TrimSpace(rest[len(u):])
	}

	if rm := refLabelRe.FindStringSubmatchIndex(rest); rm != nil {
		lab.ReferenceRange = strings.TrimSpace(rest[rm[2]:rm[3]])
		rest = rest[:rm[0]] + rest[rm[1]:]
	} else if rm := refBareRe.FindStringSubmatchIndex(rest); rm != nil {
		lab.ReferenceRange = strings.TrimSpace(rest[rm[2]:rm[3]])
		rest = rest[:rm[0]] + rest[rm[1]:]
	}

	if !inLabContext && lab.ReferenceRange == "" && !analyteRe.MatchString(name) {
		return models.LabResult{}, false
	}

	lab.Flag = findFlag(rest)
	lab.IsAbnormal = labAbnormal(lab, rest)
	return lab, true
}

func findFlag(rest string) string {
	if strings.ContainsAny(rest, "↑") {
		return FlagHigh
	}
	if strings.ContainsAny(rest, "↓") {
		return FlagLow
	}

	tokens := strings.Fields(rest)
	for i, tok := range tokens {
		word := strings.Trim(tok, "()[],;.")
		flag := canonicalFlag(word)
		if flag == "" {
			continue
		}
		if len(word) > shortFlagLength || i == 0 {
			return flag
		}
		// a trailing letter after a number is a unit: "on 2 L"
		if i == len(tokens)-1 && !isNumber(tokens[i-1]) {
			return flag
		}
	}
	return ""
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func canonicalFlag(token string) string {
	switch strings.ToUpper(token) {
	case "H", "HIGH":
		return FlagHigh
	case "L", "LOW":
		return FlagLow
	case "HH", "LL", "CRIT", "CRITICAL":
		return FlagCritical
	case "ABN", "ABNORMAL":
		return FlagAbnormal
	case "N", "NORMAL":
		return FlagNormal
	}
	return ""
}

// labAbnormal prefers the explicit flag, then the stated range, then the
// keyword heuristic
func labAbnormal(lab models.LabResult, rest string) bool {
	if lab.Flag != "" {
		return lab.Flag != FlagNormal
	}
	if lab.ReferenceRange != "" {
		value, err := strconv.ParseFloat(strings.TrimLeft(lab.Value, "<>"), 64)
		if err == nil {
			if outside, ok := outsideRange(value, lab.ReferenceRange); ok {
				return outside
			}
		}
	}
	return IsLikelyAbnormal(rest)
}

func outsideRange(value float64, ref string) (bool, bool) {
	if m := rangeRe.FindStringSubmatch(ref); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		return value < lo || value > hi, true
	}
	if m := upperRe.FindStringSubmatch(ref); m != nil {
		hi, _ := strconv.ParseFloat(m[1], 64)
		return value >= hi, true
	}
	if m := lowerRe.FindStringSubmatch(ref); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		return value <= lo, true
	}
	return false, false
}
