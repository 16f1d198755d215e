package structuring

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

var (
	heartRateRe = regexp.MustCompile(`(?i)^(?:heart rate|pulse rate|pulse|hr)\s*[:=\-]?\s*(\d{2,3})\s*(bpm|beats?/min|/min)?\b`)
	respRateRe  = regexp.MustCompile(`(?i)^(?:respiratory rate|respirations?|resp\.?|rr)\s*[:=\-]?\s*(\d{1,2})\s*(breaths?/min|/min)?\b`)
	bloodPresRe = regexp.MustCompile(`(?i)^(?:blood pressure|b/p|bp)\s*[:=\-]?\s*(\d{2,3})\s*/\s*(\d{2,3})\s*(mm\s?hg)?`)
	temperatRe  = regexp.MustCompile(`(?i)^(?:temperature|temp|t)\s*[:=\-]?\s*(\d{2,3}(?:\.\d+)?)\s*(?:°|º|deg(?:rees)?)?\s*([CF])?\b`)
	oxygenSatRe = regexp.MustCompile(`(?i)^(?:oxygen saturation|o2 saturation|o2 sat|spo2|sp02|sao2|pulse oximetry|pulse ox|sats?)\s*[:=\-]?\s*(\d{2,3})\s*%?`)
	conscious   = regexp.MustCompile(`(?i)^(?:level of consciousness|consciousness|mental status|avpu|loc)\s*[:=\-]\s*(.+)$`)
	gcsRe       = regexp.MustCompile(`(?i)^(?:gcs|glasgow coma scale)\s*[:=\-]?\s*(\d{1,2})\b`)
	warningRe   = regexp.MustCompile(`(?i)^(?:early warning score|news2?|mews|pews)\s*(?:score)?\s*[:=\-]?\s*(\d{1,2})\b`)
	genericRe   = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 /()'&-]{0,40}?)\s*:\s*(.+)$`)
	alertRe     = regexp.MustCompile(`(?i)^(?:a|alert)\b`)
	orientedRe  = regexp.MustCompile(`(?i)\b(?:alert and oriented|a&ox?[34]|aox?[34])\b`)
)

// Abnormal limits for the recognized vitals
const (
	heartRateHigh     = 100
	heartRateLow      = 60
	respRateHigh      = 20
	respRateLow       = 12
	systolicHigh      = 140
	systolicLow       = 90
	diastolicHigh     = 90
	diastolicLow      = 60
	tempCelsiusHigh   = 38.0
	tempCelsiusLow    = 36.1
	tempFahrenheitHi  = 100.4
	tempFahrenheitLow = 97.0
	saturationLow     = 95
	gcsNormal         = 15
	warningScoreHigh  = 5
)

// ExtractVitals returns one VitalSign per recognized line. Lines holding
// several comma or semicolon separated vitals yield one record each.
func ExtractVitals(lines []string) []models.VitalSign {
	var vitals []models.VitalSign
	for _, line := range lines {
		if found, ok := parseVitalLine(line); ok {
			vitals = append(vitals, found...)
		}
	}
	return vitals
}

// parseVitalLine tries every segment first, then the whole line as one vital
func parseVitalLine(line string) ([]models.VitalSign, bool) {
	line = plainLine(line)
	if line == "" {
		return nil, false
	}

	segments := splitSegments(line)
	if len(segments) > 1 {
		var vitals []models.VitalSign
		for _, seg := range segments {
			v, ok := parseVital(seg)
			if !ok {
				vitals = nil
				break
			}
			vitals = append(vitals, v)
		}
		if vitals != nil {
			return vitals, true
		}
	}

	if v, ok := parseVital(line); ok {
		return []models.VitalSign{v}, true
	}
	return nil, false
}

func parseVital(seg string) (models.VitalSign, bool) {
	seg = strings.TrimSpace(seg)
	if v, ok := parseKnownVital(seg); ok {
		return v, true
	}
	if m := genericRe.FindStringSubmatch(seg); m != nil {
		value := strings.TrimSpace(m[2])
		return models.VitalSign{
			Name:       strings.TrimSpace(m[1]),
			Value:      value,
			IsAbnormal: IsLikelyAbnormal(value),
		}, true
	}
	return models.VitalSign{}, false
}

func parseKnownVital(seg string) (models.VitalSign, bool) {
	if m := bloodPresRe.FindStringSubmatch(seg); m != nil {
		sys, _ := strconv.Atoi(m[1])
		dia, _ := strconv.Atoi(m[2])
		return models.VitalSign{
			Name:       "Blood Pressure",
			Value:      m[1] + "/" + m[2],
			Unit:       "mmHg",
			IsAbnormal: sys > systolicHigh || sys < systolicLow || dia > diastolicHigh || dia < diastolicLow,
		}, true
	}
	if m := heartRateRe.FindStringSubmatch(seg); m != nil {
		rate, _ := strconv.Atoi(m[1])
		return models.VitalSign{
			Name:       "Heart Rate",
			Value:      m[1],
			Unit:       unitOr(m[2], "bpm"),
			IsAbnormal: rate > heartRateHigh || rate < heartRateLow,
		}, true
	}
	if m := respRateRe.FindStringSubmatch(seg); m != nil {
		rate, _ := strconv.Atoi(m[1])
		return models.VitalSign{
			Name:       "Respiratory Rate",
			Value:      m[1],
			Unit:       unitOr(m[2], "breaths/min"),
			IsAbnormal: rate > respRateHigh || rate < respRateLow,
		}, true
	}
	if m := oxygenSatRe.FindStringSubmatch(seg); m != nil {
		sat, _ := strconv.Atoi(m[1])
		return models.VitalSign{
			Name:       "Oxygen Saturation",
			Value:      m[1],
			Unit:       "%",
			IsAbnormal: sat < saturationLow,
		}, true
	}
	if m := gcsRe.FindStringSubmatch(seg); m != nil {
		score, _ := strconv.Atoi(m[1])
		return models.VitalSign{
			Name:       "Glasgow Coma Scale",
			Value:      m[1],
			IsAbnormal: score < gcsNormal,
		}, true
	}
	if m := warningRe.FindStringSubmatch(seg); m != nil {
		score, _ := strconv.Atoi(m[1])
		return models.VitalSign{
			Name:       "Early Warning Score",
			Value:      m[1],
			IsAbnormal: score >= warningScoreHigh,
		}, true
	}
	if m := conscious.FindStringSubmatch(seg); m != nil {
		value := strings.TrimSpace(m[1])
		normal := alertRe.MatchString(value) || orientedRe.MatchString(value)
		return models.VitalSign{
			Name:       "Level of Consciousness",
			Value:      value,
			IsAbnormal: !normal || IsLikelyAbnormal(value),
		}, true
	}
	if m := temperatRe.FindStringSubmatch(seg); m != nil {
		return temperatureVital(m[1], m[2]), true
	}
	return models.VitalSign{}, false
}

// temperatureVital assumes Fahrenheit when no unit is given and the value
// is implausible as Celsius
func temperatureVital(raw, unit string) models.VitalSign {
	value, _ := strconv.ParseFloat(raw, 64)
	unit = strings.ToUpper(unit)
	if unit == "" {
		unit = "C"
		if value > 50 {
			unit = "F"
		}
	}

	abnormal := value > tempCelsiusHigh || value < tempCelsiusLow
	if unit == "F" {
		abnormal = value > tempFahrenheitHi || value < tempFahrenheitLow
	}
	return models.VitalSign{
		Name:       "Temperature",
		Value:      raw,
		Unit:       "°" + unit,
		IsAbnormal: abnormal,
	}
}

func unitOr(unit, fallback string) string {
	if unit == "" {
		return fallback
	}
	return unit
}

// splitSegments splits on ; and | always, and on commas that start a new
// labelled item (", BP 120/80" but not ", 10,000")
func splitSegments(line string) []string {
	var segments []string
	for _, part := range strings.FieldsFunc(line, func(r rune) bool { return r == ';' || r == '|' }) {
		pieces := strings.Split(part, ",")
		current := pieces[0]
		for _, piece := range pieces[1:] {
			trimmed := strings.TrimLeft(piece, " ")
			if trimmed != "" && trimmed != piece && isLetterStart(trimmed) {
				segments = append(segments, strings.TrimSpace(current))
				current = trimmed
				continue
			}
			current += "," + piece
		}
		segments = append(segments, strings.TrimSpace(current))
	}

	out := segments[:0]
	for _, s := range segments {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isLetterStart(s string) bool {
	c := s[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
