package ranges

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

// AgeBand selects the baseline vital ranges
type AgeBand string

const (
	BandPediatric  AgeBand = "pediatric"
	BandYoungAdult AgeBand = "young_adult"
	BandMiddleAged AgeBand = "middle_aged"
	BandElderly    AgeBand = "elderly"
)

func r(min, max float64) models.VitalSignRange {
	return models.VitalSignRange{Min: min, Max: max}
}

var baselines = map[AgeBand]models.ClinicalRangeSet{
	BandPediatric: {
		HeartRate: r(70, 120), RespiratoryRate: r(18, 30), SystolicBP: r(90, 110), DiastolicBP: r(55, 75),
		Temperature: r(36.5, 37.5), OxygenSaturation: r(95, 100), Consciousness: "Alert",
	},
	BandYoungAdult: {
		HeartRate: r(60, 90), RespiratoryRate: r(12, 18), SystolicBP: r(110, 125), DiastolicBP: r(70, 80),
		Temperature: r(36.5, 37.2), OxygenSaturation: r(96, 100), Consciousness: "Alert",
	},
	BandMiddleAged: {
		HeartRate: r(60, 95), RespiratoryRate: r(12, 20), SystolicBP: r(115, 135), DiastolicBP: r(75, 85),
		Temperature: r(36.4, 37.2), OxygenSaturation: r(95, 100), Consciousness: "Alert",
	},
	BandElderly: {
		HeartRate: r(60, 100), RespiratoryRate: r(14, 20), SystolicBP: r(125, 145), DiastolicBP: r(70, 90),
		Temperature: r(36.0, 37.0), OxygenSaturation: r(92, 95), Consciousness: "Alert",
	},
}

var (
	pediatricRe = regexp.MustCompile(`(?i)pediatric|paediatric|child|infant|toddler|adolescent|teen|newborn|neonat`)
	middleRe    = regexp.MustCompile(`(?i)middle`)
	elderlyRe   = regexp.MustCompile(`(?i)elderly|older adult|geriatric|senior|frail|\baged\b`)
	youngRe     = regexp.MustCompile(`(?i)\byoung`)
	firstNumRe  = regexp.MustCompile(`(\d{1,3})\s*(\+)?`)
)

// BandFor maps an age-group label to a band: keywords first, then the first
// number in the label. Middle-aged is the default.
func BandFor(ageGroup string) AgeBand {
	switch {
	case pediatricRe.MatchString(ageGroup):
		return BandPediatric
	case middleRe.MatchString(ageGroup):
		return BandMiddleAged
	case elderlyRe.MatchString(ageGroup):
		return BandElderly
	case youngRe.MatchString(ageGroup):
		return BandYoungAdult
	}

	m := firstNumRe.FindStringSubmatch(ageGroup)
	if m == nil {
		return BandMiddleAged
	}
	age, _ := strconv.Atoi(m[1])
	switch {
	case age < 18:
		return BandPediatric
	case age <= 35:
		return BandYoungAdult
	case age < 65:
		return BandMiddleAged
	default:
		return BandElderly
	}
}

// Baseline returns a copy of the band's ranges
func Baseline(band AgeBand) models.ClinicalRangeSet {
	set, ok := baselines[band]
	if !ok {
		return baselines[BandMiddleAged]
	}
	return set
}

// Severity levels, mildest first
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityCritical Severity = "critical"
)

type delta struct {
	min, max float64
}

type severityAdjustment struct {
	heartRate     delta
	respRate      delta
	saturation    delta
	consciousness string
}

var severityAdjustments = map[Severity]severityAdjustment{
	SeverityMild:     {delta{5, 10}, delta{2, 2}, delta{-1, 0}, "Alert"},
	SeverityModerate: {delta{15, 20}, delta{4, 6}, delta{-3, -2}, "Alert, anxious"},
	SeveritySevere:   {delta{25, 35}, delta{8, 10}, delta{-6, -4}, "Responds to voice, confused"},
	SeverityCritical: {delta{40, 50}, delta{12, 16}, delta{-12, -8}, "Responds to pain only"},
}

var severityPatterns = []struct {
	severity Severity
	pattern  *regexp.Regexp
}{
	{SeverityCritical, regexp.MustCompile(`(?i)critical|life[- ]threatening|unstable|peri-?arrest`)},
	{SeveritySevere, regexp.MustCompile(`(?i)severe|high acuity|serious`)},
	{SeverityModerate, regexp.MustCompile(`(?i)moderate|intermediate`)},
	{SeverityMild, regexp.MustCompile(`(?i)mild|low acuity|\blow\b|stable|minor`)},
}

// SeverityFor maps a severity label to a level, SeverityNone when unrecognized
func SeverityFor(label string) Severity {
	for _, p := range severityPatterns {
		if p.pattern.MatchString(label) {
			return p.severity
		}
	}
	return SeverityNone
}

type comorbidityAdjustment struct {
	name        string
	pattern     *regexp.Regexp
	heartRate   delta
	respRate    delta
	systolic    delta
	diastolic   delta
	temperature delta
	saturation  delta
}

var comorbidityAdjustments = []comorbidityAdjustment{
	{
		name:      "hypertension",
		pattern:   regexp.MustCompile(`(?i)hypertension|\bhtn\b|high blood pressure`),
		systolic:  delta{15, 25},
		diastolic: delta{5, 10},
	},
	{
		name:       "respiratory",
		pattern:    regexp.MustCompile(`(?i)\bcopd\b|asthma|respiratory|pulmonary|emphysema|bronchitis`),
		respRate:   delta{2, 4},
		saturation: delta{-4, -3},
	},
	{
		name:      "cardiac",
		pattern:   regexp.MustCompile(`(?i)cardiac|heart failure|\bchf\b|coronary|arrhythmia|atrial fibrillation|\bcad\b`),
		heartRate: delta{10, 15},
	},
	{
		name:        "infection",
		pattern:     regexp.MustCompile(`(?i)infection|sepsis|septic|fever|pneumonia|cellulitis|\buti\b`),
		heartRate:   delta{10, 15},
		temperature: delta{1.5, 2.0},
	},
}

const (
	saturationFloor   = 70
	saturationCeiling = 100
)

// DeriveRanges computes target ranges from the age group, severity and the
// patient's conditions. Each comorbidity kind applies at most once.
func DeriveRanges(ageGroup, severity string, conditions []string) models.ClinicalRangeSet {
	set := Baseline(BandFor(ageGroup))

	if adj, ok := severityAdjustments[SeverityFor(severity)]; ok {
		shift(&set.HeartRate, adj.heartRate)
		shift(&set.RespiratoryRate, adj.respRate)
		shift(&set.OxygenSaturation, adj.saturation)
		set.Consciousness = adj.consciousness
	}

	joined := strings.Join(conditions, " | ")
	for _, c := range comorbidityAdjustments {
		if !c.pattern.MatchString(joined) {
			continue
		}
		shift(&set.HeartRate, c.heartRate)
		shift(&set.RespiratoryRate, c.respRate)
		shift(&set.SystolicBP, c.systolic)
		shift(&set.DiastolicBP, c.diastolic)
		shift(&set.Temperature, c.temperature)
		shift(&set.OxygenSaturation, c.saturation)
	}

	set.OxygenSaturation = clamp(set.OxygenSaturation, saturationFloor, saturationCeiling)
	for _, v := range []*models.VitalSignRange{
		&set.HeartRate, &set.RespiratoryRate, &set.SystolicBP,
		&set.DiastolicBP, &set.Temperature, &set.OxygenSaturation,
	} {
		if v.Min > v.Max {
			v.Min = v.Max
		}
	}
	return set
}

func shift(v *models.VitalSignRange, d delta) {
	v.Min += d.min
	v.Max += d.max
}

func clamp(v models.VitalSignRange, lo, hi float64) models.VitalSignRange {
	bound := func(x float64) float64 {
		if x < lo {
			return lo
		}
		if x > hi {
			return hi
		}
		return x
	}
	return models.VitalSignRange{Min: bound(v.Min), Max: bound(v.Max)}
}
