package ranges

import "regexp"

type settingProfile struct {
	name          string
	pattern       *regexp.Regexp
	resources     []string
	documentation []string
}

var settingProfiles = []settingProfile{
	{
		name:    "icu",
		pattern: regexp.MustCompile(`(?i)\bicu\b|intensive care|critical care`),
		resources: []string{
			"Cardiac monitor with arterial line",
			"Mechanical ventilator",
			"Infusion pumps",
			"Central line kit",
			"Code cart with defibrillator",
		},
		documentation: []string{"ICU flowsheet", "Hourly vital signs record", "Medication administration record", "SBAR handoff"},
	},
	{
		name:    "emergency",
		pattern: regexp.MustCompile(`(?i)emergency|\bed\b|\ber\b|trauma`),
		resources: []string{
			"Cardiac monitor",
			"Oxygen delivery devices",
			"IV start kit",
			"Crash cart with defibrillator",
			"Point-of-care glucose meter",
		},
		documentation: []string{"Triage note", "Emergency nursing assessment", "Medication administration record", "SBAR handoff"},
	},
	{
		name:    "pediatric",
		pattern: regexp.MustCompile(`(?i)pediatric|paediatric|\bpicu\b|\bnicu\b|children`),
		resources: []string{
			"Pediatric monitor",
			"Broselow tape",
			"Weight-based dosing chart",
			"Pediatric airway equipment",
		},
		documentation: []string{"Pediatric assessment", "Growth and weight record", "Medication administration record", "Family communication note"},
	},
	{
		name:    "medical_surgical",
		pattern: regexp.MustCompile(`(?i)med[- ]?surg|medical[- ]surgical|\bward\b|inpatient|telemetry|floor`),
		resources: []string{
			"Vital signs monitor",
			"IV pump",
			"Oxygen via wall supply",
			"Incentive spirometer",
		},
		documentation: []string{"Nursing admission assessment", "Shift assessment", "Medication administration record", "Care plan"},
	},
	{
		name:    "outpatient",
		pattern: regexp.MustCompile(`(?i)clinic|outpatient|primary care|office`),
		resources: []string{
			"Exam room",
			"Manual blood pressure cuff",
			"Pulse oximeter",
			"Patient education handouts",
		},
		documentation: []string{"Clinic visit note", "Medication reconciliation", "Patient education record"},
	},
	{
		name:    "home_health",
		pattern: regexp.MustCompile(`(?i)\bhome\b|community`),
		resources: []string{
			"Portable vital signs kit",
			"Home medication list",
			"Telehealth device",
		},
		documentation: []string{"Home visit note", "Home safety assessment", "Medication reconciliation"},
	},
}

var defaultProfile = settingProfile{
	name:          "general",
	resources:     []string{"Vital signs monitor", "Oxygen delivery devices", "IV supplies"},
	documentation: []string{"Nursing assessment", "Medication administration record", "SBAR handoff"},
}

// ProfileFor returns the resources and documentation types for a care setting
func ProfileFor(setting string) (resources, documentation []string) {
	p := defaultProfile
	for _, candidate := range settingProfiles {
		if candidate.pattern.MatchString(setting) {
			p = candidate
			break
		}
	}
	return append([]string{}, p.resources...), append([]string{}, p.documentation...)
}
