package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is one of the five topical buckets of a structured document
type Category string

const (
	CategoryOverview    Category = "overview"
	CategoryBackground  Category = "background"
	CategoryFindings    Category = "findings"
	CategoryCarePlan    Category = "care_plan"
	CategoryInstruction Category = "instruction"
)

// Categories lists every bucket in classification priority order, overview last
var Categories = []Category{
	CategoryInstruction,
	CategoryCarePlan,
	CategoryBackground,
	CategoryFindings,
	CategoryOverview,
}

// ContentKind describes the shape of a DynamicSection's content
type ContentKind string

const (
	KindText         ContentKind = "text"
	KindBulletList   ContentKind = "bullet_list"
	KindOrderedSteps ContentKind = "ordered_steps"
)

// DynamicSection is a titled fragment of free text. Text is set only for
// KindText, Items only for the list kinds.
type DynamicSection struct {
	Title string
	Kind  ContentKind
	Text  string
	Items []string
}

// NewTextSection builds a plain text section
func NewTextSection(title, text string) DynamicSection {
	return DynamicSection{Title: title, Kind: KindText, Text: text}
}

// NewListSection builds a bullet or ordered section; any other kind yields text
func NewListSection(title string, kind ContentKind, items []string) DynamicSection {
	if kind != KindBulletList && kind != KindOrderedSteps {
		return NewTextSection(title, strings.Join(items, "\n"))
	}
	if items == nil {
		items = []string{}
	}
	return DynamicSection{Title: title, Kind: kind, Items: items}
}

// Lines returns the content as lines regardless of kind
func (s DynamicSection) Lines() []string {
	if s.Kind == KindText {
		if s.Text == "" {
			return nil
		}
		return []string{s.Text}
	}
	return s.Items
}

type dynamicSectionJSON struct {
	Title   string          `json:"title"`
	Kind    ContentKind     `json:"kind"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON emits content as a string for text and as an array otherwise
func (s DynamicSection) MarshalJSON() ([]byte, error) {
	var content interface{} = s.Text
	kind := s.Kind
	switch kind {
	case KindBulletList, KindOrderedSteps:
		items := s.Items
		if items == nil {
			items = []string{}
		}
		content = items
	default:
		kind = KindText
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(dynamicSectionJSON{Title: s.Title, Kind: kind, Content: raw})
}

// UnmarshalJSON rejects content whose shape disagrees with kind
func (s *DynamicSection) UnmarshalJSON(data []byte) error {
	var wire dynamicSectionJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.Title = wire.Title
	s.Kind = wire.Kind
	s.Text = ""
	s.Items = nil

	switch wire.Kind {
	case KindText:
		if len(wire.Content) == 0 {
			return nil
		}
		if err := json.Unmarshal(wire.Content, &s.Text); err != nil {
			return fmt.Errorf("section %q: text content must be a string: %w", wire.Title, err)
		}
	case KindBulletList, KindOrderedSteps:
		s.Items = []string{}
		if len(wire.Content) == 0 {
			return nil
		}
		if err := json.Unmarshal(wire.Content, &s.Items); err != nil {
			return fmt.Errorf("section %q: list content must be an array: %w", wire.Title, err)
		}
	default:
		return fmt.Errorf("section %q: unknown kind %q", wire.Title, wire.Kind)
	}
	return nil
}

// StructuredDocument is the typed form of a generated scenario
type StructuredDocument struct {
	Title       string             `json:"title"`
	RawText     string             `json:"raw_text"`
	Summary     string             `json:"summary"`
	Overview    OverviewSection    `json:"overview"`
	Background  BackgroundSection  `json:"background"`
	Findings    FindingsSection    `json:"findings"`
	CarePlan    CarePlanSection    `json:"care_plan"`
	Instruction InstructionSection `json:"instruction"`
}

type OverviewSection struct {
	Summary    string           `json:"summary"`
	Objectives []string         `json:"objectives"`
	Sections   []DynamicSection `json:"sections"`
}

type BackgroundSection struct {
	Subject  SubjectBackground `json:"subject"`
	Sections []DynamicSection  `json:"sections"`
}

type FindingsSection struct {
	VitalSigns []VitalSign      `json:"vital_signs"`
	LabResults []LabResult      `json:"lab_results"`
	Sections   []DynamicSection `json:"sections"`
}

type CarePlanSection struct {
	Progression   []DynamicSection `json:"progression"`
	Documentation []DynamicSection `json:"documentation"`
	Sections      []DynamicSection `json:"sections"`
}

type InstructionSection struct {
	EducationalNotes []DynamicSection `json:"educational_notes"`
	DebriefQuestions []string         `json:"debrief_questions"`
	Sections         []DynamicSection `json:"sections"`
}

// Extraction passes recorded on SubjectBackground
const (
	PassLabeled  = "labeled"
	PassFallback = "fallback"
)

// SubjectBackground holds the simulated patient's profile
type SubjectBackground struct {
	Name              string       `json:"name,omitempty"`
	Age               string       `json:"age,omitempty"`
	Sex               string       `json:"sex,omitempty"`
	Occupation        string       `json:"occupation,omitempty"`
	PresentingConcern string       `json:"presenting_concern,omitempty"`
	History           string       `json:"history,omitempty"`
	PriorConditions   []string     `json:"prior_conditions"`
	Medications       []Medication `json:"medications"`
	Allergies         []Allergy    `json:"allergies"`
	LivingSituation   string       `json:"living_situation,omitempty"`
	SubstanceUse      []string     `json:"substance_use"`
	FamilyHistory     []string     `json:"family_history"`
	ExtractionPass    string       `json:"extraction_pass"`
}

type Medication struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage,omitempty"`
}

type Allergy struct {
	Allergen string `json:"allergen"`
	Reaction string `json:"reaction,omitempty"`
}

// VitalSign is one observed vital, numeric or descriptive
type VitalSign struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Unit       string `json:"unit,omitempty"`
	IsAbnormal bool   `json:"is_abnormal"`
}

// LabResult is one laboratory value with its reference range when stated
type LabResult struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	Unit           string `json:"unit,omitempty"`
	ReferenceRange string `json:"reference_range,omitempty"`
	Flag           string `json:"flag,omitempty"`
	IsAbnormal     bool   `json:"is_abnormal"`
}

// Normalize replaces nil slices with empty ones so every list field
// serializes as a JSON array
func (d *StructuredDocument) Normalize() {
	d.Overview.Objectives = nonNil(d.Overview.Objectives)
	d.Overview.Sections = nonNilSections(d.Overview.Sections)
	d.Background.Sections = nonNilSections(d.Background.Sections)
	d.Findings.Sections = nonNilSections(d.Findings.Sections)
	d.CarePlan.Progression = nonNilSections(d.CarePlan.Progression)
	d.CarePlan.Documentation = nonNilSections(d.CarePlan.Documentation)
	d.CarePlan.Sections = nonNilSections(d.CarePlan.Sections)
	d.Instruction.EducationalNotes = nonNilSections(d.Instruction.EducationalNotes)
	d.Instruction.DebriefQuestions = nonNil(d.Instruction.DebriefQuestions)
	d.Instruction.Sections = nonNilSections(d.Instruction.Sections)

	if d.Findings.VitalSigns == nil {
		d.Findings.VitalSigns = []VitalSign{}
	}
	if d.Findings.LabResults == nil {
		d.Findings.LabResults = []LabResult{}
	}

	subject := &d.Background.Subject
	subject.PriorConditions = nonNil(subject.PriorConditions)
	subject.SubstanceUse = nonNil(subject.SubstanceUse)
	subject.FamilyHistory = nonNil(subject.FamilyHistory)
	if subject.Medications == nil {
		subject.Medications = []Medication{}
	}
	if subject.Allergies == nil {
		subject.Allergies = []Allergy{}
	}
	if subject.ExtractionPass == "" {
		subject.ExtractionPass = PassLabeled
	}
}

// SectionCount returns how many dynamic sections the document carries
func (d StructuredDocument) SectionCount() int {
	return len(d.Overview.Sections) + len(d.Background.Sections) + len(d.Findings.Sections) +
		len(d.CarePlan.Progression) + len(d.CarePlan.Documentation) + len(d.CarePlan.Sections) +
		len(d.Instruction.EducationalNotes) + len(d.Instruction.Sections)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSections(s []DynamicSection) []DynamicSection {
	if s == nil {
		return []DynamicSection{}
	}
	return s
}
