// Package medical defines the core clinical data model: encounters and
// their owned SOAP notes.
package medical

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EncounterType classifies how the clinician saw the patient.
type EncounterType string

const (
	OfficeVisit  EncounterType = "office_visit"
	Telehealth   EncounterType = "telehealth"
	FollowUp     EncounterType = "follow_up"
	Consultation EncounterType = "consultation"
)

// EncounterTypes returns all known encounter types for iteration.
func EncounterTypes() []EncounterType {
	return []EncounterType{OfficeVisit, Telehealth, FollowUp, Consultation}
}

// Valid reports whether the encounter type is one of the known values.
func (t EncounterType) Valid() bool {
	switch t {
	case OfficeVisit, Telehealth, FollowUp, Consultation:
		return true
	default:
		return false
	}
}

// DefaultPatientIDHash is the sentinel used when the caller supplies no
// pseudonymous patient identifier. Raw patient identifiers never appear
// in an encounter; only caller-supplied hashes do.
const DefaultPatientIDHash = "anonymous"

// Encounter is one clinician-patient interaction record, the unit of
// persistence. Its id is server-assigned and immutable once created.
type Encounter struct {
	ID                   string        `json:"id"`
	PhysicianID          string        `json:"physician_id"`
	PatientIDHash        string        `json:"patient_id_hash"`
	ChiefComplaint       string        `json:"chief_complaint"`
	EncounterType        EncounterType `json:"encounter_type"`
	EncounterDate        time.Time     `json:"encounter_date"`
	Transcription        string        `json:"transcription,omitempty"`
	AudioDurationSeconds int           `json:"audio_duration_seconds,omitempty"`
	SOAPNote             *SOAPNote     `json:"soap_note,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// SOAPNote is the structured clinical note owned by exactly one encounter.
// It is created in the same transaction as its encounter and never deleted
// independently.
//
// ICD10Codes and CPTCodes are transported as JSON-encoded arrays of strings
// inside a string field; use ParseCodes before display.
type SOAPNote struct {
	ID                string  `json:"id"`
	EncounterID       string  `json:"encounter_id"`
	Subjective        string  `json:"subjective,omitempty"`
	Objective         string  `json:"objective,omitempty"`
	Assessment        string  `json:"assessment,omitempty"`
	Plan              string  `json:"plan,omitempty"`
	ICD10Codes        string  `json:"icd10_codes,omitempty"`
	CPTCodes          string  `json:"cpt_codes,omitempty"`
	GeneratedBy       string  `json:"generated_by,omitempty"`
	CompletenessScore float64 `json:"completeness_score,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// EncodeCodes serializes an ordered code list into the wire/storage form.
func EncodeCodes(codes []string) (string, error) {
	if codes == nil {
		codes = []string{}
	}
	encoded, err := json.Marshal(codes)
	if err != nil {
		return "", fmt.Errorf("failed to encode code list: %w", err)
	}
	return string(encoded), nil
}

// ParseCodes decodes a JSON-encoded code list field. An empty field parses
// to an empty list.
func ParseCodes(field string) ([]string, error) {
	if strings.TrimSpace(field) == "" {
		return []string{}, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(field), &codes); err != nil {
		return nil, fmt.Errorf("failed to parse code list %q: %w", field, err)
	}
	return codes, nil
}

// EncounterDraft is the client-side submission payload for a new encounter.
// The draft is never mutated on a failed submission so retries reuse it as-is.
type EncounterDraft struct {
	PhysicianID          string        `json:"physician_id"`
	PatientIDHash        string        `json:"patient_id_hash"`
	ChiefComplaint       string        `json:"chief_complaint"`
	EncounterType        EncounterType `json:"encounter_type"`
	Transcription        string        `json:"transcription"`
	AudioDurationSeconds int           `json:"audio_duration_seconds,omitempty"`
	GenerateSOAP         bool          `json:"generate_soap"`
}

var (
	// ErrChiefComplaintRequired signals an empty chief complaint after trimming.
	ErrChiefComplaintRequired = errors.New("chief complaint is required")
	// ErrInvalidEncounterType signals an unknown encounter type value.
	ErrInvalidEncounterType = errors.New("invalid encounter type")
)

// Validate checks draft fields that must hold before any network call and
// fills defaults (patient hash sentinel, encounter type).
func (d *EncounterDraft) Validate() error {
	if strings.TrimSpace(d.ChiefComplaint) == "" {
		return ErrChiefComplaintRequired
	}
	if d.EncounterType == "" {
		d.EncounterType = OfficeVisit
	}
	if !d.EncounterType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEncounterType, d.EncounterType)
	}
	if d.PatientIDHash == "" {
		d.PatientIDHash = DefaultPatientIDHash
	}
	return nil
}
