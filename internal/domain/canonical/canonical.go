// Package canonical contains the provider-agnostic assessment record
// types shared by every adapter and the pipeline.
package canonical

import (
	"maps"
	"time"
)

// Scale100 is the only scale canonical score values are expressed on.
const Scale100 = "0-100"

// Score is one normalized measurement for a single dimension.
type Score struct {
	Dimension string `json:"dimension"`
	Value     int64  `json:"value"`
	Scale     string `json:"scale"`
}

// Record is the unified representation of one assessment for one
// patient. Field order matches the persisted output contract.
type Record struct {
	PatientID      string            `json:"patientId"`
	AssessmentDate string            `json:"assessmentDate"`
	AssessmentType string            `json:"assessmentType"`
	Scores         []Score           `json:"scores"`
	Metadata       map[string]string `json:"metadata"`
}

// NewRecord creates an empty record for one (patient, assessment type)
// pair. Scores are appended later by the adapter's convert step. The
// metadata map is copied so records never share mutable state.
func NewRecord(patientID, assessmentType string, date time.Time, metadata map[string]string) *Record {
	return &Record{
		PatientID:      patientID,
		AssessmentDate: date.Format(time.RFC3339),
		AssessmentType: assessmentType,
		Scores:         []Score{},
		Metadata:       maps.Clone(metadata),
	}
}
