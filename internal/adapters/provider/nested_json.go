package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/okian/intake/internal/domain/canonical"
)

const (
	nestedName   = "a"
	nestedSource = "provider_a"
	nestedFormat = "nested_json"

	dobLayout = "20060102"
)

// dob is a lenient date-of-birth field: text that does not match the
// YYYYMMDD layout is treated as absent rather than failing the row.
type dob struct {
	value time.Time
	valid bool
}

func (d *dob) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(dobLayout, s)
	if err != nil {
		return nil
	}
	d.value = t
	d.valid = true
	return nil
}

type nestedPatient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	DOB  dob    `json:"dob"`
}

type nestedAssessment struct {
	Type   string           `json:"type"`
	Scores map[string]int64 `json:"scores"`
	Notes  string           `json:"notes"`
}

type nestedRow struct {
	Patient    nestedPatient    `json:"patient"`
	Assessment nestedAssessment `json:"assessment"`
}

// empty reports whether every significant field of the row is absent.
// This is the only condition that invalidates a nested row.
func (r nestedRow) empty() bool {
	return r.Patient.ID == "" &&
		r.Patient.Name == "" &&
		!r.Patient.DOB.valid &&
		r.Assessment.Type == "" &&
		len(r.Assessment.Scores) == 0 &&
		r.Assessment.Notes == ""
}

// NestedJSON ingests provider A batches: a JSON array of structured
// patient+assessment objects with dimension scores on a 0-10 scale.
type NestedJSON struct {
	rows    []nestedRow
	badRows map[int]struct{}
}

// NewNestedJSON constructs a fresh batch-scoped adapter.
func NewNestedJSON() *NestedJSON {
	return &NestedJSON{badRows: make(map[int]struct{})}
}

func (p *NestedJSON) Name() string { return nestedName }

func (p *NestedJSON) Metadata() map[string]string {
	return metadataBlock(nestedSource, nestedFormat)
}

func (p *NestedJSON) Parse(_ context.Context, raw string) *canonical.Error {
	var rows []nestedRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return canonical.NewParseError(err.Error())
	}
	p.rows = rows
	p.badRows = make(map[int]struct{})
	return nil
}

func (p *NestedJSON) Validate(_ context.Context) *canonical.Error {
	p.badRows = make(map[int]struct{})
	var failed []*canonical.Error
	for i, row := range p.rows {
		if row.empty() {
			failed = append(failed, canonical.NewValidateError("row has no data", i))
			p.badRows[i] = struct{}{}
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return canonical.NewAggregateError(failed...)
}

func (p *NestedJSON) Convert(_ context.Context) []canonical.Record {
	meta := p.Metadata()
	now := time.Now().UTC()
	groups := newGrouping()
	for i, row := range p.rows {
		if _, bad := p.badRows[i]; bad {
			continue
		}
		rec := groups.record(row.Patient.ID, row.Assessment.Type, now, meta)
		for _, dimension := range sortedKeys(row.Assessment.Scores) {
			rec.Scores = append(rec.Scores, canonical.Score{
				Dimension: dimension,
				Value:     row.Assessment.Scores[dimension] * scaleTenTo100,
				Scale:     canonical.Scale100,
			})
		}
	}
	return groups.records()
}
