package provider

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/okian/intake/internal/domain/canonical"
)

const (
	flatName   = "b"
	flatSource = "provider_b"
	flatFormat = "flat_key_value"

	scorePrefix = "score_"
)

// Column names of the flat key/value feed.
const (
	flatPatientID   = "patient_id"
	flatPatientName = "patient_name"
	flatType        = "assessment_type"
	flatNotes       = "notes"
)

// Fields every flat row must carry with a string value.
var flatStringFields = []string{flatPatientID, flatPatientName, flatType, flatNotes}

// flatRow is one parsed object. Numbers are kept as json.Number so the
// integer check can reject fractional score values.
type flatRow map[string]any

func (r flatRow) str(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

func (r flatRow) score(key string) (int64, bool) {
	n, ok := r[key].(json.Number)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	return v, err == nil
}

// scoreKeys returns the row's score-bearing field names in sorted order.
func (r flatRow) scoreKeys() []string {
	var keys []string
	for key := range r {
		if strings.HasPrefix(key, scorePrefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

func (r flatRow) valid() bool {
	for _, key := range flatStringFields {
		if _, ok := r.str(key); !ok {
			return false
		}
	}
	for _, key := range r.scoreKeys() {
		if _, ok := r.score(key); !ok {
			return false
		}
	}
	return true
}

// FlatJSON ingests provider B batches: a JSON array of flat key/value
// objects where any field prefixed "score_" carries a 0-10 score.
type FlatJSON struct {
	rows    []flatRow
	badRows map[int]struct{}
}

// NewFlatJSON constructs a fresh batch-scoped adapter.
func NewFlatJSON() *FlatJSON {
	return &FlatJSON{badRows: make(map[int]struct{})}
}

func (p *FlatJSON) Name() string { return flatName }

func (p *FlatJSON) Metadata() map[string]string {
	return metadataBlock(flatSource, flatFormat)
}

func (p *FlatJSON) Parse(_ context.Context, raw string) *canonical.Error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var rows []flatRow
	if err := dec.Decode(&rows); err != nil {
		return canonical.NewParseError(err.Error())
	}
	p.rows = rows
	p.badRows = make(map[int]struct{})
	return nil
}

func (p *FlatJSON) Validate(_ context.Context) *canonical.Error {
	p.badRows = make(map[int]struct{})
	var failed []*canonical.Error
	for i, row := range p.rows {
		if !row.valid() {
			failed = append(failed, canonical.NewValidateError("missing or mistyped field", i))
			p.badRows[i] = struct{}{}
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return canonical.NewAggregateError(failed...)
}

func (p *FlatJSON) Convert(_ context.Context) []canonical.Record {
	meta := p.Metadata()
	now := time.Now().UTC()
	groups := newGrouping()
	for i, row := range p.rows {
		if _, bad := p.badRows[i]; bad {
			continue
		}
		patientID, _ := row.str(flatPatientID)
		assessmentType, _ := row.str(flatType)
		rec := groups.record(patientID, assessmentType, now, meta)
		for _, key := range row.scoreKeys() {
			value, _ := row.score(key)
			rec.Scores = append(rec.Scores, canonical.Score{
				Dimension: strings.TrimPrefix(key, scorePrefix),
				Value:     value * scaleTenTo100,
				Scale:     canonical.Scale100,
			})
		}
	}
	return groups.records()
}
