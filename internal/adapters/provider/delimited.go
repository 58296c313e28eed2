package provider

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/intake/internal/domain/canonical"
)

const (
	delimName   = "c"
	delimSource = "provider_c"
	delimFormat = "csv"

	assessmentDateLayout = "2006-01-02"
	maxMetricValue       = 100
)

// Column names of the delimited feed.
const (
	delimPatientID = "patient_id"
	delimDate      = "assessment_date"
	delimMetric    = "metric_name"
	delimValue     = "metric_value"
	delimCategory  = "category"
)

// delimChecks is the per-column predicate table applied to every parsed
// row. A missing column reads as "" and fails its predicate.
var delimChecks = []struct {
	column string
	ok     func(string) bool
}{
	{delimPatientID, notEmpty},
	{delimDate, validAssessmentDate},
	{delimMetric, notEmpty},
	{delimValue, validMetricValue},
	{delimCategory, notEmpty},
}

func notEmpty(v string) bool { return v != "" }

func validAssessmentDate(v string) bool {
	_, err := time.Parse(assessmentDateLayout, v)
	return err == nil
}

func validMetricValue(v string) bool {
	n, err := strconv.ParseInt(v, 10, 64)
	return err == nil && n >= 0 && n <= maxMetricValue
}

type delimRow map[string]string

// Delimited ingests provider C batches: header-first delimited text
// where each row carries a single metric already on the 0-100 scale.
type Delimited struct {
	rows    []delimRow
	badRows map[int]struct{}
}

// NewDelimited constructs a fresh batch-scoped adapter.
func NewDelimited() *Delimited {
	return &Delimited{badRows: make(map[int]struct{})}
}

func (p *Delimited) Name() string { return delimName }

func (p *Delimited) Metadata() map[string]string {
	return metadataBlock(delimSource, delimFormat)
}

func (p *Delimited) Parse(_ context.Context, raw string) *canonical.Error {
	r := csv.NewReader(strings.NewReader(raw))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return canonical.NewParseError("missing header row")
	}

	var rows []delimRow
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, csv.ErrFieldCount) {
			return canonical.NewParseError("field count does not match header count")
		}
		if err != nil {
			return canonical.NewParseError(err.Error())
		}
		row := make(delimRow, len(header))
		for i, value := range fields {
			row[strings.TrimSpace(header[i])] = strings.TrimSpace(value)
		}
		rows = append(rows, row)
	}
	p.rows = rows
	p.badRows = make(map[int]struct{})
	return nil
}

func (p *Delimited) Validate(_ context.Context) *canonical.Error {
	p.badRows = make(map[int]struct{})
	var failed []*canonical.Error
	for i, row := range p.rows {
		for _, check := range delimChecks {
			if !check.ok(row[check.column]) {
				failed = append(failed, canonical.NewValidateError("invalid "+check.column, i))
				p.badRows[i] = struct{}{}
				break
			}
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return canonical.NewAggregateError(failed...)
}

func (p *Delimited) Convert(_ context.Context) []canonical.Record {
	meta := p.Metadata()
	now := time.Now().UTC()
	groups := newGrouping()
	for i, row := range p.rows {
		if _, bad := p.badRows[i]; bad {
			continue
		}
		// This feed carries its own assessment date; records keep the
		// date of the first row that created the group.
		date := now
		if t, err := time.Parse(assessmentDateLayout, row[delimDate]); err == nil {
			date = t.UTC()
		}
		rec := groups.record(row[delimPatientID], row[delimCategory], date, meta)
		value, _ := strconv.ParseInt(row[delimValue], 10, 64)
		rec.Scores = append(rec.Scores, canonical.Score{
			Dimension: row[delimMetric],
			Value:     value,
			Scale:     canonical.Scale100,
		})
	}
	return groups.records()
}
