// Package provider contains the per-source adapters that translate raw
// provider batches into canonical assessment records.
package provider

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/okian/intake/internal/domain/canonical"
)

// sortedKeys returns the keys of m in ascending order. It is the
// pre-Go-1.23 equivalent of slices.Sorted(maps.Keys(m)).
func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Multiplier applied by adapters whose native score range is 0-10.
const scaleTenTo100 = 10

// Value reported for the canonical format version in every metadata block.
const metadataVersion = "1.0"

// Provider is the capability set every source adapter implements.
//
// An instance is batch-scoped: Parse replaces any previously parsed
// rows, Validate flags invalid rows by ordinal index, and Convert skips
// every row flagged by the most recent Validate call. The pipeline is
// the single call site sequencing the three phases. Instances are not
// safe for concurrent use; construct one per input batch.
type Provider interface {
	// Name returns the provider identifier used for dispatch and
	// metrics labels.
	Name() string

	// Metadata returns the provenance block stamped onto every record:
	// sourceProvider, sourceFormat, ingestedAt (fresh per call), version.
	Metadata() map[string]string

	// Parse deserializes raw into the adapter's row storage. It returns
	// a KindParse error when raw does not match the expected structure.
	// No validation happens here.
	Parse(ctx context.Context, raw string) *canonical.Error

	// Validate scans all parsed rows in order. It returns nil when every
	// row passes, otherwise a KindAggregate error with one KindValidate
	// entry per failing row in ascending row order. The internal error
	// index is cleared at entry, so repeated calls do not accumulate.
	Validate(ctx context.Context) *canonical.Error

	// Convert groups the surviving rows into canonical records, ordered
	// lexicographically by patient id and then by assessment type.
	Convert(ctx context.Context) []canonical.Record
}

// metadataBlock builds the provenance block shared by all adapters.
func metadataBlock(sourceProvider, sourceFormat string) map[string]string {
	return map[string]string{
		"sourceProvider": sourceProvider,
		"sourceFormat":   sourceFormat,
		"ingestedAt":     time.Now().UTC().Format(time.RFC3339),
		"version":        metadataVersion,
	}
}

// grouping collapses rows into one record per (patient, assessment
// type) pair. The first row seen for a pair creates the record; later
// rows only append scores to it.
type grouping struct {
	perPatient map[string]map[string]*canonical.Record
}

func newGrouping() *grouping {
	return &grouping{perPatient: make(map[string]map[string]*canonical.Record)}
}

// record returns the record for the pair, creating it on first sight
// with the given date and metadata.
func (g *grouping) record(patientID, assessmentType string, date time.Time, metadata map[string]string) *canonical.Record {
	assessments, ok := g.perPatient[patientID]
	if !ok {
		assessments = make(map[string]*canonical.Record)
		g.perPatient[patientID] = assessments
	}
	rec, ok := assessments[assessmentType]
	if !ok {
		rec = canonical.NewRecord(patientID, assessmentType, date, metadata)
		assessments[assessmentType] = rec
	}
	return rec
}

// records emits all accumulated records sorted by patient id, then by
// assessment type. Output order never depends on input order.
func (g *grouping) records() []canonical.Record {
	out := make([]canonical.Record, 0, len(g.perPatient))
	for _, patientID := range sortedKeys(g.perPatient) {
		assessments := g.perPatient[patientID]
		for _, assessmentType := range sortedKeys(assessments) {
			out = append(out, *assessments[assessmentType])
		}
	}
	return out
}
