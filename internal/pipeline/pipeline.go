// Package pipeline drives the provider capability set over one raw
// batch: select an adapter, then parse, validate, convert in order.
package pipeline

import (
	"context"

	"github.com/okian/intake/internal/adapters/provider"
	"github.com/okian/intake/internal/domain/canonical"
)

// Result is the outcome of one successfully parsed batch.
type Result struct {
	// Records holds the canonical output, ordered by patient id and
	// then assessment type.
	Records []canonical.Record

	// Validation is informational: rows it flags are already excluded
	// from Records. Check it with IsError; it may be nil or an empty
	// aggregate, both meaning "no errors".
	Validation *canonical.Error
}

// Select maps a provider identifier to a freshly constructed adapter.
// The identifier set is closed; anything else is a KindUnknown error.
func Select(name string) (provider.Provider, *canonical.Error) {
	switch name {
	case "a":
		return provider.NewNestedJSON(), nil
	case "b":
		return provider.NewFlatJSON(), nil
	case "c":
		return provider.NewDelimited(), nil
	default:
		return nil, canonical.NewUnknownError("no provider with name: " + name)
	}
}

// Run executes one batch through p. A parse failure aborts immediately
// and is returned as the error; validation failures never stop the run,
// conversion proceeds and simply skips the flagged rows.
func Run(ctx context.Context, raw string, p provider.Provider) (Result, *canonical.Error) {
	if err := p.Parse(ctx, raw); err != nil {
		return Result{}, err
	}
	validation := p.Validate(ctx)
	return Result{
		Records:    p.Convert(ctx),
		Validation: validation,
	}, nil
}
