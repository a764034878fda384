// Package aggregate reduces data source records into chart aggregates.
package aggregate

import (
	"chartsync/internal/core"
)

// MeasureKind tells which representation a measure was resolved from.
type MeasureKind int

const (
	Direct MeasureKind = iota + 1
	Computed
)

// Measure is the numeric value of a record, either stored directly or
// computed by a formula.
type Measure struct {
	Kind  MeasureKind
	Value float64
}

// ResolveMeasure reads the numeric measure stored under property.
// Anything other than a number or a numeric formula is a schema mismatch.
func ResolveMeasure(r core.Record, property string) (Measure, error) {
	p, ok := r.Properties[property]
	if !ok {
		return Measure{}, &core.SchemaMismatchError{Property: property, Actual: "missing"}
	}
	switch p.Type {
	case core.PropertyNumber:
		if p.Number == nil {
			return Measure{}, &core.SchemaMismatchError{Property: property, Actual: "empty number"}
		}
		return Measure{Kind: Direct, Value: *p.Number}, nil
	case core.PropertyFormula:
		if p.Formula == nil || p.Formula.Number == nil {
			actual := "formula"
			if p.Formula != nil && p.Formula.Type != "" {
				actual = "formula(" + p.Formula.Type + ")"
			}
			return Measure{}, &core.SchemaMismatchError{Property: property, Actual: actual}
		}
		return Measure{Kind: Computed, Value: *p.Formula.Number}, nil
	default:
		return Measure{}, &core.SchemaMismatchError{Property: property, Actual: string(p.Type)}
	}
}

// Value is ResolveMeasure without the representation tag.
func Value(r core.Record, property string) (float64, error) {
	m, err := ResolveMeasure(r, property)
	if err != nil {
		return 0, err
	}
	return m.Value, nil
}

// CategoryLabel reads the single-select option name stored under property.
// An unset select yields an empty label, which no domain declares.
func CategoryLabel(r core.Record, property string) (string, error) {
	p, ok := r.Properties[property]
	if !ok {
		return "", &core.SchemaMismatchError{Property: property, Expected: "select", Actual: "missing"}
	}
	if p.Type != core.PropertySelect {
		return "", &core.SchemaMismatchError{Property: property, Expected: "select", Actual: string(p.Type)}
	}
	if p.Select == nil {
		return "", nil
	}
	return *p.Select, nil
}

// DateKey reads the start of the date stored under property.
func DateKey(r core.Record, property string) (string, error) {
	p, ok := r.Properties[property]
	if !ok {
		return "", &core.SchemaMismatchError{Property: property, Expected: "date", Actual: "missing"}
	}
	if p.Type != core.PropertyDate {
		return "", &core.SchemaMismatchError{Property: property, Expected: "date", Actual: string(p.Type)}
	}
	if p.Date == nil || p.Date.Start == "" {
		return "", &core.SchemaMismatchError{Property: property, Expected: "date", Actual: "empty date"}
	}
	return p.Date.Start, nil
}
