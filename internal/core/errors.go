package core

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaMismatch     = errors.New("schema mismatch")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrChartBlockNotFound = errors.New("chart block not found")
)

// SchemaMismatchError reports a record property whose representation is not
// the one the chart needs. Expected defaults to the measure representations.
type SchemaMismatchError struct {
	Property string
	Expected string
	Actual   string
}

func (e *SchemaMismatchError) Error() string {
	expected := e.Expected
	if expected == "" {
		expected = "number or formula"
	}
	return fmt.Sprintf("property %s must be a %s property, property type is %s", e.Property, expected, e.Actual)
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// UnknownCategoryError reports a record labelled outside the declared domain.
type UnknownCategoryError struct {
	Property string
	Label    string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("category %q of property %s is not a declared option", e.Label, e.Property)
}

func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrUnknownCategory
}

// ChartBlockNotFoundError reports that no code block carries the title.
type ChartBlockNotFoundError struct {
	Title string
}

func (e *ChartBlockNotFoundError) Error() string {
	return fmt.Sprintf("chart with title %s not found on page", e.Title)
}

func (e *ChartBlockNotFoundError) Is(target error) bool {
	return target == ErrChartBlockNotFound
}
