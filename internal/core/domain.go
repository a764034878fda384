package core

// Block and property type tags as reported by the content store.
const (
	BlockTypeCode = "code"

	PropertyNumber  PropertyType = "number"
	PropertyFormula PropertyType = "formula"
	PropertySelect  PropertyType = "select"
	PropertyDate    PropertyType = "date"
)

type (
	PropertyType string

	// Block is a node of the external content tree. Text is only
	// populated for code blocks.
	Block struct {
		ID          string
		Type        string
		HasChildren bool
		Text        string
	}

	// Record is one row of an external data source, keyed by property name.
	Record struct {
		ID         string
		Properties map[string]Property
	}

	// Property is the loosely typed value of a record column. Exactly one of
	// the pointer fields matching Type is expected to be set.
	Property struct {
		Type    PropertyType
		Number  *float64
		Formula *Formula
		Select  *string
		Date    *DateValue
	}

	// Formula holds a computed value. Only numeric results carry Number.
	Formula struct {
		Type   string
		Number *float64
	}

	// DateValue is an ISO 8601 date or date-time; End is optional.
	DateValue struct {
		Start string
		End   string
	}
)

// IsCode reports whether the block can carry chart text.
func (b Block) IsCode() bool {
	return b.Type == BlockTypeCode
}

// NumberProperty returns a plain numeric property.
func NumberProperty(v float64) Property {
	return Property{Type: PropertyNumber, Number: &v}
}

// FormulaProperty returns a computed property with a numeric result.
func FormulaProperty(v float64) Property {
	return Property{Type: PropertyFormula, Formula: &Formula{Type: "number", Number: &v}}
}

// SelectProperty returns a single-select property.
func SelectProperty(name string) Property {
	return Property{Type: PropertySelect, Select: &name}
}

// DateProperty returns a date property starting at start.
func DateProperty(start string) Property {
	return Property{Type: PropertyDate, Date: &DateValue{Start: start}}
}
