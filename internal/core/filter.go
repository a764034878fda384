package core

// Filter is a record predicate. It serialises to the content store's JSON
// filter format and can also be evaluated locally by backends that cannot
// push it down. A nil or empty Filter matches every record.
type Filter struct {
	And      []Filter         `json:"and,omitempty" yaml:"and,omitempty"`
	Or       []Filter         `json:"or,omitempty" yaml:"or,omitempty"`
	Property string           `json:"property,omitempty" yaml:"property,omitempty"`
	Date     *DateCondition   `json:"date,omitempty" yaml:"date,omitempty"`
	Select   *SelectCondition `json:"select,omitempty" yaml:"select,omitempty"`
}

// DateCondition compares calendar dates (YYYY-MM-DD). Set fields are ANDed.
type DateCondition struct {
	Equals     string `json:"equals,omitempty" yaml:"equals,omitempty"`
	Before     string `json:"before,omitempty" yaml:"before,omitempty"`
	After      string `json:"after,omitempty" yaml:"after,omitempty"`
	OnOrBefore string `json:"on_or_before,omitempty" yaml:"on_or_before,omitempty"`
	OnOrAfter  string `json:"on_or_after,omitempty" yaml:"on_or_after,omitempty"`
}

// SelectCondition compares a single-select option name.
type SelectCondition struct {
	Equals       string `json:"equals,omitempty" yaml:"equals,omitempty"`
	DoesNotEqual string `json:"does_not_equal,omitempty" yaml:"does_not_equal,omitempty"`
}

// IsZero reports whether the filter has no conditions at all.
func (f *Filter) IsZero() bool {
	return f == nil || (len(f.And) == 0 && len(f.Or) == 0 && f.Property == "")
}

// Match evaluates the filter against r.
func (f *Filter) Match(r Record) bool {
	if f.IsZero() {
		return true
	}
	for i := range f.And {
		if !f.And[i].Match(r) {
			return false
		}
	}
	if len(f.Or) > 0 {
		matched := false
		for i := range f.Or {
			if f.Or[i].Match(r) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if f.Property == "" {
		return true
	}
	p, ok := r.Properties[f.Property]
	if !ok {
		return false
	}
	if f.Date != nil && !f.Date.match(p) {
		return false
	}
	if f.Select != nil && !f.Select.match(p) {
		return false
	}
	return true
}

func (c *DateCondition) match(p Property) bool {
	if p.Date == nil || p.Date.Start == "" {
		return false
	}
	d := p.Date.Start
	if len(d) > len(DateLayout) {
		d = d[:len(DateLayout)]
	}
	switch {
	case c.Equals != "" && d != c.Equals:
		return false
	case c.Before != "" && d >= c.Before:
		return false
	case c.After != "" && d <= c.After:
		return false
	case c.OnOrBefore != "" && d > c.OnOrBefore:
		return false
	case c.OnOrAfter != "" && d < c.OnOrAfter:
		return false
	}
	return true
}

func (c *SelectCondition) match(p Property) bool {
	name := ""
	if p.Select != nil {
		name = *p.Select
	}
	if c.Equals != "" && name != c.Equals {
		return false
	}
	if c.DoesNotEqual != "" && name == c.DoesNotEqual {
		return false
	}
	return true
}
