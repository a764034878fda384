package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chartsync/internal/core"
)

var dateLayouts = []string{core.DateLayout, "2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05"}

// parseRecords turns a values matrix into records. The first row holds the
// property names, blank rows are skipped and record IDs are A1 row refs.
// Columns named in categories always hold select options, so labels such as
// "2024" or "401" are not read as numbers.
func parseRecords(sheet string, values [][]any, categories columnSet) []core.Record {
	if len(values) == 0 {
		return nil
	}
	headers := toStrings(values[0])
	out := make([]core.Record, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := values[i]
		if blankRow(row) {
			continue
		}
		r := core.Record{
			ID:         fmt.Sprintf("%s!A%d", sheet, i+1),
			Properties: make(map[string]core.Property, len(headers)),
		}
		for col, name := range headers {
			if name == "" {
				continue
			}
			var cell any
			if col < len(row) {
				cell = row[col]
			}
			if categories.has(name) {
				r.Properties[name] = selectProperty(cell)
			} else {
				r.Properties[name] = inferProperty(cell)
			}
		}
		out = append(out, r)
	}
	return out
}

// inferProperty types a cell: numbers become number properties, ISO dates
// become date properties and anything else is a select option. Empty cells
// are unset selects.
func inferProperty(cell any) core.Property {
	switch v := cell.(type) {
	case float64:
		return core.NumberProperty(v)
	case int:
		return core.NumberProperty(float64(v))
	case int64:
		return core.NumberProperty(float64(v))
	}
	s := cellString(cell)
	if s == "" {
		return core.Property{Type: core.PropertySelect}
	}
	if f, ok := parseNumber(s); ok {
		return core.NumberProperty(f)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateProperty(t.Format(core.DateLayout))
		}
	}
	return core.SelectProperty(s)
}

func selectProperty(cell any) core.Property {
	s := cellString(cell)
	if s == "" {
		return core.Property{Type: core.PropertySelect}
	}
	return core.SelectProperty(s)
}

// columnSet holds header names compared case-insensitively.
type columnSet map[string]struct{}

func newColumnSet(names []string) columnSet {
	set := columnSet{}
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func (s columnSet) has(name string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// parseNumber reads plain decimals, an optional leading minus and currency
// sign, and grouped thousands in either "1,234.56" or "1.234,56" form. When
// both separators appear the last one is the decimal mark. A lone comma is a
// decimal mark unless exactly three digits follow it.
func parseNumber(s string) (float64, bool) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	s = strings.TrimSpace(strings.TrimLeft(s, "£€$"))

	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')
	var decimal, group byte
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			decimal, group = ',', '.'
		} else {
			decimal, group = '.', ','
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			group = ','
		} else {
			decimal = ','
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			group = '.'
		} else {
			decimal = '.'
		}
	}

	whole, frac := s, ""
	if decimal != 0 {
		i := strings.LastIndexByte(s, decimal)
		whole, frac = s[:i], s[i+1:]
		if frac == "" {
			return 0, false
		}
	}
	if group != 0 {
		groups := strings.Split(whole, string(group))
		for i, g := range groups {
			if i == 0 && (len(g) == 0 || len(g) > 3) || i > 0 && len(g) != 3 {
				return 0, false
			}
		}
		whole = strings.Join(groups, "")
	}
	if whole == "" && frac == "" || !allDigits(whole) || !allDigits(frac) {
		return 0, false
	}

	num := whole
	if frac != "" {
		num += "." + frac
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// columnValues returns the distinct non-empty values below the header named
// property. Values starting with # are comments.
func columnValues(values [][]any, property string) ([]string, bool) {
	if len(values) == 0 {
		return nil, false
	}
	col := indexOf(toStrings(values[0]), property)
	if col == -1 {
		return nil, false
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, row := range values[1:] {
		if col >= len(row) {
			continue
		}
		v := cellString(row[col])
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, true
}

func blankRow(row []any) bool {
	for _, v := range row {
		if cellString(v) != "" {
			return false
		}
	}
	return true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}
