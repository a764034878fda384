// Package render turns chart aggregates into Mermaid chart definitions.
//
// Output is byte-for-byte deterministic for a given title and aggregate so
// an unchanged chart always produces the same block text.
package render

import (
	"strings"

	"chartsync/internal/core"
)

const (
	indent = "    "

	pieInit = "%%{init: {'theme':'default'}}%%\n"

	xyFrontMatter = "---\n" +
		"config:\n" +
		indent + "xyChart:\n" +
		indent + indent + "width: 1200\n" +
		indent + indent + "height: 600\n" +
		indent + "themeVariables:\n" +
		indent + indent + "xyChart:\n" +
		indent + indent + indent + "plotColorPalette: '#0000FF'\n" +
		"---\n"

	// YAxisLabel is the fixed label of the cumulative chart's value axis.
	YAxisLabel = "Balance in £"
)

// Pie renders a pie chart showing the slice values, one line per category
// in aggregate order.
func Pie(title string, agg core.PieAggregate) string {
	var b strings.Builder
	b.WriteString(pieInit)
	b.WriteString("pie showData title ")
	b.WriteString(title)
	b.WriteByte('\n')
	for _, s := range agg {
		b.WriteString(indent)
		b.WriteByte('"')
		b.WriteString(s.Label)
		b.WriteString(`": `)
		b.WriteString(core.FormatNumber(s.Value))
		b.WriteByte('\n')
	}
	return b.String()
}

// Line renders an xychart with one line series over the date keys.
func Line(title string, series core.Series) string {
	labels := make([]string, len(series))
	values := make([]string, len(series))
	for i, p := range series {
		labels[i] = `"` + AxisLabel(p.Key) + `"`
		values[i] = core.FormatNumber(p.Value)
	}

	var b strings.Builder
	b.WriteString(xyFrontMatter)
	b.WriteString(`xychart title "`)
	b.WriteString(title)
	b.WriteString("\"\n")
	b.WriteString(indent + "x-axis [")
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString("]\n")
	b.WriteString(indent + `y-axis "` + YAxisLabel + "\"\n")
	b.WriteString(indent + "line [")
	b.WriteString(strings.Join(values, ", "))
	b.WriteString("]\n")
	return b.String()
}

// AxisLabel abbreviates an ISO date key to two-digit year and month:
// "2024-03-01" becomes "24-03". Keys that are not dates are returned as is.
func AxisLabel(key string) string {
	parts := strings.SplitN(key, "-", 3)
	if len(parts) < 2 || len(parts[0]) < 3 {
		return key
	}
	return parts[0][2:] + "-" + parts[1]
}
