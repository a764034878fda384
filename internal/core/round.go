// Package core holds the chart domain: records and blocks as read from the
// external stores, aggregates, filters and the error taxonomy.
//
// This file contains the numeric conventions shared by reducers and renderers.
package core

import "strconv"

// Round2 rounds v to two decimal places.
//
// Rounding is decided on the exact binary value of v, and exact ties go to
// the even neighbour:
//
//	Round2(2.675) -> 2.67 (2.675 is stored as 2.67499999...)
//	Round2(0.125) -> 0.12 (exact tie, 2 is even)
//	Round2(0.375) -> 0.38 (exact tie, 8 is even)
//
// Negative zero is normalised to zero so it never renders as "-0".
func Round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	if r == 0 {
		return 0
	}
	return r
}

// FormatNumber prints v in its shortest decimal form: 15, 25.5, -3.25.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
