package core

import "testing"

func TestRound2(t *testing.T) {
	cases := []struct {
		in  float64
		out float64
	}{
		{15, 15},
		{1.234, 1.23},
		{1.236, 1.24},
		{2.675, 2.67}, // stored below the tie
		{0.125, 0.12}, // exact tie, even neighbour
		{0.375, 0.38}, // exact tie, even neighbour
		{-1.005, -1},  // stored as -1.00499...
		{-0.001, 0},
		{0.1 + 0.2, 0.3},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.out {
			t.Fatalf("Round2(%v) expected %v, got %v", tc.in, tc.out, got)
		}
	}
}

func TestRound2NeverNegativeZero(t *testing.T) {
	if got := FormatNumber(Round2(-0.004)); got != "0" {
		t.Fatalf("expected 0, got %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{0, "0"},
		{15, "15"},
		{25.5, "25.5"},
		{-3.25, "-3.25"},
		{1234567.89, "1234567.89"},
	}
	for _, tc := range cases {
		if got := FormatNumber(tc.in); got != tc.out {
			t.Fatalf("FormatNumber(%v) expected %q, got %q", tc.in, tc.out, got)
		}
	}
}
