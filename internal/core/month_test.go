package core

import (
	"testing"
	"time"
)

func TestParseMonthKey(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-03", true},
		{"2024-12", true},
		{"1999-01", true},
		{"2024-3", false},
		{"2024-13", false},
		{"2024-00", false},
		{"24-03", false},
		{"2024/03", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseMonthKey(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMonthKeyArithmetic(t *testing.T) {
	if got := MonthOf(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)); got != "2024-03" {
		t.Fatalf("MonthOf = %q", got)
	}
	cases := []struct {
		from MonthKey
		n    int
		want MonthKey
	}{
		{"2024-03", 1, "2024-04"},
		{"2024-12", 1, "2025-01"},
		{"2024-01", -1, "2023-12"},
		{"2024-06", 18, "2025-12"},
		{"bogus", 1, "bogus"},
	}
	for _, tc := range cases {
		if got := tc.from.AddMonths(tc.n); got != tc.want {
			t.Fatalf("%q.AddMonths(%d) = %q, want %q", tc.from, tc.n, got, tc.want)
		}
	}
}

func TestMonthKeyLabels(t *testing.T) {
	if got := MonthKey("2024-03").Label(); got != "Março 2024" {
		t.Fatalf("Label = %q", got)
	}
	if got := MonthKey("2024-01").ShortName(); got != "Jan" {
		t.Fatalf("ShortName = %q", got)
	}
	if got := MonthKey("nope").Label(); got != "nope" {
		t.Fatalf("invalid key label = %q", got)
	}
	if got := FormatDate(time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)); got != "05/02/2024" {
		t.Fatalf("FormatDate = %q", got)
	}
}
