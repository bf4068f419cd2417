package cli

import (
	"testing"
	"time"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{5, "5.00"},
		{19.999, "20.00"},
		{1234.5, "1,234.50"},
		{1_000_000, "1,000,000.00"},
		{-20, "-20.00"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.in); got != tt.want {
			t.Errorf("FormatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCompactAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12.5, "12.50"},
		{950, "950"},
		{1234, "1.2K"},
		{1_234_567, "1.2M"},
		{-1500, "-1.5K"},
	}
	for _, tt := range tests {
		if got := FormatCompactAmount(tt.in); got != tt.want {
			t.Errorf("FormatCompactAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4321, "-4,321"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(150, 100); got != "+50.00" {
		t.Errorf("FormatDelta(150, 100) = %q", got)
	}
	if got := FormatDelta(100, 150); got != "-50.00" {
		t.Errorf("FormatDelta(100, 150) = %q", got)
	}
}

func TestFormatDateRange(t *testing.T) {
	d := func(s string) time.Time {
		t.Helper()
		v, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}
	if got := FormatDateRange(d("2025-03-01"), d("2025-03-10")); got != "Mar 01 - Mar 10, 2025" {
		t.Errorf("same year = %q", got)
	}
	if got := FormatDateRange(d("2025-12-28"), d("2026-01-03")); got != "Dec 28, 2025 - Jan 03, 2026" {
		t.Errorf("across years = %q", got)
	}
	if got := FormatDateRange(time.Time{}, d("2026-01-03")); got != "-" {
		t.Errorf("zero start = %q", got)
	}
}

func TestFormatDays(t *testing.T) {
	if got := FormatDays(1); got != "1 day" {
		t.Errorf("FormatDays(1) = %q", got)
	}
	if got := FormatDays(0); got != "0 days" {
		t.Errorf("FormatDays(0) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Dinner", 10, "Dinner"},
		{"Street food tour", 8, "Street …"},
		{"Phở bò", 4, "Phở…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
