// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatAmount formats an amount with thousands separators and two decimals.
// Amounts carry no currency symbol.
// e.g., 1234.5 -> "1,234.50", -20 -> "-20.00"
func FormatAmount(amount float64) string {
	if amount < 0 {
		return "-" + FormatAmount(-amount)
	}
	cents := int64(math.Round(amount * 100))
	return fmt.Sprintf("%s.%02d", FormatNumber(cents/100), cents%100)
}

// FormatCompactAmount formats an amount with human-readable suffixes.
// e.g., 950 -> "950", 1234 -> "1.2K", 1234567 -> "1.2M"
func FormatCompactAmount(amount float64) string {
	if amount < 0 {
		return "-" + FormatCompactAmount(-amount)
	}

	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("%.1fM", amount/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("%.1fK", amount/1_000)
	case amount >= 100:
		return fmt.Sprintf("%.0f", amount)
	default:
		return fmt.Sprintf("%.2f", amount)
	}
}

// FormatDays formats a day count. e.g., 1 -> "1 day", 12 -> "12 days"
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 percentage value.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDelta formats an amount delta with an explicit sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatAmount(delta)
	}
	return "-" + FormatAmount(-delta)
}

// FormatDate formats a calendar date, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// FormatDateRange formats an inclusive trip date range.
// e.g., "Mar 01 - Mar 10, 2025", or "Dec 28, 2025 - Jan 03, 2026" across years.
func FormatDateRange(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return "-"
	}
	if start.Year() == end.Year() {
		return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	}
	return fmt.Sprintf("%s - %s", start.Format("Jan 02, 2006"), end.Format("Jan 02, 2006"))
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
