package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// PartialDate represents an ISO publication date with optional month/day,
// matching the data model's "year required, month/day optional" rule.
type PartialDate struct {
	Year  int // 0 means unknown
	Month int // 1-12, 0 means unspecified
	Day   int // 1-31, 0 means unspecified
}

// Unknown reports whether the date carries no year at all.
func (d PartialDate) Unknown() bool { return d.Year == 0 }

// Partial reports whether the date is unknown or missing month or day.
func (d PartialDate) Partial() bool { return d.Unknown() || d.Month == 0 || d.Day == 0 }

// EffectiveMonth returns Month, defaulting to January (1) when unset.
func (d PartialDate) EffectiveMonth() int {
	if d.Month == 0 {
		return 1
	}
	return d.Month
}

// EffectiveDay returns Day, defaulting to 1 when unset.
func (d PartialDate) EffectiveDay() int {
	if d.Day == 0 {
		return 1
	}
	return d.Day
}

func (d PartialDate) String() string {
	if d.Unknown() {
		return "unknown"
	}
	if d.Month == 0 {
		return fmt.Sprintf("%04d", d.Year)
	}
	if d.Day == 0 {
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseDate accepts year-only ("2023"), year-month ("2023-04" or "2023/04"),
// and year-month-day ("2023-04-17") forms. An empty string yields an unknown
// date, never an error — callers retain the article but mark it ineligible
// for recency scoring per the normalizer's mandatory-defaults rule.
func ParseDate(raw string) PartialDate {
	s := strings.TrimSpace(raw)
	if s == "" {
		return PartialDate{}
	}
	s = strings.NewReplacer("/", "-", ".", "-").Replace(s)
	parts := strings.SplitN(s, "-", 3)

	year, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || year <= 0 {
		return PartialDate{}
	}
	d := PartialDate{Year: year}
	if len(parts) >= 2 {
		if m, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil && m >= 1 && m <= 12 {
			d.Month = m
		}
	}
	if len(parts) >= 3 {
		dayStr := strings.TrimSpace(parts[2])
		// Trim any trailing time component ("17T00:00:00Z").
		if idx := strings.IndexByte(dayStr, 'T'); idx >= 0 {
			dayStr = dayStr[:idx]
		}
		if dd, err := strconv.Atoi(dayStr); err == nil && dd >= 1 && dd <= 31 && d.Month != 0 {
			d.Day = dd
		}
	}
	return d
}
