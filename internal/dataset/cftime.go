package dataset

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const natValue = math.MinInt64

var cfUnits = map[string]time.Duration{
	"days": 24 * time.Hour, "day": 24 * time.Hour, "d": 24 * time.Hour,
	"hours": time.Hour, "hour": time.Hour, "hr": time.Hour, "h": time.Hour,
	"minutes": time.Minute, "minute": time.Minute, "min": time.Minute,
	"seconds": time.Second, "second": time.Second, "sec": time.Second, "s": time.Second,
	"milliseconds": time.Millisecond, "millisecond": time.Millisecond, "ms": time.Millisecond,
	"microseconds": time.Microsecond, "microsecond": time.Microsecond, "us": time.Microsecond,
	"nanoseconds": time.Nanosecond, "nanosecond": time.Nanosecond, "ns": time.Nanosecond,
}

var referenceLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 Z07:00",
	"2006-01-02 15:04:05.999999999 -0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-1-2 15:04:05",
	"2006-1-2",
}

// parseCFUnits parses CF time units such as "seconds since 1970-01-01".
func parseCFUnits(units string) (time.Duration, time.Time, error) {
	unitName, refText, ok := strings.Cut(strings.TrimSpace(units), " since ")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("units %q are not of the form \"<unit> since <reference>\"", units)
	}
	unit, ok := cfUnits[strings.ToLower(strings.TrimSpace(unitName))]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("unknown time unit %q", unitName)
	}
	refText = strings.TrimSpace(refText)
	refText = strings.TrimSuffix(refText, " UTC")
	for _, layout := range referenceLayouts {
		if ref, err := time.Parse(layout, refText); err == nil {
			return unit, ref.UTC(), nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("cannot parse reference time %q", refText)
}

// datetimeUnit maps a datetime64 resolution to a duration.
func datetimeUnit(u string) (time.Duration, error) {
	switch u {
	case "ns":
		return time.Nanosecond, nil
	case "us":
		return time.Microsecond, nil
	case "ms":
		return time.Millisecond, nil
	case "s":
		return time.Second, nil
	case "m":
		return time.Minute, nil
	case "h":
		return time.Hour, nil
	case "D":
		return 24 * time.Hour, nil
	case "W":
		return 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported datetime64 unit %q", u)
}

func standardCalendar(cal string) bool {
	switch strings.ToLower(cal) {
	case "", "standard", "gregorian", "proleptic_gregorian":
		return true
	}
	return false
}

const (
	day = 24 * time.Hour
	// maxOffsetDays keeps decoded times within roughly ten thousand years of
	// the reference.
	maxOffsetDays = 3_660_000
)

func decodeOffsets(name string, vals *values, unit time.Duration, ref time.Time) ([]time.Time, error) {
	if vals.floats != nil {
		out := make([]time.Time, len(vals.floats))
		for i, x := range vals.floats {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("%q: element %d is not a finite time offset", name, i)
			}
			t, ok := addFloatOffset(ref, x, unit)
			if !ok {
				return nil, fmt.Errorf("%q: element %d (%g) is out of range", name, i, x)
			}
			out[i] = t
		}
		return out, nil
	}
	out := make([]time.Time, len(vals.ints))
	for i, x := range vals.ints {
		if x == natValue {
			return nil, fmt.Errorf("%q: element %d is NaT", name, i)
		}
		t, ok := addIntOffset(ref, x, unit)
		if !ok {
			return nil, fmt.Errorf("%q: element %d (%d) is out of range", name, i, x)
		}
		out[i] = t
	}
	return out, nil
}

// addIntOffset adds x units to ref in whole days plus a sub-day remainder so
// the product never overflows a time.Duration.
func addIntOffset(ref time.Time, x int64, unit time.Duration) (time.Time, bool) {
	if unit >= day {
		perUnit := int64(unit / day)
		if x > maxOffsetDays/perUnit || x < -maxOffsetDays/perUnit {
			return time.Time{}, false
		}
		return addDays(ref, x*perUnit, 0)
	}
	perDay := int64(day / unit)
	return addDays(ref, x/perDay, time.Duration(x%perDay)*unit)
}

func addFloatOffset(ref time.Time, x float64, unit time.Duration) (time.Time, bool) {
	whole, frac := math.Modf(x)
	if math.Abs(whole) >= math.MaxInt64 {
		return time.Time{}, false
	}
	t, ok := addIntOffset(ref, int64(whole), unit)
	if !ok {
		return time.Time{}, false
	}
	return t.Add(time.Duration(math.Round(frac * float64(unit)))), true
}

func addDays(ref time.Time, days int64, rest time.Duration) (time.Time, bool) {
	if days > maxOffsetDays || days < -maxOffsetDays {
		return time.Time{}, false
	}
	t := ref.AddDate(0, 0, int(days)).Add(rest)
	if t.Year() < 1 || t.Year() > 9999 {
		return time.Time{}, false
	}
	return t, true
}
