package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout lists are tried in order. Day-first comes before month-first
// because every carrier export writes dates day-first.
var (
	dateTimeLayouts = []string{
		"2006-1-2 15:04:05",
		"2006-1-2T15:04:05",
		"2006-1-2 15:04",
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
		"2/1/2006 3:04:05 PM",
		"2/1/2006 3:04 PM",
		"2-1-2006 15:04:05",
		"2-1-2006 15:04",
		"2/1/06 15:04:05",
		"2/1/06 15:04",
		"2-Jan-2006 15:04:05",
		"2-Jan-06 15:04:05",
		"2/Jan/2006 15:04:05",
		"2006/1/2 15:04:05",
		"1/2/2006 15:04:05",
		"20060102150405",
	}
	dateLayouts = []string{
		"2/1/2006",
		"2-1-2006",
		"2006-1-2",
		"2006/1/2",
		"2/1/06",
		"2-1-06",
		"2-Jan-2006",
		"2/Jan/2006",
		"2 Jan 2006",
		"2-Jan-06",
		"2/Jan/06",
		"Jan 2, 2006",
		"20060102",
		"1/2/2006",
		"1-2-2006",
	}
	clockLayouts = []string{
		"15:04:05",
		"15:04",
		"3:04:05 PM",
		"3:04 PM",
		"3:04:05PM",
		"3:04PM",
	}
	sixDigits  = regexp.MustCompile(`^\d{6}$`)
	fourDigits = regexp.MustCompile(`^\d{4}$`)
)

func clean(s string) string { return strings.Trim(strings.TrimSpace(s), "'\"` ") }

func parseAny(layouts []string, s string) (time.Time, bool) {
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDate(s string) (time.Time, bool) {
	s = strings.ReplaceAll(s, ".", "/")
	if t, ok := parseAny(dateLayouts, s); ok {
		return t, true
	}
	if t, ok := parseAny(dateTimeLayouts, strings.ToUpper(s)); ok {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// parseClock returns the offset from midnight.
func parseClock(s string) (time.Duration, bool) {
	s = strings.ToUpper(s)
	t, ok := parseAny(clockLayouts, s)
	if !ok {
		switch {
		case sixDigits.MatchString(s):
			t, ok = parseAny([]string{"150405"}, s)
		case fourDigits.MatchString(s):
			t, ok = parseAny([]string{"1504"}, s)
		}
	}
	if !ok {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, true
}

// ParseTimestamp combines a date cell and an optional time cell into a
// timezone-naive instant (UTC location). A date cell that already holds a
// time of day is accepted when the time cell is empty.
func ParseTimestamp(date, clock string) (time.Time, bool) {
	d, c := clean(date), clean(clock)
	if d == "" {
		return time.Time{}, false
	}
	if c == "" {
		if t, ok := parseAny(dateTimeLayouts, strings.ToUpper(strings.ReplaceAll(d, ".", "/"))); ok {
			return t, true
		}
		return parseDate(d)
	}
	day, ok := parseDate(d)
	if !ok {
		return time.Time{}, false
	}
	off, ok := parseClock(c)
	if !ok {
		return time.Time{}, false
	}
	return day.Add(off), true
}

// ParseDuration reads whole seconds from plain integers, h:m:s, m:s or
// decimal values. ok is false for empty, malformed, negative or non-finite
// input and for values that do not fit in int64.
func ParseDuration(s string) (int64, bool) {
	s = clean(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	if parts := strings.Split(s, ":"); len(parts) == 2 || len(parts) == 3 {
		var total int64
		for _, p := range parts {
			n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
			if err != nil || n < 0 || total > (math.MaxInt64-n)/60 {
				return 0, false
			}
			total = total*60 + n
		}
		return total, true
	}
	f, err := strconv.ParseFloat(s, 64)
	// ParseFloat also accepts nan, inf and exponents out of int64 range.
	if err != nil || math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
