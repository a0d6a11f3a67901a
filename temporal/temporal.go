// Package temporal classifies event times into day and night.
package temporal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

const day = 24 * 60 * 60

// Clock is a time of day in seconds since midnight.
type Clock int

func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, errors.Errorf("clock %q: want HH:MM or HH:MM:SS", s)
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, errors.Errorf("clock %q: bad field %q", s, p)
		}
		n[i] = v
	}
	if n[1] > 59 || n[2] > 59 {
		return 0, errors.Errorf("clock %q out of range", s)
	}
	c := Clock(n[0]*3600 + n[1]*60 + n[2])
	if c > day {
		return 0, errors.Errorf("clock %q out of range", s)
	}
	return c, nil
}

func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/3600, int(c)%3600/60)
}

// Window is the half-open interval [Start, End) of the day. End before
// Start wraps past midnight; Start equal to End is empty.
type Window struct {
	Start, End Clock
}

// ParseWindow reads "HH:MM-HH:MM".
func ParseWindow(s string) (Window, error) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return Window{}, errors.Errorf("window %q: want START-END", s)
	}
	start, err := ParseClock(lo)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseClock(hi)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, End: end}, nil
}

func (w Window) Contains(c Clock) bool {
	s, e := w.Start%day, w.End%day
	switch {
	case w.Start == w.End:
		return false
	case s < e:
		return c >= s && c < e
	case s == e: // 00:00-24:00
		return true
	}
	return c >= s || c < e
}

// Len is the number of seconds of a day that fall inside w.
func (w Window) Len() int64 {
	s, e := int64(w.Start%day), int64(w.End%day)
	switch {
	case w.Start == w.End:
		return 0
	case s < e:
		return e - s
	case s == e:
		return day
	}
	return day - s + e
}

func (w Window) ContainsTime(t time.Time) bool { return w.Contains(ClockOf(t)) }

// Complement is every instant outside w.
func (w Window) Complement() Window {
	if w.Start == w.End {
		return Window{0, day}
	}
	return Window{Start: w.End % day, End: w.Start % day}
}

func (w Window) String() string { return w.Start.String() + "-" + w.End.String() }

type Tag string

const (
	Day   Tag = "Day"
	Night Tag = "Night"
)

// Classifier tags instants with Day or Night. Every instant gets exactly one
// tag.
type Classifier struct {
	Day Window
}

var DefaultDay = Window{Start: 6 * 3600, End: 18 * 3600}

func NewClassifier(dayWindow Window) Classifier { return Classifier{Day: dayWindow} }

func (c Classifier) Classify(t time.Time) Tag {
	if c.Day.ContainsTime(t) {
		return Day
	}
	return Night
}

// Hour labels the clock hour t falls in, e.g. "18:00-18:59".
func Hour(t time.Time) string {
	return fmt.Sprintf("%02d:00-%02d:59", t.Hour(), t.Hour())
}

// Split divides a call of secs seconds starting at start into the seconds
// spent inside and outside the day window.
func (c Classifier) Split(start time.Time, secs int64) (daySecs, nightSecs int64) {
	if whole := secs / day; whole > 0 {
		daySecs = whole * c.Day.Len()
		nightSecs = whole*day - daySecs
		secs -= whole * day
	}
	cur := int64(ClockOf(start))
	bounds := []int64{int64(c.Day.Start % day), int64(c.Day.End % day)}
	for secs > 0 {
		step := secs
		if c.Day.Start != c.Day.End {
			for _, b := range bounds {
				d := (b - cur + day) % day
				if d == 0 {
					d = day
				}
				if d < step {
					step = d
				}
			}
		}
		if c.Day.Contains(Clock(cur)) {
			daySecs += step
		} else {
			nightSecs += step
		}
		secs -= step
		cur = (cur + step) % day
	}
	return daySecs, nightSecs
}
