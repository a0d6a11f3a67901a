// Package period finds maximal runs of a per-record state in a subscriber's
// time-ordered events.
package period

import (
	"fmt"
	"math"
	"time"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
)

// Unbounded disables gap splitting.
const Unbounded time.Duration = math.MaxInt64

// Unknown is the state reported for records without one.
const Unknown = "unknown"

const (
	KindDevice  = "device"
	KindSIM     = "sim"
	KindRoaming = "roaming"
	KindAbsence = "absence"
)

// Period is a maximal run of records sharing one state. First and Last
// index the records passed to Detect.
type Period struct {
	Subject string
	Kind    string
	State   string
	Start   time.Time
	End     time.Time
	Count   int
	First   int
	Last    int
}

func (p Period) Length() time.Duration { return p.End.Sub(p.Start) }

// Detector splits a record stream whenever the state changes or two
// consecutive records are more than MaxGap apart.
type Detector struct {
	Kind   string
	State  func(*cdr.Record) string
	MaxGap time.Duration
}

// Detect runs one forward pass over recs, which must be ordered by
// cdr.Record.Before. Unordered input is a programming error and panics.
func (d Detector) Detect(subject string, recs []cdr.Record) []Period {
	var (
		out []Period
		cur *Period
	)
	for i := range recs {
		r := &recs[i]
		if i > 0 && r.Before(&recs[i-1]) {
			panic(fmt.Sprintf("period: %s records of %s out of order at %d", d.Kind, subject, i))
		}
		state := d.State(r)
		if state == "" {
			state = Unknown
		}
		if cur != nil && cur.State == state && r.Time.Sub(cur.End) <= d.MaxGap {
			cur.End = r.Time
			cur.Count++
			cur.Last = i
			continue
		}
		out = append(out, Period{Subject: subject, Kind: d.Kind, State: state, Start: r.Time, End: r.Time, Count: 1, First: i, Last: i})
		cur = &out[len(out)-1]
	}
	return out
}

func Devices() Detector {
	return Detector{Kind: KindDevice, State: func(r *cdr.Record) string { return r.IMEI }, MaxGap: Unbounded}
}

func SIMs() Detector {
	return Detector{Kind: KindSIM, State: func(r *cdr.Record) string { return r.IMSI }, MaxGap: Unbounded}
}

const (
	Roaming = "Roaming"
	Home    = "Home"
)

func RoamingRuns() Detector {
	return Detector{Kind: KindRoaming, State: func(r *cdr.Record) string {
		if r.Roaming {
			return Roaming
		}
		return Home
	}, MaxGap: Unbounded}
}

// Offline is the state of absence periods.
const Offline = "offline"

// Absences reports every gap longer than threshold between consecutive
// events. The period spans the last event before the gap to the first event
// after it and covers no records, so Count is 0; First and Last index the
// bounding records.
func Absences(subject string, recs []cdr.Record, threshold time.Duration) []Period {
	active := Detector{Kind: KindAbsence, State: func(*cdr.Record) string { return "online" }, MaxGap: threshold}.Detect(subject, recs)
	var out []Period
	for i := 1; i < len(active); i++ {
		prev, next := active[i-1], active[i]
		out = append(out, Period{
			Subject: subject,
			Kind:    KindAbsence,
			State:   Offline,
			Start:   prev.End,
			End:     next.Start,
			First:   prev.Last,
			Last:    next.First,
		})
	}
	return out
}
