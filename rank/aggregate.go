package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
)

// Stats accumulates the counters the summary tables report for a group.
type Stats struct {
	Count       int64
	Duration    int64
	OutCalls    int64
	InCalls     int64
	OutSMS      int64
	InSMS       int64
	RoamCalls   int64
	RoamSMS     int64
	InDuration  int64
	OutDuration int64
	First       time.Time
	Last        time.Time
	FirstIdx    int
	LastIdx     int

	days, cells, imeis, imsis map[string]struct{}
	operators, circles        map[string]int
	addresses                 map[string]int
}

// Add folds record i into the stats.
func (s *Stats) Add(i int, r *cdr.Record) {
	if s.days == nil {
		s.days = map[string]struct{}{}
		s.cells = map[string]struct{}{}
		s.imeis = map[string]struct{}{}
		s.imsis = map[string]struct{}{}
		s.operators = map[string]int{}
		s.circles = map[string]int{}
		s.addresses = map[string]int{}
	}
	s.Count++
	s.Duration += r.Duration
	switch r.Type {
	case cdr.CallOut:
		s.OutCalls++
		s.OutDuration += r.Duration
	case cdr.CallIn:
		s.InCalls++
		s.InDuration += r.Duration
	case cdr.SMSOut:
		s.OutSMS++
	case cdr.SMSIn:
		s.InSMS++
	}
	if r.Roaming {
		if r.Type.IsSMS() {
			s.RoamSMS++
		} else {
			s.RoamCalls++
		}
	}
	if s.Count == 1 || r.Time.Before(s.First) {
		s.First, s.FirstIdx = r.Time, i
	}
	if s.Count == 1 || !r.Time.Before(s.Last) {
		s.Last, s.LastIdx = r.Time, i
	}
	s.days[r.Day()] = struct{}{}
	for _, c := range []string{r.CellID, r.LastCellID} {
		if c != "" {
			s.cells[c] = struct{}{}
		}
	}
	if r.IMEI != "" {
		s.imeis[r.IMEI] = struct{}{}
	}
	if r.IMSI != "" {
		s.imsis[r.IMSI] = struct{}{}
	}
	if r.Operator != "" {
		s.operators[r.Operator]++
	}
	if r.Circle != "" {
		s.circles[r.Circle]++
	}
	if r.CellAddress != "" {
		s.addresses[r.CellAddress]++
	}
}

func (s *Stats) Days() int  { return len(s.days) }
func (s *Stats) Cells() int { return len(s.cells) }
func (s *Stats) IMEIs() int { return len(s.imeis) }
func (s *Stats) IMSIs() int { return len(s.imsis) }

// Operator, Circle and Address return the most frequent value seen.
func (s *Stats) Operator() string { return top(s.operators) }
func (s *Stats) Circle() string   { return top(s.circles) }
func (s *Stats) Address() string  { return top(s.addresses) }

func top(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, n := "", 0
	for _, k := range keys {
		if m[k] > n {
			best, n = k, m[k]
		}
	}
	return best
}

// Group is one aggregation bucket.
type Group struct {
	Key []string
	Stats
}

// KeyFunc returns the grouping key of a record; ok false leaves the record
// out.
type KeyFunc func(i int, r *cdr.Record) (key []string, ok bool)

// GroupBy buckets recs by key. Groups come back in first-seen order.
func GroupBy(recs []cdr.Record, key KeyFunc) []*Group {
	var (
		out   []*Group
		index = map[string]*Group{}
	)
	for i := range recs {
		k, ok := key(i, &recs[i])
		if !ok {
			continue
		}
		id := strings.Join(k, "\x00")
		g, found := index[id]
		if !found {
			g = &Group{Key: k}
			index[id] = g
			out = append(out, g)
		}
		g.Add(i, &recs[i])
	}
	return out
}

// By builds a KeyFunc from field getters.
func By(fields ...func(*cdr.Record) string) KeyFunc {
	return func(_ int, r *cdr.Record) ([]string, bool) {
		k := make([]string, len(fields))
		for i, f := range fields {
			k[i] = f(r)
		}
		return k, true
	}
}

// Where restricts a KeyFunc to records matching keep.
func (k KeyFunc) Where(keep func(i int, r *cdr.Record) bool) KeyFunc {
	return func(i int, r *cdr.Record) ([]string, bool) {
		if !keep(i, r) {
			return nil, false
		}
		return k(i, r)
	}
}
