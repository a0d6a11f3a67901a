// Package location infers a subscriber's most likely home and work cells.
package location

import (
	"sort"
	"time"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/temporal"
)

// Weights scale the two evidence counts of a candidate.
type Weights struct {
	Overall float64 `yaml:"overall"`
	Window  float64 `yaml:"window"`
}

var DefaultWeights = Weights{Overall: 1, Window: 2}

type Candidate struct {
	Location    string
	Address     string
	Count       int
	WindowCount int
	FirstSeen   time.Time
	LastSeen    time.Time
	Score       float64
}

// Profile maps a location id to its evidence.
type Profile map[string]*Candidate

// Build scores every first cell seen in recs. Records without a cell are
// ignored.
func Build(recs []cdr.Record, window temporal.Window, w Weights) Profile {
	p := Profile{}
	for i := range recs {
		r := &recs[i]
		if r.CellID == "" {
			continue
		}
		c, ok := p[r.CellID]
		if !ok {
			c = &Candidate{Location: r.CellID, FirstSeen: r.Time, LastSeen: r.Time}
			p[r.CellID] = c
		}
		c.Count++
		if window.ContainsTime(r.Time) {
			c.WindowCount++
		}
		if r.Time.Before(c.FirstSeen) {
			c.FirstSeen = r.Time
		}
		if r.Time.After(c.LastSeen) {
			c.LastSeen = r.Time
		}
		if c.Address == "" {
			c.Address = r.CellAddress
		}
	}
	for _, c := range p {
		c.Score = w.Overall*float64(c.Count) + w.Window*float64(c.WindowCount)
	}
	return p
}

// Ranked orders candidates by score, then earliest first sighting, then
// location id.
func (p Profile) Ranked() []Candidate {
	out := make([]Candidate, 0, len(p))
	for _, c := range p {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.FirstSeen.Equal(b.FirstSeen) {
			return a.FirstSeen.Before(b.FirstSeen)
		}
		return a.Location < b.Location
	})
	return out
}

// Best is the top-ranked candidate.
func (p Profile) Best() (Candidate, bool) {
	r := p.Ranked()
	if len(r) == 0 {
		return Candidate{}, false
	}
	return r[0], true
}

// Infer returns the most likely location for the window.
func Infer(recs []cdr.Record, window temporal.Window, w Weights) (Candidate, bool) {
	return Build(recs, window, w).Best()
}
