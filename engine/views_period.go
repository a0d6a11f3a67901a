package engine

import (
	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/location"
	"github.com/jalad-shrimali/cdr-analyzer/period"
	"github.com/jalad-shrimali/cdr-analyzer/rank"
	"github.com/jalad-shrimali/cdr-analyzer/temporal"
)

func place(r *cdr.Record) string {
	if r.CellAddress != "" {
		return r.CellAddress
	}
	return r.CellID
}

// periods reports the runs found by det for every subscriber, with the
// activity inside each run.
func periods(name, stateColumn string, det func() period.Detector) ViewDef {
	return ViewDef{Name: name, Build: func(ds *Dataset) *rank.View {
		v := rank.NewView(name, []rank.Column{
			{Name: "CdrNo", Kind: rank.String},
			{Name: stateColumn, Kind: rank.String},
			{Name: "Circle", Kind: rank.String},
			{Name: "Start", Kind: rank.Time},
			{Name: "End", Kind: rank.Time},
			{Name: "Total Calls", Kind: rank.Int},
			{Name: "Total Days", Kind: rank.Int},
			{Name: "First Location", Kind: rank.String},
			{Name: "Last Location", Kind: rank.String},
			{Name: "Out Calls", Kind: rank.Int},
			{Name: "In Calls", Kind: rank.Int},
			{Name: "Out Sms", Kind: rank.Int},
			{Name: "In Sms", Kind: rank.Int},
			{Name: "Total Duration", Kind: rank.Int},
		}, rank.Asc("CdrNo"), rank.Asc("Start"))
		d := det()
		for _, s := range ds.Subjects {
			for _, p := range d.Detect(s.ID, s.Records) {
				var st rank.Stats
				for j := p.First; j <= p.Last; j++ {
					st.Add(j, &s.Records[j])
				}
				v.Append(s.ID, p.State, st.Circle(), p.Start, p.End, st.Count, st.Days(),
					place(&s.Records[p.First]), place(&s.Records[p.Last]),
					st.OutCalls, st.InCalls, st.OutSMS, st.InSMS, st.Duration)
			}
		}
		return v
	}}
}

// switchOff reports the gaps in activity longer than the absence threshold.
func switchOff(name string) ViewDef {
	return ViewDef{Name: name, Build: func(ds *Dataset) *rank.View {
		v := rank.NewView(name, []rank.Column{
			{Name: "CdrNo", Kind: rank.String},
			{Name: "Switch Off", Kind: rank.Time},
			{Name: "Switch On", Kind: rank.Time},
			{Name: "Gap Seconds", Kind: rank.Int},
			{Name: "Gap", Kind: rank.String},
			{Name: "Last Location", Kind: rank.String},
			{Name: "Resume Location", Kind: rank.String},
		}, rank.Asc("CdrNo"), rank.Asc("Switch Off"))
		for _, s := range ds.Subjects {
			for _, p := range period.Absences(s.ID, s.Records, ds.AbsenceGap) {
				v.Append(s.ID, p.Start, p.End, int64(p.Length().Seconds()), p.Length().String(),
					place(&s.Records[p.First]), place(&s.Records[p.Last]))
			}
		}
		return v
	}}
}

// workHome infers home from the night window and work from the work window.
func workHome(name string) ViewDef {
	return ViewDef{Name: name, Build: func(ds *Dataset) *rank.View {
		v := rank.NewView(name, []rank.Column{
			{Name: "CdrNo", Kind: rank.String},
			{Name: "Location", Kind: rank.String},
			{Name: "Cell ID", Kind: rank.String},
			{Name: "Tower Address", Kind: rank.String},
			{Name: "Score", Kind: rank.Float},
			{Name: "Total Calls", Kind: rank.Int},
			{Name: "Window Calls", Kind: rank.Int},
			{Name: "First Seen", Kind: rank.Time},
			{Name: "Last Seen", Kind: rank.Time},
		}, rank.Asc("CdrNo"), rank.Asc("Location"))
		windows := []struct {
			label string
			win   temporal.Window
		}{
			{"Home", ds.Clock.Day.Complement()},
			{"Work", ds.Work},
		}
		for _, s := range ds.Subjects {
			for _, w := range windows {
				c, ok := location.Infer(s.Records, w.win, ds.Weights)
				if !ok {
					continue
				}
				v.Append(s.ID, w.label, c.Location, c.Address, c.Score, c.Count, c.WindowCount, c.FirstSeen, c.LastSeen)
			}
		}
		return v
	}}
}
