package engine

import (
	"strings"

	"github.com/jalad-shrimali/cdr-analyzer/boundary"
	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/rank"
	"github.com/jalad-shrimali/cdr-analyzer/temporal"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// keep selects records of the dataset by global index.
type keep func(ds *Dataset, i int) bool

func tagged(tag temporal.Tag) keep {
	return func(ds *Dataset, i int) bool { return ds.Tags[i] == tag }
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func where(ds *Dataset, k keep, key rank.KeyFunc) rank.KeyFunc {
	if k == nil {
		return key
	}
	return key.Where(func(i int, _ *cdr.Record) bool { return k(ds, i) })
}

var mappingColumns = []rank.Column{
	{Name: "ID", Kind: rank.Int},
	{Name: "CdrNo", Kind: rank.String},
	{Name: "B Party", Kind: rank.String},
	{Name: "Date", Kind: rank.String},
	{Name: "Time", Kind: rank.String},
	{Name: "Duration", Kind: rank.Int},
	{Name: "Call Type", Kind: rank.String},
	{Name: "Period", Kind: rank.String},
	{Name: "First Cell ID", Kind: rank.String},
	{Name: "First Cell ID Address", Kind: rank.String},
	{Name: "Last Cell ID", Kind: rank.String},
	{Name: "Last Cell ID Address", Kind: rank.String},
	{Name: "Lat-Long", Kind: rank.String},
	{Name: "IMEI", Kind: rank.String},
	{Name: "IMSI", Kind: rank.String},
	{Name: "Roaming", Kind: rank.String},
	{Name: "Circle", Kind: rank.String},
	{Name: "Operator", Kind: rank.String},
	{Name: "LRN", Kind: rank.String},
	{Name: "CallForward", Kind: rank.String},
	{Name: "Boundary", Kind: rank.String},
	{Name: "B Party Provider", Kind: rank.String},
	{Name: "B Party Circle", Kind: rank.String},
	{Name: "B Party Operator", Kind: rank.String},
	{Name: "Source File", Kind: rank.String},
	{Name: "Crime", Kind: rank.String},
}

// mapping lists every selected record in merged order.
func mapping(name string, k keep) ViewDef {
	return ViewDef{Name: name, Build: func(ds *Dataset) *rank.View {
		v := rank.NewView(name, mappingColumns, rank.Asc("ID"))
		for i := range ds.Records {
			if k != nil && !k(ds, i) {
				continue
			}
			r, b := &ds.Records[i], ds.Bounds[i]
			v.Append(i+1, r.Subscriber, r.Counterparty, r.Time.Format(dateLayout), r.Time.Format(timeLayout),
				r.Duration, string(r.Type), string(ds.Tags[i]), r.CellID, r.CellAddress, r.LastCellID,
				r.LastCellAddress, r.LatLong, r.IMEI, r.IMSI, yesNo(r.Roaming), r.Circle, r.Operator, r.LRN,
				r.CallForward, string(b.Class), b.Provider, b.Circle, b.Operator, r.SourceFile, ds.Case)
		}
		return v
	}}
}

func byContact(_ int, r *cdr.Record) ([]string, bool) {
	if r.Counterparty == "" {
		return nil, false
	}
	return []string{r.Subscriber, r.Counterparty}, true
}

func summary(name string) ViewDef {
	return ViewDef{Name: name, Build: func(ds *Dataset) *rank.View {
		v := rank.NewView(name, []rank.Column{
			{Name: "CdrNo", Kind: rank.String},
			{Name: "B Party", Kind: rank.String},
			{Name: "Provider", Kind: rank.String},
			{Name: "Total Calls", Kind: rank.Int},
			{Name: "Out Calls", Kind: rank.Int},
			{Name: "In Calls", Kind: rank.Int},
			{Name: "Out Sms", Kind: rank.Int},
			{Name: "In Sms", Kind: rank.Int},
			{Name: "Roam Calls", Kind: rank.Int},
			{Name: "Roam Sms", Kind: rank.Int},
			{Name: "Total Duration", Kind: rank.Int},
			{Name: "In Duration", Kind: rank.Int},
			{Name: "Out Duration", Kind: rank.Int},
			{Name: "Total Days", Kind: rank.Int},
			{Name: "Total CellIds", Kind: rank.Int},
			{Name: "Total Imei", Kind: rank.Int},
			{Name: "Total Imsi", Kind: rank.Int},
			{Name: "First Call", Kind: rank.Time},
			{Name: "Last Call", Kind: rank.Time},
		}, rank.Desc("Total Calls"), rank.Desc("Total Duration"), rank.Asc("CdrNo"), rank.Asc("B Party"))
		for _, g := range rank.GroupBy(ds.Records, byContact) {
			v.Append(g.Key[0], g.Key[1], g.Operator(), g.Count, g.OutCalls, g.InCalls, g.OutSMS, g.InSMS,
				g.RoamCalls, g.RoamSMS, g.Duration, g.InDuration, g.OutDuration, g.Days(), g.Cells(),
				g.IMEIs(), g.IMSIs(), g.First, g.Last)
		}
		return v
	}}
}

// topContacts ranks contacts by calls or by duration.
func topContacts(name string, byDuration bool) ViewDef {
	return ViewDef{Name: name, Ranked: true, Build: func(ds *Dataset) *rank.View {
		cols := []rank.Column{
			{Name: "CdrNo", Kind: rank.String},
			{Name: "B Party", Kind: rank.String},
			{Name: "Total Calls", Kind: rank.Int},
			{Name: "Total Duration", Kind: rank.Int},
			{Name: "Provider", Kind: rank.String},
		}
		order := []rank.SortKey{rank.Desc("Total Calls"), rank.Desc("Total Duration")}
		if byDuration {
			cols[2], cols[3] = cols[3], cols[2]
			order[0], order[1] = order[1], order[0]
		}
		v := rank.NewView(name, cols, append(order, rank.Asc("CdrNo"), rank.Asc("B Party"))...)
		for _, g := range rank.GroupBy(ds.Records, byContact) {
			if byDuration {
				v.Append(g.Key[0], g.Key[1], g.Duration, g.Count, g.Operator())
			} else {
				v.Append(g.Key[0], g.Key[1], g.Count, g.Duration, g.Operator())
			}
		}
		return v
	}}
}

// maxStay ranks the cells a subscriber was seen at.
func maxStay(name string, k keep) ViewDef {
	return ViewDef{Name: name, Ranked: true, Build: func(ds *Dataset) *rank.View {
		v := rank.NewView(name, []rank.Column{
			{Name: "CdrNo", Kind: rank.String},
			{Name: "Cell ID", Kind: rank.String},
			{Name: "Tower Address", Kind: rank.String},
			{Name: "Lat-Long", Kind: rank.String},
			{Name: "Total Calls", Kind: rank.Int},
			{Name: "Total Days", Kind: rank.Int},
			{Name: "Total Duration", Kind: rank.Int},
			{Name: "Roaming Circle", Kind: rank.String},
			{Name: "First Call", Kind: rank.Time},
			{Name: "Last Call", Kind: rank.Time},
		}, rank.Desc("Total Calls"), rank.Desc("Total Days"), rank.Asc("CdrNo"), rank.Asc("Cell ID"))
		key := where(ds, k, func(_ int, r *cdr.Record) ([]string, bool) {
			if r.CellID == "" {
				return nil, false
			}
			return []string{r.Subscriber, r.CellID}, true
		})
		for _, g := range rank.GroupBy(ds.Records, key) {
			v.Append(g.Key[0], g.Key[1], g.Address(), ds.Records[g.FirstIdx].LatLong, g.Count, g.Days(),
				g.Duration, g.Circle(), g.First, g.Last)
		}
		return v
	}}
}

// nightCalls ranks contacts by night-time activity. Night Duration counts
// only the seconds that fall outside the day window.
func nightCalls(name string) ViewDef {
	return ViewDef{Name: name, Ranked: true, Build: func(ds *Dataset) *rank.View {
		v := rank.NewView(name, []rank.Column{
			{Name: "CdrNo", Kind: rank.String},
			{Name: "B Party", Kind: rank.String},
			{Name: "Total Calls", Kind: rank.Int},
			{Name: "Out Calls", Kind: rank.Int},
			{Name: "In Calls", Kind: rank.Int},
			{Name: "Out Sms", Kind: rank.Int},
			{Name: "In Sms", Kind: rank.Int},
			{Name: "Total Duration", Kind: rank.Int},
			{Name: "Night Duration", Kind: rank.Int},
		}, rank.Desc("Total Calls"), rank.Desc("Total Duration"), rank.Asc("CdrNo"), rank.Asc("B Party"))
		nightSecs := map[string]int64{}
		key := where(ds, tagged(temporal.Night), func(i int, r *cdr.Record) ([]string, bool) {
			k, ok := byContact(i, r)
			if ok {
				_, n := ds.Clock.Split(r.Time, r.Duration)
				nightSecs[strings.Join(k, "\x00")] += n
			}
			return k, ok
		})
		for _, g := range rank.GroupBy(ds.Records, key) {
			v.Append(g.Key[0], g.Key[1], g.Count, g.OutCalls, g.InCalls, g.OutSMS, g.InSMS, g.Duration,
				nightSecs[strings.Join(g.Key, "\x00")])
		}
		return v
	}}
}

// dayNight splits each subscriber's activity between the day and night
// windows, by event and by second.
func dayNight(name string) ViewDef {
	return ViewDef{Name: name, Build: func(ds *Dataset) *rank.View {
		v := rank.NewView(name, []rank.Column{
			{Name: "CdrNo", Kind: rank.String},
			{Name: "Day Events", Kind: rank.Int},
			{Name: "Night Events", Kind: rank.Int},
			{Name: "Total Events", Kind: rank.Int},
			{Name: "Day Duration", Kind: rank.Int},
			{Name: "Night Duration", Kind: rank.Int},
			{Name: "Total Duration", Kind: rank.Int},
		}, rank.Asc("CdrNo"))
		for _, s := range ds.Subjects {
			var dayN, nightN, daySecs, nightSecs, total int64
			for j := range s.Records {
				r := &s.Records[j]
				if ds.Tags[s.Offset+j] == temporal.Day {
					dayN++
				} else {
					nightN++
				}
				d, n := ds.Clock.Split(r.Time, r.Duration)
				daySecs += d
				nightSecs += n
				total += r.Duration
			}
			v.Append(s.ID, dayN, nightN, dayN+nightN, daySecs, nightSecs, total)
		}
		return v
	}}
}

// hourly buckets each subscriber's events by clock hour.
func hourly(name string) ViewDef {
	return ViewDef{Name: name, Build: func(ds *Dataset) *rank.View {
		v := rank.NewView(name, []rank.Column{
			{Name: "CdrNo", Kind: rank.String},
			{Name: "Hour", Kind: rank.String},
			{Name: "Period", Kind: rank.String},
			{Name: "Total Events", Kind: rank.Int},
			{Name: "Out Calls", Kind: rank.Int},
			{Name: "In Calls", Kind: rank.Int},
			{Name: "Out Sms", Kind: rank.Int},
			{Name: "In Sms", Kind: rank.Int},
			{Name: "Total Duration", Kind: rank.Int},
		}, rank.Asc("CdrNo"), rank.Asc("Hour"))
		key := func(i int, r *cdr.Record) ([]string, bool) {
			return []string{r.Subscriber, temporal.Hour(r.Time), string(ds.Tags[i])}, true
		}
		for _, g := range rank.GroupBy(ds.Records, key) {
			v.Append(g.Key[0], g.Key[1], g.Key[2], g.Count, g.OutCalls, g.InCalls, g.OutSMS, g.InSMS, g.Duration)
		}
		return v
	}}
}

var circleColumns = []rank.Column{
	{Name: "CdrNo", Kind: rank.String},
	{Name: "Circle", Kind: rank.String},
	{Name: "Total Calls", Kind: rank.Int},
	{Name: "Out Calls", Kind: rank.Int},
	{Name: "In Calls", Kind: rank.Int},
	{Name: "Out Sms", Kind: rank.Int},
	{Name: "In Sms", Kind: rank.Int},
	{Name: "Total Duration", Kind: rank.Int},
	{Name: "Total Days", Kind: rank.Int},
	{Name: "First Call", Kind: rank.Time},
	{Name: "Last Call", Kind: rank.Time},
}

func circleView(name string, ds *Dataset, key rank.KeyFunc) *rank.View {
	v := rank.NewView(name, circleColumns, rank.Desc("Total Calls"), rank.Desc("Total Duration"), rank.Asc("CdrNo"), rank.Asc("Circle"))
	for _, g := range rank.GroupBy(ds.Records, key) {
		v.Append(g.Key[0], g.Key[1], g.Count, g.OutCalls, g.InCalls, g.OutSMS, g.InSMS, g.Duration, g.Days(), g.First, g.Last)
	}
	return v
}

// otherState groups cross-state contacts by the counterparty's circle.
func otherState(name string) ViewDef {
	return ViewDef{Name: name, Ranked: true, Build: func(ds *Dataset) *rank.View {
		return circleView(name, ds, func(i int, r *cdr.Record) ([]string, bool) {
			b := ds.Bounds[i]
			if b.Class != boundary.CrossState {
				return nil, false
			}
			return []string{r.Subscriber, b.Circle}, true
		})
	}}
}

// stateConnection groups activity by the circle the subscriber was
// connected in: the roaming circle, else the home circle.
func stateConnection(name string) ViewDef {
	return ViewDef{Name: name, Build: func(ds *Dataset) *rank.View {
		return circleView(name, ds, func(_ int, r *cdr.Record) ([]string, bool) {
			state := r.Circle
			if state == "" {
				state = r.HomeCircle
			}
			if state == "" {
				return nil, false
			}
			return []string{r.Subscriber, state}, true
		})
	}}
}

func isdCalls(name string) ViewDef {
	return ViewDef{Name: name, Build: func(ds *Dataset) *rank.View {
		v := rank.NewView(name, []rank.Column{
			{Name: "ID", Kind: rank.Int},
			{Name: "CdrNo", Kind: rank.String},
			{Name: "B Party", Kind: rank.String},
			{Name: "Country", Kind: rank.String},
			{Name: "Date", Kind: rank.String},
			{Name: "Time", Kind: rank.String},
			{Name: "Duration", Kind: rank.Int},
			{Name: "Call Type", Kind: rank.String},
			{Name: "First Cell ID", Kind: rank.String},
			{Name: "IMEI", Kind: rank.String},
			{Name: "IMSI", Kind: rank.String},
			{Name: "B Party Provider", Kind: rank.String},
			{Name: "B Party Circle", Kind: rank.String},
			{Name: "B Party Operator", Kind: rank.String},
		}, rank.Asc("ID"))
		for i := range ds.Records {
			b := ds.Bounds[i]
			if b.Class != boundary.International {
				continue
			}
			r := &ds.Records[i]
			v.Append(i+1, r.Subscriber, r.Counterparty, b.Country, r.Time.Format(dateLayout), r.Time.Format(timeLayout),
				r.Duration, string(r.Type), r.CellID, r.IMEI, r.IMSI, b.Provider, b.Circle, b.Operator)
		}
		return v
	}}
}
