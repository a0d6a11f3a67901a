package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
)

var t0 = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

func call(cp string, dur int64, minute int) cdr.Record {
	return cdr.Record{Subscriber: "9000000001", Counterparty: cp, Duration: dur, Type: cdr.CallOut, Time: t0.Add(time.Duration(minute) * time.Minute)}
}

func maxDuration(recs []cdr.Record) *View {
	v := NewView("MaxDuration", []Column{{"B Party", String}, {"Total Duration", Int}, {"Total Calls", Int}},
		Desc("Total Duration"), Desc("Total Calls"), Asc("B Party"))
	for _, g := range GroupBy(recs, By(func(r *cdr.Record) string { return r.Counterparty })) {
		v.Append(g.Key[0], g.Duration, g.Count)
	}
	return v
}

func TestRankDurationThenCount(t *testing.T) {
	// Totals 50, 50, 30 over 2, 3 and 1 events.
	recs := []cdr.Record{
		call("A", 25, 0), call("A", 25, 1),
		call("B", 10, 2), call("B", 20, 3), call("B", 20, 4),
		call("C", 30, 5),
	}
	v := maxDuration(recs)
	require.NoError(t, v.Rank())

	require.Len(t, v.Rows, 3)
	assert.Equal(t, []any{"B", int64(50), int64(3)}, v.Rows[0])
	assert.Equal(t, []any{"A", int64(50), int64(2)}, v.Rows[1])
	assert.Equal(t, []any{"C", int64(30), int64(1)}, v.Rows[2])
}

func TestRankIsTotal(t *testing.T) {
	v := NewView("x", []Column{{"Name", String}, {"N", Int}, {"At", Time}, {"Score", Float}}, Desc("N"))
	v.Append("b", 1, t0, 1.5)
	v.Append("a", 1, t0.Add(time.Hour), 1.5)
	v.Append("a", 1, t0, 2.5)
	v.Append("c", 2, t0, 0.0)
	require.NoError(t, v.Rank())

	names := []any{}
	for _, r := range v.Rows {
		names = append(names, r[0])
	}
	assert.Equal(t, []any{"c", "a", "a", "b"}, names)
	assert.Equal(t, t0, v.Rows[1][2], "ties fall back to the remaining columns")

	// Input order does not matter.
	w := NewView("x", v.Columns, v.Sort...)
	for i := len(v.Rows) - 1; i >= 0; i-- {
		w.Append(v.Rows[i]...)
	}
	require.NoError(t, w.Rank())
	assert.Equal(t, v.Rows, w.Rows)
}

func TestRankUnknownColumn(t *testing.T) {
	v := NewView("x", []Column{{"N", Int}}, Desc("Missing"))
	assert.Error(t, v.Rank())
}

func TestTop(t *testing.T) {
	v := NewView("x", []Column{{"N", Int}}, Desc("N"))
	for i := 0; i < 5; i++ {
		v.Append(i)
	}
	require.NoError(t, v.Rank())
	v.Top(2)
	assert.Equal(t, [][]any{{int64(4)}, {int64(3)}}, v.Rows)
	v.Top(0)
	assert.Len(t, v.Rows, 2)
}

func TestAppendWidth(t *testing.T) {
	v := NewView("x", []Column{{"N", Int}})
	assert.Panics(t, func() { v.Append(1, 2) })
}

func TestGroupByStats(t *testing.T) {
	recs := []cdr.Record{
		{Counterparty: "A", Type: cdr.CallIn, Duration: 10, Time: t0, CellID: "c1", IMEI: "i1", Operator: "JIO"},
		{Counterparty: "B", Type: cdr.SMSOut, Time: t0.Add(time.Minute)},
		{Counterparty: "A", Type: cdr.CallOut, Duration: 5, Time: t0.Add(24 * time.Hour), CellID: "c2", LastCellID: "c1", IMEI: "i1", Roaming: true, Operator: "JIO"},
	}
	groups := GroupBy(recs, By(func(r *cdr.Record) string { return r.Counterparty }))
	require.Len(t, groups, 2)

	a := groups[0]
	assert.Equal(t, []string{"A"}, a.Key)
	assert.Equal(t, int64(2), a.Count)
	assert.Equal(t, int64(15), a.Duration)
	assert.Equal(t, int64(1), a.InCalls)
	assert.Equal(t, int64(1), a.OutCalls)
	assert.Equal(t, int64(10), a.InDuration)
	assert.Equal(t, int64(1), a.RoamCalls)
	assert.Equal(t, 2, a.Days())
	assert.Equal(t, 2, a.Cells())
	assert.Equal(t, 1, a.IMEIs())
	assert.Equal(t, 0, a.IMSIs())
	assert.Equal(t, "JIO", a.Operator())
	assert.Equal(t, t0, a.First)
	assert.Equal(t, 2, a.LastIdx)

	only := GroupBy(recs, By(func(r *cdr.Record) string { return r.Counterparty }).Where(func(_ int, r *cdr.Record) bool { return r.Type.IsSMS() }))
	require.Len(t, only, 1)
	assert.Equal(t, int64(1), only[0].OutSMS)
}
