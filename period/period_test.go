package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
)

var base = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

func rec(h int, imei string) cdr.Record {
	return cdr.Record{Subscriber: "9000000001", Time: base.Add(time.Duration(h) * time.Hour), IMEI: imei, Row: h}
}

func TestDeviceChange(t *testing.T) {
	recs := []cdr.Record{rec(1, "A"), rec(2, "A"), rec(3, "B"), rec(4, "B")}

	got := Devices().Detect("9000000001", recs)

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].State)
	assert.Equal(t, base.Add(1*time.Hour), got[0].Start)
	assert.Equal(t, base.Add(2*time.Hour), got[0].End)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "B", got[1].State)
	assert.Equal(t, base.Add(3*time.Hour), got[1].Start)
	assert.Equal(t, base.Add(4*time.Hour), got[1].End)
	assert.Equal(t, 2, got[1].First)
	assert.Equal(t, 3, got[1].Last)
}

func TestSingleRecordAndUnknown(t *testing.T) {
	got := Devices().Detect("s", []cdr.Record{rec(5, "")})
	require.Len(t, got, 1)
	assert.Equal(t, Unknown, got[0].State)
	assert.Zero(t, got[0].Length())

	assert.Empty(t, Devices().Detect("s", nil))
}

func TestGapSplits(t *testing.T) {
	recs := []cdr.Record{rec(0, "A"), rec(1, "A"), rec(10, "A")}
	d := Devices()
	d.MaxGap = 2 * time.Hour
	got := d.Detect("s", recs)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, 1, got[1].Count)
}

// Periods never overlap and every record falls inside exactly one period.
func TestCoverage(t *testing.T) {
	states := []string{"A", "A", "B", "", "", "A", "C", "C", "B"}
	var recs []cdr.Record
	for i, s := range states {
		recs = append(recs, rec(i*3, s))
	}
	// Two records sharing a timestamp keep file order.
	recs = append(recs, cdr.Record{Time: recs[len(recs)-1].Time, IMEI: "B", Row: 100})

	got := Devices().Detect("s", recs)
	covered := 0
	for i, p := range got {
		assert.False(t, p.End.Before(p.Start))
		if i > 0 {
			assert.True(t, got[i-1].End.Before(p.Start) || got[i-1].End.Equal(p.Start))
			assert.Equal(t, got[i-1].Last+1, p.First)
		}
		covered += p.Count
	}
	assert.Equal(t, len(recs), covered)
	assert.Len(t, got, 6)
}

func TestUnorderedPanics(t *testing.T) {
	assert.Panics(t, func() { Devices().Detect("s", []cdr.Record{rec(5, "A"), rec(1, "A")}) })
}

func TestRoamingRuns(t *testing.T) {
	recs := []cdr.Record{rec(1, ""), rec(2, ""), rec(3, ""), rec(4, "")}
	recs[1].Roaming = true
	recs[2].Roaming = true
	got := RoamingRuns().Detect("s", recs)
	require.Len(t, got, 3)
	assert.Equal(t, []string{Home, Roaming, Home}, []string{got[0].State, got[1].State, got[2].State})
}

func TestAbsences(t *testing.T) {
	recs := []cdr.Record{rec(8, "A"), rec(9, "A"), rec(20, "A"), rec(21, "A")}

	got := Absences("s", recs, 6*time.Hour)
	require.Len(t, got, 1)
	assert.Equal(t, Offline, got[0].State)
	assert.Equal(t, base.Add(9*time.Hour), got[0].Start)
	assert.Equal(t, base.Add(20*time.Hour), got[0].End)
	assert.Equal(t, 1, got[0].First)
	assert.Equal(t, 2, got[0].Last)

	assert.Empty(t, Absences("s", recs, 12*time.Hour))
	assert.Empty(t, Absences("s", recs, 11*time.Hour), "a gap equal to the threshold is not an absence")
	assert.Empty(t, Absences("s", recs[:1], time.Hour))
}
