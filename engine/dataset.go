package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/jalad-shrimali/cdr-analyzer/boundary"
	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/location"
	"github.com/jalad-shrimali/cdr-analyzer/temporal"
)

// Dataset is the merged, read-only input of every view. Records are
// grouped by subscriber and time-ordered within each subscriber; Tags and
// Bounds are parallel to Records.
type Dataset struct {
	Records  []cdr.Record
	Tags     []temporal.Tag
	Bounds   []boundary.Result
	Subjects []Subject

	Clock      temporal.Classifier
	Work       temporal.Window
	AbsenceGap time.Duration
	Weights    location.Weights
	Case       string
}

// Subject is one subscriber's slice of the dataset.
type Subject struct {
	ID      string
	Offset  int
	Records []cdr.Record
}

func merge(batches [][]cdr.Record) []cdr.Record {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	all := make([]cdr.Record, 0, n)
	for _, b := range batches {
		all = append(all, b...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Subscriber != all[j].Subscriber {
			return all[i].Subscriber < all[j].Subscriber
		}
		return all[i].Before(&all[j])
	})
	return all
}

// checkOrder verifies the merge produced strictly increasing
// (subscriber, time, file, row) keys.
func checkOrder(recs []cdr.Record) error {
	for i := 1; i < len(recs); i++ {
		a, b := &recs[i-1], &recs[i]
		switch {
		case a.Subscriber < b.Subscriber:
			continue
		case a.Subscriber == b.Subscriber && a.Before(b):
			continue
		}
		return &InvariantError{Msg: fmt.Sprintf("merged records out of order at %d (%s row %d after %s row %d)",
			i, b.SourceFile, b.Row, a.SourceFile, a.Row)}
	}
	return nil
}

func subjects(recs []cdr.Record) []Subject {
	var out []Subject
	for lo := 0; lo < len(recs); {
		hi := lo
		for hi < len(recs) && recs[hi].Subscriber == recs[lo].Subscriber {
			hi++
		}
		out = append(out, Subject{ID: recs[lo].Subscriber, Offset: lo, Records: recs[lo:hi]})
		lo = hi
	}
	return out
}
