// Package engine runs the analysis: it normalizes every input file in
// parallel, merges the records per subscriber and builds the registered
// views concurrently.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jalad-shrimali/cdr-analyzer/alias"
	"github.com/jalad-shrimali/cdr-analyzer/boundary"
	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/cellsite"
	"github.com/jalad-shrimali/cdr-analyzer/location"
	"github.com/jalad-shrimali/cdr-analyzer/normalize"
	"github.com/jalad-shrimali/cdr-analyzer/rank"
	"github.com/jalad-shrimali/cdr-analyzer/source"
	"github.com/jalad-shrimali/cdr-analyzer/temporal"
)

// CellLookup resolves tower details for cell ids missing an address.
type CellLookup interface {
	Lookup(ctx context.Context, id string) (cellsite.Site, bool, error)
}

type Options struct {
	Aliases    alias.Map
	Normalize  normalize.Options
	Day        temporal.Window
	Work       temporal.Window
	AbsenceGap time.Duration
	Boundary   boundary.Tables
	Location   location.Weights
	// Views selects registered views by name; empty means all.
	Views []string
	// TopN limits individual views; DefaultTopN applies to ranked views
	// without an entry. Limits cover the whole view across subscribers.
	// Zero keeps every row.
	TopN        map[string]int
	DefaultTopN int
	Workers     int
	Cells       CellLookup
	Logger      logrus.FieldLogger
	// Case labels every Mapping row and the diagnostics.
	Case string
}

// DefaultOptions mirrors the defaults of the configuration file.
func DefaultOptions() Options {
	return Options{
		Aliases:    alias.Default(),
		Normalize:  normalize.Options{Plan: normalize.DefaultPlan},
		Day:        temporal.DefaultDay,
		Work:       temporal.Window{Start: 10 * 3600, End: 19 * 3600},
		AbsenceGap: 12 * time.Hour,
		Boundary:   boundary.DefaultTables(),
		Location:   location.DefaultWeights,
	}
}

// Hooks let the caller follow progress and request cancellation.
type Hooks struct {
	OnProgress  func(fraction float64, stage string)
	IsCancelled func() bool
}

type Status string

const (
	StatusCompleted Status = "completed"
	StatusEmpty     Status = "empty"
	StatusCancelled Status = "cancelled"
)

type Result struct {
	Status      Status
	Views       []*rank.View
	Diagnostics cdr.Diagnostics
}

type Engine struct {
	opts  Options
	views []ViewDef
	norm  *normalize.Normalizer
	bound *boundary.Classifier
	log   logrus.FieldLogger
}

func New(opts Options) (*Engine, error) {
	views, err := selectViews(opts.Views)
	if err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.AbsenceGap <= 0 {
		return nil, errors.Errorf("absence gap must be positive, got %s", opts.AbsenceGap)
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		opts:  opts,
		views: views,
		norm:  normalize.New(opts.Normalize),
		bound: boundary.New(opts.Boundary),
		log:   log,
	}, nil
}

// Views lists the names of the views this engine builds.
func (e *Engine) Views() []string {
	out := make([]string, len(e.views))
	for i, v := range e.views {
		out[i] = v.Name
	}
	return out
}

// Analyze runs one batch. A cancelled run returns StatusCancelled and no
// views; a run without a single valid record returns StatusEmpty. The error
// is non-nil only when an internal invariant breaks.
func (e *Engine) Analyze(ctx context.Context, inputs []source.Input, hooks Hooks) (*Result, error) {
	runID := uuid.NewString()
	log := e.log.WithField("run_id", runID)
	prog := &progress{fn: hooks.OnProgress}
	cancelled := func() bool {
		return ctx.Err() != nil || (hooks.IsCancelled != nil && hooks.IsCancelled())
	}
	res := &Result{Diagnostics: cdr.Diagnostics{RunID: runID, Case: e.opts.Case}}
	prog.report(0, StageLoad)

	batches := e.loadAll(ctx, inputs, prog, cancelled, log)
	records := make([][]cdr.Record, 0, len(batches))
	for _, b := range batches {
		if b == nil {
			continue
		}
		res.Diagnostics.Files = append(res.Diagnostics.Files, b.Report)
		records = append(records, b.Records)
	}
	if cancelled() {
		log.Info("analysis cancelled while loading")
		res.Status = StatusCancelled
		return res, nil
	}

	all := merge(records)
	if err := checkOrder(all); err != nil {
		return nil, err
	}
	if len(all) == 0 {
		log.Warn("no valid records in batch")
		res.Status = StatusEmpty
		prog.report(1, StageDone)
		return res, nil
	}
	ds := e.dataset(all)
	if n := ambiguous(ds.Bounds); n > 0 {
		res.Diagnostics.Warnings = append(res.Diagnostics.Warnings,
			fmt.Sprintf("boundary undetermined for %d records, counted as domestic", n))
	}
	prog.report(mergeShare, StageMerge)
	log.WithFields(logrus.Fields{"records": len(all), "subscribers": len(ds.Subjects)}).Info("records merged")

	views, err := e.buildViews(ds, prog, cancelled, log)
	if err != nil {
		return nil, err
	}
	if cancelled() {
		log.Info("analysis cancelled while building views")
		res.Status = StatusCancelled
		return res, nil
	}
	res.Status = StatusCompleted
	res.Views = views
	prog.report(1, StageDone)
	return res, nil
}

// loadAll normalizes every input on a bounded worker pool. Each file writes
// only its own slot; nil slots are files skipped after cancellation.
func (e *Engine) loadAll(ctx context.Context, inputs []source.Input, prog *progress, cancelled func() bool, log logrus.FieldLogger) []*normalize.Batch {
	out := make([]*normalize.Batch, len(inputs))
	var (
		mu   sync.Mutex
		done int
	)
	g := new(errgroup.Group)
	g.SetLimit(e.opts.Workers)
	for i, in := range inputs {
		g.Go(func() error {
			if cancelled() {
				return nil
			}
			b := e.loadFile(ctx, i, in, log.WithField("file", in.Name()))
			out[i] = &b
			mu.Lock()
			done++
			f := loadShare * float64(done) / float64(len(inputs))
			mu.Unlock()
			prog.report(f, StageLoad)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Engine) loadFile(ctx context.Context, idx int, in source.Input, log logrus.FieldLogger) normalize.Batch {
	fatal := func(err error) normalize.Batch {
		ferr := &FatalFileError{File: in.Name(), Err: err}
		log.WithError(err).Error("file aborted")
		return normalize.Batch{Report: cdr.FileReport{File: in.Name(), Fatal: ferr.Error()}}
	}
	f, err := in.Load(ctx)
	if err != nil {
		return fatal(errors.Wrap(err, "load"))
	}
	res, err := f.Resolve(e.opts.Aliases)
	if err != nil {
		return fatal(err)
	}
	b := e.norm.Normalize(f, res, idx)
	e.enrich(ctx, &b)

	entry := log.WithFields(logrus.Fields{
		"operator":   b.Report.Operator,
		"subscriber": b.Report.Subscriber,
		"rows":       b.Report.RowsIn,
		"kept":       b.Report.RowsKept,
		"skipped":    b.Report.RowsSkipped,
	})
	for _, reason := range b.Report.Reasons() {
		entry.WithField("reason", reason).Debugf("%d rows skipped", b.Report.SkipReasons[reason])
	}
	for _, w := range b.Report.Warnings {
		entry.Warn(w)
	}
	entry.Info("file normalized")
	return b
}

// enrich fills missing tower addresses and coordinates from the cell store.
func (e *Engine) enrich(ctx context.Context, b *normalize.Batch) {
	if e.opts.Cells == nil {
		return
	}
	var (
		failed  int
		lastErr error
	)
	lookup := func(id string) (cellsite.Site, bool) {
		site, ok, err := e.opts.Cells.Lookup(ctx, id)
		if err != nil {
			failed++
			lastErr = err
			return cellsite.Site{}, false
		}
		return site, ok
	}
	for i := range b.Records {
		r := &b.Records[i]
		if r.CellID != "" && (r.CellAddress == "" || r.LatLong == "") {
			if site, ok := lookup(r.CellID); ok {
				if r.CellAddress == "" {
					r.CellAddress = site.Address
				}
				if r.LatLong == "" {
					r.LatLong = site.LatLong()
				}
				if r.CellCity == "" {
					r.CellCity = site.City
				}
			}
		}
		if r.LastCellID != "" && r.LastCellAddress == "" {
			if site, ok := lookup(r.LastCellID); ok {
				r.LastCellAddress = site.Address
			}
		}
	}
	if failed > 0 {
		b.Report.Warn("cell lookup failed %d times: %v", failed, lastErr)
	}
}

func (e *Engine) dataset(all []cdr.Record) *Dataset {
	ds := &Dataset{
		Records:    all,
		Tags:       make([]temporal.Tag, len(all)),
		Bounds:     make([]boundary.Result, len(all)),
		Subjects:   subjects(all),
		Clock:      temporal.NewClassifier(e.opts.Day),
		Work:       e.opts.Work,
		AbsenceGap: e.opts.AbsenceGap,
		Weights:    e.opts.Location,
		Case:       e.opts.Case,
	}
	for i := range all {
		ds.Tags[i] = ds.Clock.Classify(all[i].Time)
		ds.Bounds[i] = e.bound.Classify(&all[i])
	}
	return ds
}

func (e *Engine) buildViews(ds *Dataset, prog *progress, cancelled func() bool, log logrus.FieldLogger) ([]*rank.View, error) {
	out := make([]*rank.View, len(e.views))
	var (
		mu   sync.Mutex
		done int
	)
	g := new(errgroup.Group)
	g.SetLimit(e.opts.Workers)
	for i, def := range e.views {
		g.Go(func() error {
			if cancelled() {
				return nil
			}
			v := def.Build(ds)
			if err := v.Rank(); err != nil {
				return &InvariantError{Msg: err.Error()}
			}
			v.Top(e.limit(def))
			out[i] = v
			log.WithFields(logrus.Fields{"view": def.Name, "rows": len(v.Rows)}).Debug("view built")

			mu.Lock()
			done++
			f := mergeShare + (1-mergeShare)*float64(done)/float64(len(e.views))
			mu.Unlock()
			prog.report(f, StageViews)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) limit(def ViewDef) int {
	if n, ok := e.opts.TopN[def.Name]; ok {
		return n
	}
	if def.Ranked {
		return e.opts.DefaultTopN
	}
	return 0
}

func ambiguous(bounds []boundary.Result) int {
	n := 0
	for _, b := range bounds {
		if b.Ambiguous {
			n++
		}
	}
	return n
}
