package engine

import "sync"

// Stage labels reported with progress.
const (
	StageLoad  = "normalize"
	StageMerge = "merge"
	StageViews = "views"
	StageDone  = "done"
)

// Share of the progress bar given to the per-file stage and the merge.
const (
	loadShare  = 0.5
	mergeShare = 0.6
)

// progress delivers a non-decreasing fraction in [0,1].
type progress struct {
	mu   sync.Mutex
	last float64
	fn   func(float64, string)
}

func (p *progress) report(f float64, stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f > 1 {
		f = 1
	}
	if f < p.last {
		f = p.last
	}
	p.last = f
	if p.fn != nil {
		p.fn(f, stage)
	}
}
