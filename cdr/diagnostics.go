package cdr

import (
	"fmt"
	"sort"
)

// Row skip reasons.
const (
	SkipTimestamp  = "unparsable timestamp"
	SkipDuplicate  = "duplicate row"
	SkipSubscriber = "missing subscriber"
)

// FileReport describes what happened to one input file.
type FileReport struct {
	File        string         `json:"file"`
	Operator    string         `json:"operator,omitempty"`
	Subscriber  string         `json:"subscriber,omitempty"`
	RowsIn      int            `json:"rows_in"`
	RowsKept    int            `json:"rows_kept"`
	RowsSkipped int            `json:"rows_skipped"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
	Fatal       string         `json:"fatal,omitempty"`
}

func (f *FileReport) Skip(reason string) {
	if f.SkipReasons == nil {
		f.SkipReasons = map[string]int{}
	}
	f.SkipReasons[reason]++
	f.RowsSkipped++
}

func (f *FileReport) Warn(format string, args ...any) {
	f.Warnings = append(f.Warnings, fmt.Sprintf(format, args...))
}

// Reasons lists skip reasons in a stable order.
func (f *FileReport) Reasons() []string {
	out := make([]string, 0, len(f.SkipReasons))
	for r := range f.SkipReasons {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

type Diagnostics struct {
	RunID string `json:"run_id"`
	// Case is the investigation label (crime number) the run was made for.
	Case     string       `json:"case,omitempty"`
	Files    []FileReport `json:"files"`
	Warnings []string     `json:"warnings,omitempty"`
}

func (d *Diagnostics) Kept() int {
	n := 0
	for _, f := range d.Files {
		n += f.RowsKept
	}
	return n
}

func (d *Diagnostics) Failed() []FileReport {
	var out []FileReport
	for _, f := range d.Files {
		if f.Fatal != "" {
			out = append(out, f)
		}
	}
	return out
}
