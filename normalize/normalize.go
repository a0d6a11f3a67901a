// Package normalize turns raw CDR rows into cleaned records.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/jalad-shrimali/cdr-analyzer/alias"
	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/operator"
	"github.com/jalad-shrimali/cdr-analyzer/source"
)

type Options struct {
	Plan NumberPlan
	// HomeCircle is used when a row carries no home circle of its own.
	HomeCircle string
}

type Normalizer struct {
	opts Options
}

func New(opts Options) *Normalizer {
	if opts.Plan.NationalLength == 0 {
		opts.Plan = DefaultPlan
	}
	return &Normalizer{opts: opts}
}

// Batch is the output of one file.
type Batch struct {
	Records []cdr.Record
	Report  cdr.FileReport
}

type row struct {
	cells []string
	res   alias.Resolution
}

func (r row) get(f cdr.Field) string {
	i := r.res.Index(f)
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return clean(r.cells[i])
}

// tally aggregates a repeated per-row warning into a single line.
type tally struct {
	count   int
	example string
}

// Normalize cleans every row of f. Rows that cannot carry a timestamp or a
// subscriber are skipped and counted; exact duplicates within the file are
// dropped.
func (n *Normalizer) Normalize(f *source.File, res alias.Resolution, fileIndex int) Batch {
	rep := cdr.FileReport{File: f.Name, Operator: f.Profile.Name, RowsIn: len(f.Rows)}
	rep.Warnings = append(rep.Warnings, res.Warnings...)

	sub := n.subscriber(f, res)
	rep.Subscriber = sub

	var (
		out      = make([]cdr.Record, 0, len(f.Rows))
		seen     = make(map[string]struct{}, len(f.Rows))
		duration tally
	)
	for i, cells := range f.Rows {
		r := row{cells: cells, res: res}
		date := r.get(cdr.FieldDate)
		if !res.Has(cdr.FieldDate) {
			date = r.get(cdr.FieldDateTime)
		}
		ts, ok := ParseTimestamp(date, r.get(cdr.FieldTime))
		if !ok {
			rep.Skip(cdr.SkipTimestamp)
			continue
		}
		if sub == "" {
			rep.Skip(cdr.SkipSubscriber)
			continue
		}
		rawDur := r.get(cdr.FieldDuration)
		dur, ok := ParseDuration(rawDur)
		if !ok {
			duration.count++
			if duration.example == "" {
				duration.example = fmt.Sprintf("row %d value %q", i+1, rawDur)
			}
		}

		ct := DeriveCallType(f.Profile, r.get(cdr.FieldCallType), r.get(cdr.FieldTOC))
		aRaw, bRaw := r.get(cdr.FieldAParty), r.get(cdr.FieldBParty)
		cp := Counterparty(ct, sub, aRaw, bRaw, n.opts.Plan)

		rec := cdr.Record{
			Subscriber:      sub,
			Counterparty:    cp,
			CounterpartyRaw: rawCounterparty(cp, aRaw, bRaw, n.opts.Plan),
			Time:            ts,
			Duration:        dur,
			Type:            ct,
			CellID:          CellID(r.get(cdr.FieldFirstCell)),
			CellAddress:     squash(r.get(cdr.FieldFirstCellAddr)),
			CellCity:        squash(r.get(cdr.FieldFirstCellCity)),
			LatLong:         squash(r.get(cdr.FieldFirstLatLong)),
			LastCellID:      CellID(r.get(cdr.FieldLastCell)),
			LastCellAddress: squash(r.get(cdr.FieldLastCellAddr)),
			IMEI:            r.get(cdr.FieldIMEI),
			IMSI:            r.get(cdr.FieldIMSI),
			Circle:          squash(r.get(cdr.FieldRoamingCircle)),
			HomeCircle:      squash(r.get(cdr.FieldHomeCircle)),
			Operator:        squash(r.get(cdr.FieldOperator)),
			LRN:             digits(r.get(cdr.FieldLRN)),
			CallForward:     n.opts.Plan.MSISDN(r.get(cdr.FieldCallForward)),
			SourceFile:      f.Name,
			FileIndex:       fileIndex,
			Row:             i + 1,
		}
		if rec.Operator == "" && f.Profile.Name != operator.Generic.Name {
			rec.Operator = strings.ToUpper(f.Profile.Name)
		}
		home := rec.HomeCircle
		if home == "" {
			home = n.opts.HomeCircle
		}
		rec.Roaming = rec.Circle != "" && (home == "" || !strings.EqualFold(rec.Circle, home))
		if len(res.Extras) > 0 {
			rec.Extra = make(map[string]string, len(res.Extras))
			for idx, name := range res.Extras {
				if idx < len(cells) {
					if v := clean(cells[idx]); v != "" {
						rec.Extra[name] = v
					}
				}
			}
		}

		key := fmt.Sprintf("%s|%s|%d|%d|%s", rec.Subscriber, rec.Counterparty, rec.Time.Unix(), rec.Duration, rec.SourceFile)
		if _, dup := seen[key]; dup {
			rep.Skip(cdr.SkipDuplicate)
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	if duration.count > 0 {
		rep.Warn("duration missing or unparsable on %d rows, defaulted to 0 (first: %s)", duration.count, duration.example)
	}
	rep.RowsKept = len(out)
	return Batch{Records: out, Report: rep}
}

// subscriber picks the number the file is about: the most frequent target
// value, then the banner number, then the most frequent party number.
func (n *Normalizer) subscriber(f *source.File, res alias.Resolution) string {
	column := func(fields ...cdr.Field) []string {
		var vals []string
		for _, fld := range fields {
			i := res.Index(fld)
			if i < 0 {
				continue
			}
			for _, cells := range f.Rows {
				if i < len(cells) {
					if v := n.opts.Plan.MSISDN(cells[i]); v != "" {
						vals = append(vals, v)
					}
				}
			}
		}
		return vals
	}
	if m := mode(column(cdr.FieldTarget)); m != "" {
		return m
	}
	if b := n.opts.Plan.MSISDN(f.Subscriber); b != "" {
		return b
	}
	return mode(column(cdr.FieldAParty, cdr.FieldBParty))
}

// mode returns the most frequent value, the lexically smallest on ties.
func mode(vals []string) string {
	counts := map[string]int{}
	for _, v := range vals {
		counts[v]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, bestN := "", 0
	for _, k := range keys {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}

// DeriveCallType maps the call type and TOC cells onto CALL/SMS x IN/OUT.
// Carrier codes win; otherwise keywords decide and OUT is the default.
func DeriveCallType(p operator.Profile, callType, toc string) cdr.CallType {
	for _, code := range []string{callType, toc} {
		if code == "" {
			continue
		}
		if ct, ok := p.CallType(code); ok {
			return ct
		}
	}
	s := strings.ToLower(callType + " " + toc)
	sms := strings.Contains(s, "sms")
	in := strings.Contains(s, "incoming") || strings.Contains(s, "terminat") || strings.Contains(s, "inbound")
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		switch tok {
		case "in", "mt", "mtc", "smsin", "smt":
			in = true
		}
	}
	switch {
	case sms && in:
		return cdr.SMSIn
	case sms:
		return cdr.SMSOut
	case in:
		return cdr.CallIn
	}
	return cdr.CallOut
}

// Counterparty picks the other side of an event. SMS from an alphanumeric
// sender keep the sender id.
func Counterparty(ct cdr.CallType, subscriber, aRaw, bRaw string, plan NumberPlan) string {
	if ct.IsSMS() {
		if IsSenderID(bRaw) {
			return squash(bRaw)
		}
		if IsSenderID(aRaw) {
			return squash(aRaw)
		}
	}
	a, b := plan.MSISDN(aRaw), plan.MSISDN(bRaw)
	switch {
	case a == subscriber && b != "":
		return b
	case b == subscriber && a != "":
		return a
	case b != "":
		return b
	}
	return a
}

func rawCounterparty(cp, aRaw, bRaw string, plan NumberPlan) string {
	if cp == "" {
		return ""
	}
	for _, raw := range []string{bRaw, aRaw} {
		if raw == cp || plan.MSISDN(raw) == cp {
			return strings.TrimSpace(raw)
		}
	}
	return cp
}

// CellID strips separators from a CGI so "404-45-1234-5678" and
// "4044512345678" compare equal.
func CellID(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, clean(s))
}

func squash(s string) string { return strings.Join(strings.Fields(s), " ") }
