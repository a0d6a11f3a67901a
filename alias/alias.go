// Package alias maps the header of a CDR export onto canonical fields.
package alias

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
)

// Entry lists the accepted header variants of one canonical field, in
// priority order.
type Entry struct {
	Field    cdr.Field
	Variants []string
}

// Requirement is satisfied when any of its fields resolves.
type Requirement struct {
	Name  string
	AnyOf []cdr.Field
}

// Map is an ordered alias table. The zero value resolves nothing.
type Map struct {
	entries  []Entry
	required []Requirement
}

// Key folds a header cell for matching: lower case, with whitespace and
// punctuation removed.
func Key(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func New(entries []Entry, required []Requirement) Map {
	m := Map{required: append([]Requirement(nil), required...)}
	for _, e := range entries {
		m.entries = append(m.entries, Entry{Field: e.Field, Variants: append([]string(nil), e.Variants...)})
	}
	return m
}

// Default is the alias table used for operator exports of all four carriers.
func Default() Map {
	return New([]Entry{
		{cdr.FieldTarget, []string{"target /a party number", "target no", "cdr party no", "target", "target number"}},
		{cdr.FieldAParty, []string{"calling party telephone number", "a party number", "msisdn a", "a_number", "calling party", "a party"}},
		{cdr.FieldBParty, []string{"called party telephone number", "b party number", "b party no", "called party", "b party", "other party"}},
		{cdr.FieldCallForward, []string{"call forwarding", "call fow no", "call forwarding number", "callforward"}},
		{cdr.FieldLRN, []string{"lrn called no", "lrn no", "translation of lrn", "lrn"}},
		{cdr.FieldDateTime, []string{"call date time", "date time", "datetime", "call start date time", "start date time"}},
		{cdr.FieldDate, []string{"call date", "date", "start date"}},
		{cdr.FieldTime, []string{"call time", "time", "call initiation time", "start time"}},
		{cdr.FieldDuration, []string{"call duration", "dur(s)", "duration", "hold time (sec)", "durations"}},
		{cdr.FieldCallType, []string{"call type", "service type", "event type", "dir", "toc", "type of connection"}},
		{cdr.FieldTOC, []string{"toc", "type of connection"}},
		{cdr.FieldFirstCell, []string{"first cell id", "first cgi", "first cell global id", "firstcellid"}},
		{cdr.FieldLastCell, []string{"last cell id", "last cgi", "last cell global id", "lastcellid"}},
		{cdr.FieldFirstCellAddr, []string{"first bts location", "first cell site address", "first cell address", "first cell site location"}},
		{cdr.FieldLastCellAddr, []string{"last bts location", "last cell site address", "last cell address", "last cell site location"}},
		{cdr.FieldFirstCellCity, []string{"first cell site name-city", "first cell site name", "first cell city", "first site name"}},
		{cdr.FieldFirstLatLong, []string{"first lat/long", "first cgi lat/long", "first latitude/longitude", "first lat long"}},
		{cdr.FieldSMSC, []string{"sms center number", "smsc no", "smsc", "sms center"}},
		{cdr.FieldIMEI, []string{"imei", "esn_imei_a", "device imei"}},
		{cdr.FieldIMSI, []string{"imsi", "imsi_a", "subscriber imsi"}},
		{cdr.FieldRoamingCircle, []string{"roaming circle name", "roam circle", "circle", "roaming"}},
		{cdr.FieldHomeCircle, []string{"home circle", "home region", "home state"}},
		{cdr.FieldOperator, []string{"operator", "service provider", "sp", "provider"}},
	}, []Requirement{
		{Name: "timestamp", AnyOf: []cdr.Field{cdr.FieldDate, cdr.FieldDateTime}},
		{Name: "party", AnyOf: []cdr.Field{cdr.FieldTarget, cdr.FieldAParty, cdr.FieldBParty}},
	})
}

// Extend returns a copy of m with extra variants appended after the existing
// ones. Unknown fields become new entries at the end of the table.
func (m Map) Extend(extra map[cdr.Field][]string) Map {
	out := New(m.entries, m.required)
	if len(extra) == 0 {
		return out
	}
	seen := map[cdr.Field]bool{}
	for i := range out.entries {
		f := out.entries[i].Field
		seen[f] = true
		out.entries[i].Variants = append(out.entries[i].Variants, extra[f]...)
	}
	var added []cdr.Field
	for f := range extra {
		if !seen[f] {
			added = append(added, f)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	for _, f := range added {
		out.entries = append(out.entries, Entry{Field: f, Variants: append([]string(nil), extra[f]...)})
	}
	return out
}

// Matches reports how many header cells are recognised by any variant.
func (m Map) Matches(row []string) int {
	keys := m.keys()
	n := 0
	for _, c := range row {
		if _, ok := keys[Key(c)]; ok {
			n++
		}
	}
	return n
}

func (m Map) keys() map[string]struct{} {
	out := map[string]struct{}{}
	for _, e := range m.entries {
		for _, v := range e.Variants {
			out[Key(v)] = struct{}{}
		}
	}
	return out
}

// Resolution is the outcome of resolving one header.
type Resolution struct {
	Columns  map[cdr.Field]int
	Extras   map[int]string
	Warnings []string
}

// Index returns the column of f, or -1.
func (r Resolution) Index(f cdr.Field) int {
	if i, ok := r.Columns[f]; ok {
		return i
	}
	return -1
}

func (r Resolution) Has(f cdr.Field) bool { return r.Index(f) >= 0 }

// Resolve maps header onto canonical fields. For each field every column
// whose folded name equals one of the variants is a candidate; the first one
// in file order wins and the rest are reported as warnings. Columns that
// serve no field are kept as extras.
func (m Map) Resolve(header []string) (Resolution, error) {
	res := Resolution{Columns: map[cdr.Field]int{}, Extras: map[int]string{}}
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = Key(h)
	}
	used := make([]bool, len(header))
	for _, e := range m.entries {
		if _, done := res.Columns[e.Field]; done {
			continue
		}
		want := map[string]bool{}
		for _, v := range e.Variants {
			want[Key(v)] = true
		}
		var hits []int
		for i, k := range folded {
			if k != "" && want[k] {
				hits = append(hits, i)
			}
		}
		if len(hits) == 0 {
			continue
		}
		res.Columns[e.Field] = hits[0]
		for _, i := range hits {
			used[i] = true
		}
		for _, i := range hits[1:] {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"column %d %q also matches %s, using column %d %q",
				i+1, header[i], e.Field, hits[0]+1, header[hits[0]]))
		}
	}
	for i, h := range header {
		if !used[i] && strings.TrimSpace(h) != "" {
			res.Extras[i] = strings.TrimSpace(h)
		}
	}

	var missing []string
	for _, req := range m.required {
		ok := false
		for _, f := range req.AnyOf {
			if res.Has(f) {
				ok = true
				break
			}
		}
		if !ok {
			missing = append(missing, req.Name)
		}
	}
	if len(missing) > 0 {
		return res, &MissingRequiredColumnError{Missing: missing, Header: append([]string(nil), header...)}
	}
	return res, nil
}

// MissingRequiredColumnError names every requirement the header could not
// satisfy.
type MissingRequiredColumnError struct {
	Missing []string
	Header  []string
}

func (e *MissingRequiredColumnError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}
