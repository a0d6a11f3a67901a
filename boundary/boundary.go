// Package boundary classifies the counterparty of an event as domestic,
// in another state (circle) or international.
package boundary

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"

	"github.com/jalad-shrimali/cdr-analyzer/alias"
	"github.com/jalad-shrimali/cdr-analyzer/cdr"
)

type Class string

const (
	Domestic      Class = "domestic"
	CrossState    Class = "cross-state"
	International Class = "international"
)

// Result is the classification of one record. Ambiguous marks records that
// defaulted to domestic because a table had no matching prefix.
type Result struct {
	Class     Class
	Country   string
	Circle    string
	Provider  string
	Operator  string
	Ambiguous bool
}

// Carrier is what a prefix table knows about a number range.
type Carrier struct {
	Circle   string
	Provider string
	// Operator defaults to Provider when the table has no operator column.
	Operator string
}

// Tables are the prefix tables the classifier matches against.
type Tables struct {
	CountryCode    string
	NationalLength int
	// Countries maps international calling codes to country names.
	Countries map[string]string
	// Series maps national number prefixes to carriers.
	Series map[string]Carrier
	// LRN maps LRN prefixes to carriers.
	LRN map[string]Carrier
	// HomeCircle is assumed when a record carries none.
	HomeCircle string
}

// DefaultCountries covers the calling codes seen most often in Indian CDRs.
var DefaultCountries = map[string]string{
	"1":   "USA/Canada",
	"7":   "Russia",
	"20":  "Egypt",
	"27":  "South Africa",
	"33":  "France",
	"44":  "United Kingdom",
	"49":  "Germany",
	"60":  "Malaysia",
	"61":  "Australia",
	"62":  "Indonesia",
	"63":  "Philippines",
	"65":  "Singapore",
	"66":  "Thailand",
	"81":  "Japan",
	"82":  "South Korea",
	"86":  "China",
	"90":  "Turkey",
	"92":  "Pakistan",
	"93":  "Afghanistan",
	"94":  "Sri Lanka",
	"95":  "Myanmar",
	"98":  "Iran",
	"234": "Nigeria",
	"254": "Kenya",
	"880": "Bangladesh",
	"960": "Maldives",
	"965": "Kuwait",
	"966": "Saudi Arabia",
	"968": "Oman",
	"971": "UAE",
	"973": "Bahrain",
	"974": "Qatar",
	"975": "Bhutan",
	"977": "Nepal",
}

func DefaultTables() Tables {
	return Tables{CountryCode: "91", NationalLength: 10, Countries: DefaultCountries}
}

type Classifier struct {
	t Tables
}

func New(t Tables) *Classifier {
	if t.NationalLength == 0 {
		t.NationalLength = 10
	}
	return &Classifier{t: t}
}

// Classify looks at the counterparty of r. Sender ids and short codes are
// domestic.
func (c *Classifier) Classify(r *cdr.Record) Result {
	num := r.Counterparty
	if num == "" || strings.IndexFunc(num, func(ch rune) bool { return ch < '0' || ch > '9' }) >= 0 {
		return Result{Class: Domestic}
	}
	raw := strings.TrimSpace(r.CounterpartyRaw)
	dialled := strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "00")
	if len(num) > c.t.NationalLength || (dialled && !strings.HasPrefix(strings.TrimLeft(digitsOf(raw), "0"), c.t.CountryCode)) {
		country, ok := longest(c.t.Countries, num)
		return Result{Class: International, Country: country, Ambiguous: !ok}
	}
	if len(num) < c.t.NationalLength {
		return Result{Class: Domestic}
	}

	home := r.HomeCircle
	if home == "" {
		home = c.t.HomeCircle
	}
	if home == "" {
		own, _ := longest(c.t.Series, r.Subscriber)
		home = own.Circle
	}
	var (
		carrier Carrier
		ok      bool
	)
	if r.LRN != "" {
		carrier, ok = longest(c.t.LRN, r.LRN)
	}
	if !ok {
		carrier, ok = longest(c.t.Series, num)
	}
	res := Result{Class: Domestic, Circle: carrier.Circle, Provider: carrier.Provider, Operator: carrier.Operator}
	switch {
	case !ok || carrier.Circle == "" || home == "":
		res.Ambiguous = true
	case alias.Key(carrier.Circle) != alias.Key(home):
		res.Class = CrossState
	}
	return res
}

func digitsOf(s string) string {
	return strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return -1
		}
		return r
	}, s)
}

// longest finds the value of the longest key of m that prefixes s.
func longest[V any](m map[string]V, s string) (V, bool) {
	for n := len(s); n > 0; n-- {
		if v, ok := m[s[:n]]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// LoadPrefixes reads a prefix table such as the operators' LRN.csv. The
// header must name a prefix column (lrn, lrn no, prefix or series) and at
// least one of circle, provider (tsp) or operator.
func LoadPrefixes(r io.Reader) (map[string]Carrier, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read prefix table")
	}
	if len(rows) == 0 {
		return nil, errors.New("prefix table is empty")
	}
	col := func(keys ...string) int {
		for i, h := range rows[0] {
			for _, k := range keys {
				if alias.Key(h) == alias.Key(k) {
					return i
				}
			}
		}
		return -1
	}
	iPrefix := col("lrn", "lrn no", "prefix", "series")
	iCircle, iProvider, iOperator := col("circle"), col("tsp", "provider"), col("operator")
	if iPrefix < 0 || (iCircle < 0 && iProvider < 0 && iOperator < 0) {
		return nil, errors.Errorf("prefix table needs a prefix column and a circle, provider or operator column, got %v", rows[0])
	}
	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	out := map[string]Carrier{}
	for _, row := range rows[1:] {
		key := digitsOf(cell(row, iPrefix))
		c := Carrier{Circle: cell(row, iCircle), Provider: cell(row, iProvider), Operator: cell(row, iOperator)}
		if c.Operator == "" {
			c.Operator = c.Provider
		}
		if key == "" || c == (Carrier{}) {
			continue
		}
		out[key] = c
	}
	return out, nil
}

// LoadPrefixesFile is LoadPrefixes over a file path.
func LoadPrefixesFile(path string) (map[string]Carrier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open prefix table")
	}
	defer f.Close()
	return LoadPrefixes(f)
}
