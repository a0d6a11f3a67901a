// Package rank groups records, aggregates them and orders the resulting
// tables.
package rank

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

type Kind int

const (
	String Kind = iota
	Int
	Float
	Time
)

type Column struct {
	Name string
	Kind Kind
}

type SortKey struct {
	Column string
	Desc   bool
}

func Asc(col string) SortKey  { return SortKey{Column: col} }
func Desc(col string) SortKey { return SortKey{Column: col, Desc: true} }

// View is a named table. Cells hold string, int64, float64 or time.Time
// according to the column kind.
type View struct {
	Name    string
	Columns []Column
	Rows    [][]any
	Sort    []SortKey
}

func NewView(name string, cols []Column, order ...SortKey) *View {
	return &View{Name: name, Columns: cols, Sort: order}
}

// Append adds a row, widening int cells to int64.
func (v *View) Append(cells ...any) {
	if len(cells) != len(v.Columns) {
		panic(fmt.Sprintf("rank: view %s has %d columns, row has %d", v.Name, len(v.Columns), len(cells)))
	}
	row := make([]any, len(cells))
	for i, c := range cells {
		if n, ok := c.(int); ok {
			c = int64(n)
		}
		row[i] = c
	}
	v.Rows = append(v.Rows, row)
}

func (v *View) column(name string) int {
	for i, c := range v.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Rank orders the rows by the sort keys, then by every column ascending, so
// the order is total over distinct rows and stable otherwise.
func (v *View) Rank() error {
	type key struct {
		idx  int
		desc bool
	}
	keys := make([]key, 0, len(v.Sort)+len(v.Columns))
	for _, s := range v.Sort {
		i := v.column(s.Column)
		if i < 0 {
			return errors.Errorf("view %s: unknown sort column %q", v.Name, s.Column)
		}
		keys = append(keys, key{i, s.Desc})
	}
	for i := range v.Columns {
		keys = append(keys, key{idx: i})
	}
	sort.SliceStable(v.Rows, func(a, b int) bool {
		for _, k := range keys {
			c := compare(v.Columns[k.idx].Kind, v.Rows[a][k.idx], v.Rows[b][k.idx])
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return nil
}

// Top keeps the first n rows; n <= 0 keeps all.
func (v *View) Top(n int) {
	if n > 0 && len(v.Rows) > n {
		v.Rows = v.Rows[:n]
	}
}

func compare(k Kind, a, b any) int {
	switch k {
	case Int:
		x, y := toInt(a), toInt(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case Float:
		x, y := toFloat(a), toFloat(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case Time:
		x, _ := a.(time.Time)
		y, _ := b.(time.Time)
		return x.Compare(y)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}
