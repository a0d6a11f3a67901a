// Package source reads carrier CDR exports (CSV or XLSX) into header plus
// rows, stripping the banner lines some carriers put above the header.
package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jalad-shrimali/cdr-analyzer/airtel"
	"github.com/jalad-shrimali/cdr-analyzer/alias"
	"github.com/jalad-shrimali/cdr-analyzer/bsnl"
	"github.com/jalad-shrimali/cdr-analyzer/jio"
	"github.com/jalad-shrimali/cdr-analyzer/operator"
	"github.com/jalad-shrimali/cdr-analyzer/vi"
)

// headerScan bounds how far down a sheet the header row is searched for.
const headerScan = 50

// minHeaderMatches is the number of recognised column names that marks a
// row as the header.
const minHeaderMatches = 3

// File is one loaded export.
type File struct {
	Name       string
	Header     []string
	Rows       [][]string
	Preamble   []string
	Subscriber string
	Profile    operator.Profile
}

// Input is anything the engine can load a File from.
type Input interface {
	Name() string
	Load(ctx context.Context) (*File, error)
}

// Profiles returns the known carrier profiles in detection order.
func Profiles() []operator.Profile {
	return []operator.Profile{airtel.Profile, jio.Profile, vi.Profile, bsnl.Profile}
}

type Reader struct {
	Aliases  alias.Map
	Profiles []operator.Profile
}

func NewReader(aliases alias.Map) *Reader {
	return &Reader{Aliases: aliases, Profiles: Profiles()}
}

// Path returns an input reading the file at path.
func (r *Reader) Path(path string) Input {
	return &fileInput{r: r, name: filepath.Base(path), open: func() (io.ReadCloser, error) { return os.Open(path) }}
}

// Bytes returns an input over an in-memory upload.
func (r *Reader) Bytes(name string, data []byte) Input {
	return &fileInput{r: r, name: name, open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}}
}

type fileInput struct {
	r    *Reader
	name string
	open func() (io.ReadCloser, error)
}

func (in *fileInput) Name() string { return in.name }

func (in *fileInput) Load(ctx context.Context) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := in.open()
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}
	var rows [][]string
	switch format(in.name, data) {
	case formatXLSX:
		rows, err = readXLSX(bytes.NewReader(data))
	case formatCSV:
		rows, err = readCSV(bytes.NewReader(data))
	default:
		return nil, errors.Errorf("%s: unsupported content type %s", in.name, mimetype.Detect(data))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", in.name)
	}
	return in.r.Table(in.name, rows)
}

const (
	formatUnknown = iota
	formatCSV
	formatXLSX
)

// format sniffs the content first so uploads with a wrong or missing
// extension still load; the extension decides only when the content is
// inconclusive.
func format(name string, data []byte) int {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return formatXLSX
		}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return formatXLSX
	case ".csv", ".txt":
		return formatCSV
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return formatCSV
		}
	}
	return formatUnknown
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	return rows, isoDates(f, sheets[0], rows, raw)
}

// isoDates rewrites date-styled cells as ISO text. The formatted value
// follows the workbook's number format, which is often month-first and
// would be misread by the day-first parsers.
func isoDates(f *excelize.File, sheet string, rows, raw [][]string) error {
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	styles := map[int]bool{}
	for i, row := range rows {
		if i >= len(raw) {
			break
		}
		for j, cell := range row {
			if j >= len(raw[i]) || raw[i][j] == cell {
				continue
			}
			serial, err := strconv.ParseFloat(raw[i][j], 64)
			if err != nil {
				continue
			}
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			id, err := f.GetCellStyle(sheet, name)
			if err != nil {
				return err
			}
			isDate, seen := styles[id]
			if !seen {
				isDate = dateStyle(f, id)
				styles[id] = isDate
			}
			if !isDate {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			rows[i][j] = isoTime(serial, t)
		}
	}
	return nil
}

// Built-in number formats 14-22 and 45-47 are dates or times.
func dateStyle(f *excelize.File, id int) bool {
	st, err := f.GetStyle(id)
	if err != nil || st == nil {
		return false
	}
	if st.CustomNumFmt != nil {
		return dateFormat(*st.CustomNumFmt)
	}
	return (st.NumFmt >= 14 && st.NumFmt <= 22) || (st.NumFmt >= 45 && st.NumFmt <= 47)
}

// dateFormat reports whether a custom number format shows a date or time
// part. Quoted literals and bracketed sections are ignored.
func dateFormat(code string) bool {
	var quoted, bracket bool
	for _, c := range strings.ToLower(code) {
		switch {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[':
			bracket = true
		case c == ']':
			bracket = false
		case bracket:
		case c == 'y', c == 'd', c == 'h', c == 's':
			return true
		}
	}
	return false
}

func isoTime(serial float64, t time.Time) string {
	switch {
	case serial < 1:
		return t.Format("15:04:05")
	case serial == math.Trunc(serial):
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// Table locates the header row, detects the carrier and returns the data
// rows padded to the header width.
func (r *Reader) Table(name string, rows [][]string) (*File, error) {
	detect := r.Aliases
	for _, p := range r.Profiles {
		detect = detect.Extend(p.Aliases)
	}
	start := -1
	for i := 0; i < len(rows) && i < headerScan; i++ {
		if detect.Matches(rows[i]) >= minHeaderMatches {
			start = i
			break
		}
	}
	if start < 0 {
		if len(rows) == 0 {
			return nil, errors.New("empty file")
		}
		start = 0
	}

	f := &File{Name: name, Header: trimAll(rows[start])}
	for _, row := range rows[:start] {
		if line := strings.TrimSpace(strings.Join(row, " ")); line != "" {
			f.Preamble = append(f.Preamble, line)
		}
	}
	f.Profile = operator.Detect(r.Profiles, f.Preamble, f.Header)
	f.Subscriber = banner(f.Profile, r.Profiles, f.Preamble)

	for _, row := range rows[start+1:] {
		if blank(row) || footer(row) {
			continue
		}
		f.Rows = append(f.Rows, pad(row, len(f.Header)))
	}
	return f, nil
}

// Memory is an input over an already split table.
type Memory struct {
	FileName string
	Header   []string
	Rows     [][]string
	Profile  operator.Profile
	// Banner is the number a carrier prints above the header, if any.
	Banner string
}

func (m *Memory) Name() string { return m.FileName }

func (m *Memory) Load(ctx context.Context) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.Header) == 0 {
		return nil, errors.New("empty header")
	}
	p := m.Profile
	if p.Name == "" {
		p = operator.Generic
	}
	f := &File{Name: m.FileName, Header: trimAll(m.Header), Profile: p, Subscriber: m.Banner}
	for _, row := range m.Rows {
		f.Rows = append(f.Rows, pad(row, len(m.Header)))
	}
	return f, nil
}

// Resolve maps the file header with the base aliases plus those of the
// detected carrier.
func (f *File) Resolve(base alias.Map) (alias.Resolution, error) {
	return base.Extend(f.Profile.Aliases).Resolve(f.Header)
}

func banner(p operator.Profile, all []operator.Profile, lines []string) string {
	for _, l := range lines {
		if s := p.Subscriber(l); s != "" {
			return s
		}
	}
	for _, q := range all {
		for _, l := range lines {
			if s := q.Subscriber(l); s != "" {
				return s
			}
		}
	}
	return ""
}

func trimAll(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// footer matches the "this is system generated" trailer of operator exports.
func footer(row []string) bool {
	for _, c := range row {
		s := strings.ToLower(strings.TrimSpace(c))
		if s == "" {
			continue
		}
		return strings.HasPrefix(s, "this is system") || strings.Contains(s, "system generated")
	}
	return false
}

func pad(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
