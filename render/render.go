// Package render writes analysis views to an XLSX workbook.
package render

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/rank"
)

const (
	DiagnosticsSheet = "Diagnostics"
	TimeLayout       = "2006-01-02 15:04:05"
	// excelize rejects longer sheet names.
	maxSheetName = 31
)

var diagnosticsHeader = []any{
	"Run ID", "File", "Operator", "Subscriber", "Rows In", "Rows Kept", "Rows Skipped",
	"Skip Reasons", "Warnings", "Fatal", "Case",
}

// Workbook writes one sheet per view, in order, followed by the
// diagnostics sheet.
func Workbook(w io.Writer, views []*rank.View, diag cdr.Diagnostics) error {
	x := excelize.NewFile()
	defer x.Close()

	header, err := x.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "header style")
	}
	for _, v := range views {
		if err := writeView(x, v, header); err != nil {
			return errors.Wrapf(err, "sheet %s", v.Name)
		}
	}
	if err := writeDiagnostics(x, diag, header); err != nil {
		return errors.Wrap(err, "diagnostics sheet")
	}
	if err := x.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "drop default sheet")
	}
	x.SetActiveSheet(0)
	if _, err := x.WriteTo(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

func sheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}

func writeView(x *excelize.File, v *rank.View, header int) error {
	name := sheetName(v.Name)
	if _, err := x.NewSheet(name); err != nil {
		return err
	}
	sw, err := x.NewStreamWriter(name)
	if err != nil {
		return err
	}
	head := make([]any, len(v.Columns))
	for i, c := range v.Columns {
		head[i] = excelize.Cell{StyleID: header, Value: c.Name}
	}
	if err := sw.SetRow("A1", head); err != nil {
		return err
	}
	for r, row := range v.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, Values(row)); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// Values converts view cells into what the sheet shows: times as text in
// TimeLayout, zero times as blanks.
func Values(row []any) []any {
	out := make([]any, len(row))
	for i, c := range row {
		if t, ok := c.(time.Time); ok {
			if t.IsZero() {
				c = ""
			} else {
				c = t.Format(TimeLayout)
			}
		}
		out[i] = c
	}
	return out
}

func writeDiagnostics(x *excelize.File, diag cdr.Diagnostics, header int) error {
	if _, err := x.NewSheet(DiagnosticsSheet); err != nil {
		return err
	}
	if err := x.SetSheetRow(DiagnosticsSheet, "A1", &diagnosticsHeader); err != nil {
		return err
	}
	if err := x.SetRowStyle(DiagnosticsSheet, 1, 1, header); err != nil {
		return err
	}
	row := 2
	put := func(cells []any) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return x.SetSheetRow(DiagnosticsSheet, cell, &cells)
	}
	for _, f := range diag.Files {
		reasons := make([]string, 0, len(f.SkipReasons))
		for _, r := range f.Reasons() {
			reasons = append(reasons, r+": "+strconv.Itoa(f.SkipReasons[r]))
		}
		err := put([]any{diag.RunID, f.File, f.Operator, f.Subscriber, f.RowsIn, f.RowsKept, f.RowsSkipped,
			strings.Join(reasons, "; "), strings.Join(f.Warnings, "; "), f.Fatal, diag.Case})
		if err != nil {
			return err
		}
	}
	for _, w := range diag.Warnings {
		if err := put([]any{diag.RunID, "", "", "", "", "", "", "", w, "", diag.Case}); err != nil {
			return err
		}
	}
	return nil
}
