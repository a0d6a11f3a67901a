package normalize

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jalad-shrimali/cdr-analyzer/alias"
	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/jio"
	"github.com/jalad-shrimali/cdr-analyzer/operator"
	"github.com/jalad-shrimali/cdr-analyzer/source"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 5, 10, 22, 33, 0, time.UTC)
	tests := []struct {
		date, clock string
	}{
		{"05/01/2024", "10:22:33"},
		{"5/1/2024", "10:22:33"},
		{"05-01-2024", "102233"},
		{"2024-01-05", "10:22:33"},
		{"05.01.2024", "10:22:33 AM"},
		{"05-Jan-2024", "10:22:33"},
		{"05-JAN-24", "10:22:33"},
		{"2024-01-05 10:22:33", ""},
		{"05/01/2024 10:22:33", ""},
		{"'05/01/2024'", "'10:22:33'"},
		{"2024-01-05 00:00:00", "10:22:33"},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.date, tt.clock)
		require.True(t, ok, "%q %q", tt.date, tt.clock)
		assert.Equal(t, want, got, "%q %q", tt.date, tt.clock)
	}

	got, ok := ParseTimestamp("12/31/2024", "23:59")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), got)

	got, ok = ParseTimestamp("05/01/2024", "10:22 PM")
	require.True(t, ok)
	assert.Equal(t, 22, got.Hour())

	for _, bad := range [][2]string{{"", "10:00:00"}, {"yesterday", ""}, {"05/01/2024", "noon"}, {"31/31/2024", ""}} {
		_, ok := ParseTimestamp(bad[0], bad[1])
		assert.False(t, ok, "%q %q", bad[0], bad[1])
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"45", 45, true},
		{"'120'", 120, true},
		{"1:02:03", 3723, true},
		{"02:30", 150, true},
		{"12.9", 12, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-5", 0, false},
		{"1:xx", 0, false},
		{"nan", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
		{"-Inf", 0, false},
		{"1e30", 0, false},
		{"9223372036854775807:00", 0, false},
		{"1e3", 1000, true},
	}
	for _, tt := range tests {
		got, ok := ParseDuration(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMSISDN(t *testing.T) {
	p := DefaultPlan
	assert.Equal(t, "9876543210", p.MSISDN("+91 98765-43210"))
	assert.Equal(t, "9876543210", p.MSISDN("09876543210"))
	assert.Equal(t, "9876543210", p.MSISDN("919876543210"))
	assert.Equal(t, "14155551234", p.MSISDN("+1 415 555 1234"))
	assert.Equal(t, "14155551234", p.MSISDN("0014155551234"))
	assert.Equal(t, "121", p.MSISDN("121"))
	assert.Equal(t, "", p.MSISDN("N/A"))
}

func TestDeriveCallType(t *testing.T) {
	tests := []struct {
		ct, toc string
		want    cdr.CallType
	}{
		{"A_IN", "", cdr.CallIn},
		{"MOC", "", cdr.CallOut},
		{"Incoming", "", cdr.CallIn},
		{"Outgoing", "", cdr.CallOut},
		{"SMS", "MT", cdr.SMSIn},
		{"sms_in", "", cdr.SMSIn},
		{"SMS", "", cdr.SMSOut},
		{"", "", cdr.CallOut},
		{"voice", "terminating", cdr.CallIn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveCallType(jio.Profile, tt.ct, tt.toc), "%q %q", tt.ct, tt.toc)
	}
}

func TestCounterparty(t *testing.T) {
	sub := "9876543210"
	p := DefaultPlan
	assert.Equal(t, "9123456789", Counterparty(cdr.CallOut, sub, "9876543210", "+91 9123456789", p))
	assert.Equal(t, "9123456789", Counterparty(cdr.CallIn, sub, "09123456789", "9876543210", p))
	assert.Equal(t, "VK-HDFCBK", Counterparty(cdr.SMSIn, sub, "VK-HDFCBK", "9876543210", p))
	assert.Equal(t, "9123456789", Counterparty(cdr.CallOut, sub, "", "9123456789", p))
	assert.Equal(t, "", Counterparty(cdr.CallOut, sub, "", "", p))
}

func load(t *testing.T, m *source.Memory) (*source.File, alias.Resolution) {
	t.Helper()
	f, err := m.Load(context.Background())
	require.NoError(t, err)
	res, err := f.Resolve(alias.Default())
	require.NoError(t, err)
	return f, res
}

func TestNormalize(t *testing.T) {
	f, res := load(t, &source.Memory{
		FileName: "a.csv",
		Header:   []string{"Target No", "B Party No", "Call Date", "Call Time", "Dur(s)", "Call Type", "First CGI", "Roaming Circle Name", "Crime"},
		Rows: [][]string{
			{"919876543210", "9123456789", "05/01/2024", "10:00:00", "60", "OUT", "404-45-1-2", "", "x"},
			{"919876543210", "9123456789", "05/01/2024", "10:00:00", "60", "OUT", "404-45-1-2", "", "x"},
			{"919876543210", "9123456789", "not a date", "10:00:00", "60", "OUT", "", "", ""},
			{"919876543210", "VM-JIOINF", "05/01/2024", "11:00:00", "", "SMS IN", "", "Delhi", ""},
		},
	})

	b := New(Options{HomeCircle: "Mumbai"}).Normalize(f, res, 3)

	require.Len(t, b.Records, 2)
	first := b.Records[0]
	assert.Equal(t, "9876543210", first.Subscriber)
	assert.Equal(t, "9123456789", first.Counterparty)
	assert.Equal(t, int64(60), first.Duration)
	assert.Equal(t, cdr.CallOut, first.Type)
	assert.Equal(t, "4044512", first.CellID)
	assert.Equal(t, 3, first.FileIndex)
	assert.Equal(t, 1, first.Row)
	assert.False(t, first.Roaming)
	assert.Equal(t, map[string]string{"Crime": "x"}, first.Extra)

	sms := b.Records[1]
	assert.Equal(t, "VM-JIOINF", sms.Counterparty)
	assert.Equal(t, cdr.SMSIn, sms.Type)
	assert.Zero(t, sms.Duration)
	assert.True(t, sms.Roaming)
	assert.Equal(t, 4, sms.Row)

	assert.Equal(t, 4, b.Report.RowsIn)
	assert.Equal(t, 2, b.Report.RowsKept)
	assert.Equal(t, 2, b.Report.RowsSkipped)
	assert.Equal(t, 1, b.Report.SkipReasons[cdr.SkipDuplicate])
	assert.Equal(t, 1, b.Report.SkipReasons[cdr.SkipTimestamp])
	require.Len(t, b.Report.Warnings, 1)
	assert.Contains(t, b.Report.Warnings[0], "1 rows")
}

func TestNormalizeXLSXDateCells(t *testing.T) {
	x := excelize.NewFile()
	sheet := x.GetSheetName(0)
	require.NoError(t, x.SetSheetRow(sheet, "A1", &[]any{"Target No", "Call Date", "Call Time", "B Party No", "Dur(s)"}))
	style, err := x.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	for i, day := range []int{5, 13} {
		cell := fmt.Sprintf("B%d", i+2)
		require.NoError(t, x.SetCellValue(sheet, cell, time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, x.SetCellStyle(sheet, cell, cell, style))
		require.NoError(t, x.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), "9876543210"))
		require.NoError(t, x.SetSheetRow(sheet, fmt.Sprintf("C%d", i+2), &[]any{"10:30:00", "9123456789", "12"}))
	}
	buf, err := x.WriteToBuffer()
	require.NoError(t, err)

	f, err := source.NewReader(alias.Default()).Bytes("dates.xlsx", buf.Bytes()).Load(context.Background())
	require.NoError(t, err)
	res, err := f.Resolve(alias.Default())
	require.NoError(t, err)
	b := New(Options{}).Normalize(f, res, 0)

	require.Len(t, b.Records, 2)
	assert.Equal(t, time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC), b.Records[0].Time)
	assert.Equal(t, time.Date(2024, 1, 13, 10, 30, 0, 0, time.UTC), b.Records[1].Time)
}

func TestNormalizeSubscriberFallbacks(t *testing.T) {
	f, res := load(t, &source.Memory{
		FileName: "b.csv",
		Header:   []string{"Calling Party Telephone Number", "Called Party Telephone Number", "Date", "Time"},
		Rows: [][]string{
			{"9000000001", "9000000002", "01/02/2024", "08:00"},
			{"9000000003", "9000000001", "01/02/2024", "09:00"},
		},
	})
	b := New(Options{}).Normalize(f, res, 0)
	require.Len(t, b.Records, 2)
	assert.Equal(t, "9000000001", b.Records[0].Subscriber)
	assert.Equal(t, "9000000002", b.Records[0].Counterparty)
	assert.Equal(t, "9000000003", b.Records[1].Counterparty)

	f.Subscriber = "9000000003"
	b = New(Options{}).Normalize(f, res, 0)
	assert.Equal(t, "9000000003", b.Report.Subscriber, "banner wins over party mode")
}

func TestNormalizeMissingSubscriber(t *testing.T) {
	f, res := load(t, &source.Memory{
		FileName: "c.csv",
		Header:   []string{"B Party", "Date"},
		Rows:     [][]string{{"", "01/02/2024"}},
		Profile:  operator.Generic,
	})
	b := New(Options{}).Normalize(f, res, 0)
	assert.Empty(t, b.Records)
	assert.Equal(t, 1, b.Report.SkipReasons[cdr.SkipSubscriber])
}
