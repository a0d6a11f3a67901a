package cdr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordBefore(t *testing.T) {
	at := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	a := Record{Time: at, FileIndex: 0, Row: 7}
	b := Record{Time: at, FileIndex: 1, Row: 1}
	c := Record{Time: at.Add(time.Second), FileIndex: 0, Row: 1}

	assert.True(t, a.Before(&b))
	assert.False(t, b.Before(&a))
	assert.True(t, b.Before(&c))
	assert.False(t, a.Before(&a))
}

func TestCallType(t *testing.T) {
	assert.True(t, SMSIn.IsSMS())
	assert.True(t, SMSIn.IsIncoming())
	assert.False(t, CallOut.IsIncoming())
	assert.False(t, CallIn.IsSMS())
}

func TestFileReportSkip(t *testing.T) {
	var r FileReport
	r.Skip(SkipTimestamp)
	r.Skip(SkipDuplicate)
	r.Skip(SkipTimestamp)

	assert.Equal(t, 3, r.RowsSkipped)
	assert.Equal(t, 2, r.SkipReasons[SkipTimestamp])
	assert.Equal(t, []string{SkipDuplicate, SkipTimestamp}, r.Reasons())
}
