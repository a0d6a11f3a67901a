// Package cdr holds the normalized call-detail-record model shared by every
// analysis stage.
package cdr

import "time"

// Field is a canonical column name.
type Field string

const (
	FieldTarget        Field = "target"
	FieldAParty        Field = "a_party"
	FieldBParty        Field = "b_party"
	FieldCallForward   Field = "call_forward"
	FieldLRN           Field = "lrn"
	FieldDate          Field = "call_date"
	FieldDateTime      Field = "call_datetime"
	FieldTime          Field = "call_time"
	FieldDuration      Field = "duration"
	FieldCallType      Field = "call_type"
	FieldTOC           Field = "toc"
	FieldFirstCell     Field = "first_cell_id"
	FieldFirstCellAddr Field = "first_cell_address"
	FieldFirstCellCity Field = "first_cell_city"
	FieldFirstLatLong  Field = "first_lat_long"
	FieldLastCell      Field = "last_cell_id"
	FieldLastCellAddr  Field = "last_cell_address"
	FieldSMSC          Field = "smsc"
	FieldIMEI          Field = "imei"
	FieldIMSI          Field = "imsi"
	FieldRoamingCircle Field = "roaming_circle"
	FieldHomeCircle    Field = "home_circle"
	FieldOperator      Field = "operator"
)

// Fields lists every canonical column.
var Fields = []Field{
	FieldTarget, FieldAParty, FieldBParty, FieldCallForward, FieldLRN, FieldDate, FieldDateTime,
	FieldTime, FieldDuration, FieldCallType, FieldTOC, FieldFirstCell, FieldFirstCellAddr,
	FieldFirstCellCity, FieldFirstLatLong, FieldLastCell, FieldLastCellAddr, FieldSMSC, FieldIMEI,
	FieldIMSI, FieldRoamingCircle, FieldHomeCircle, FieldOperator,
}

// ParseField returns the canonical field named s.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// CallType is the derived direction/medium of an event.
type CallType string

const (
	CallIn  CallType = "CALL_IN"
	CallOut CallType = "CALL_OUT"
	SMSIn   CallType = "SMS_IN"
	SMSOut  CallType = "SMS_OUT"
)

func (c CallType) IsSMS() bool      { return c == SMSIn || c == SMSOut }
func (c CallType) IsIncoming() bool { return c == CallIn || c == SMSIn }

// Record is one cleaned event. Time is timezone-naive and always carries the
// UTC location; Duration is whole seconds.
type Record struct {
	Subscriber      string
	Counterparty    string
	CounterpartyRaw string
	Time            time.Time
	Duration        int64
	Type            CallType

	CellID          string
	CellAddress     string
	CellCity        string
	LatLong         string
	LastCellID      string
	LastCellAddress string

	IMEI        string
	IMSI        string
	Circle      string
	HomeCircle  string
	Roaming     bool
	Operator    string
	LRN         string
	CallForward string

	SourceFile string
	FileIndex  int
	Row        int
	Extra      map[string]string
}

// Before orders records by time, then by position in the input batch.
func (r *Record) Before(o *Record) bool {
	if !r.Time.Equal(o.Time) {
		return r.Time.Before(o.Time)
	}
	if r.FileIndex != o.FileIndex {
		return r.FileIndex < o.FileIndex
	}
	return r.Row < o.Row
}

// Day returns the calendar day of the event as YYYY-MM-DD.
func (r *Record) Day() string { return r.Time.Format("2006-01-02") }
