// Package bsnl holds the BSNL export profile.
package bsnl

import (
	"regexp"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/operator"
)

var Profile = operator.Profile{
	Name:    "bsnl",
	Banner:  regexp.MustCompile(`(?i)search\s*value[^0-9]*([0-9]{8,15})`),
	Markers: []string{"search value", "other_party_no", "last_cell_desc"},
	Aliases: map[cdr.Field][]string{
		cdr.FieldTarget:       {"search value"},
		cdr.FieldTime:         {"call_initiation_time", "cit"},
		cdr.FieldBParty:       {"other_party_no"},
		cdr.FieldLastCellAddr: {"last_cell_desc"},
		cdr.FieldLRN:          {"lrn_b_party_no"},
	},
	CallTypes: operator.CallTypes(map[string]cdr.CallType{
		"ORIG":   cdr.CallOut,
		"TERM":   cdr.CallIn,
		"SMSORG": cdr.SMSOut,
		"SMSTRM": cdr.SMSIn,
	}),
}
