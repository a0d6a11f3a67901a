// Package airtel holds the Airtel export profile.
package airtel

import (
	"regexp"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/operator"
)

// Airtel exports start with a line like: CDR of Mobile No '9876543210' ...
var Profile = operator.Profile{
	Name:    "airtel",
	Banner:  regexp.MustCompile(`Mobile No '(\d+)'`),
	Markers: []string{"calling party telephone number", "lrn tsp-lsa"},
	Aliases: map[cdr.Field][]string{
		cdr.FieldRoamingCircle: {"roam nw"},
		cdr.FieldLRN:           {"lrn tsp-lsa"},
	},
	CallTypes: operator.CallTypes(map[string]cdr.CallType{
		"IN":       cdr.CallIn,
		"OUT":      cdr.CallOut,
		"SMT":      cdr.SMSIn,
		"SMO":      cdr.SMSOut,
		"INCOMING": cdr.CallIn,
		"OUTGOING": cdr.CallOut,
	}),
}
