// Package vi holds the Vodafone Idea export profile.
package vi

import (
	"regexp"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/operator"
)

var Profile = operator.Profile{
	Name:    "vi",
	Banner:  regexp.MustCompile(`(?i)msisdn[^0-9]*([0-9]{8,15})`),
	Markers: []string{"roaming network/circle", "lrn- b party number"},
	Aliases: map[cdr.Field][]string{
		cdr.FieldTarget:        {"msisdn", "msisdn no", "msisdn number"},
		cdr.FieldRoamingCircle: {"roaming network/circle", "roaming network"},
		cdr.FieldLRN:           {"lrn- b party number", "lrn b party number"},
		cdr.FieldCallType:      {"call_type"},
	},
	CallTypes: operator.CallTypes(map[string]cdr.CallType{
		"MO":     cdr.CallOut,
		"MT":     cdr.CallIn,
		"SMS-MO": cdr.SMSOut,
		"SMS-MT": cdr.SMSIn,
	}),
}
