// Package jio holds the Reliance Jio export profile.
package jio

import (
	"regexp"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/operator"
)

var Profile = operator.Profile{
	Name:    "jio",
	Banner:  regexp.MustCompile(`(?i)input value[^0-9]*([0-9]{8,15})`),
	Markers: []string{"input value"},
	Aliases: map[cdr.Field][]string{
		cdr.FieldTarget:      {"input value"},
		cdr.FieldDuration:    {"duration(sec)"},
		cdr.FieldCallForward: {"call forward", "call fwd no"},
	},
	CallTypes: operator.CallTypes(nil),
}
