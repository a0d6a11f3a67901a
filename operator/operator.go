// Package operator describes the export quirks of each carrier: the banner
// line that carries the target number, the header markers, extra column
// names and call-type codes.
package operator

import (
	"regexp"
	"strings"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
)

type Profile struct {
	Name string
	// Banner captures the target number from the lines above the header.
	Banner *regexp.Regexp
	// Markers are lower-case fragments that only this carrier's exports
	// contain, either in the banner lines or in the header row.
	Markers   []string
	Aliases   map[cdr.Field][]string
	CallTypes map[string]cdr.CallType
}

// Generic is used when no carrier profile matches.
var Generic = Profile{Name: "generic"}

// Subscriber extracts the target number from a banner line.
func (p Profile) Subscriber(line string) string {
	if p.Banner == nil {
		return ""
	}
	if m := p.Banner.FindStringSubmatch(line); len(m) > 1 {
		return m[1]
	}
	return ""
}

// CallType looks up a carrier-specific call type code.
func (p Profile) CallType(code string) (cdr.CallType, bool) {
	ct, ok := p.CallTypes[strings.ToUpper(strings.TrimSpace(code))]
	return ct, ok
}

func (p Profile) matches(text string) bool {
	if p.Banner != nil && p.Banner.MatchString(text) {
		return true
	}
	low := strings.ToLower(text)
	for _, m := range p.Markers {
		if strings.Contains(low, m) {
			return true
		}
	}
	return false
}

// Detect picks the first profile whose banner or markers occur in the lines
// above the header or in the header itself.
func Detect(profiles []Profile, preamble []string, header []string) Profile {
	text := strings.Join(preamble, "\n") + "\n" + strings.Join(header, "|")
	for _, p := range profiles {
		if p.matches(text) {
			return p
		}
	}
	return Generic
}

// Codes shared by every carrier export.
var commonCallTypes = map[string]cdr.CallType{
	"A_IN":     cdr.CallIn,
	"A_OUT":    cdr.CallOut,
	"CALL_IN":  cdr.CallIn,
	"CALL_OUT": cdr.CallOut,
	"SMS_IN":   cdr.SMSIn,
	"SMS_OUT":  cdr.SMSOut,
	"MOC":      cdr.CallOut,
	"MTC":      cdr.CallIn,
	"SMSMO":    cdr.SMSOut,
	"SMSMT":    cdr.SMSIn,
}

// CallTypes merges the shared codes with carrier-specific ones.
func CallTypes(extra map[string]cdr.CallType) map[string]cdr.CallType {
	out := make(map[string]cdr.CallType, len(commonCallTypes)+len(extra))
	for k, v := range commonCallTypes {
		out[k] = v
	}
	for k, v := range extra {
		out[strings.ToUpper(k)] = v
	}
	return out
}
