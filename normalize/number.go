package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

var nonDigit = regexp.MustCompile(`\D`)

func digits(s string) string { return nonDigit.ReplaceAllString(s, "") }

// NumberPlan describes the home numbering plan.
type NumberPlan struct {
	CountryCode    string
	NationalLength int
}

var DefaultPlan = NumberPlan{CountryCode: "91", NationalLength: 10}

// MSISDN reduces a party number to its national form: digits only, no
// leading zeros and no home country code.
func (p NumberPlan) MSISDN(s string) string {
	d := strings.TrimLeft(digits(s), "0")
	if p.CountryCode != "" && len(d) > p.NationalLength && strings.HasPrefix(d, p.CountryCode) {
		d = d[len(p.CountryCode):]
	}
	return d
}

// IsSenderID reports whether s is an alphanumeric SMS sender such as
// "VK-HDFCBK".
func IsSenderID(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
