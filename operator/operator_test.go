package operator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jalad-shrimali/cdr-analyzer/airtel"
	"github.com/jalad-shrimali/cdr-analyzer/bsnl"
	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/jio"
	"github.com/jalad-shrimali/cdr-analyzer/operator"
	"github.com/jalad-shrimali/cdr-analyzer/vi"
)

var all = []operator.Profile{airtel.Profile, jio.Profile, vi.Profile, bsnl.Profile}

func TestSubscriberFromBanner(t *testing.T) {
	tests := []struct {
		profile operator.Profile
		line    string
		want    string
	}{
		{airtel.Profile, "CDR of Mobile No '9876543210' from 01/01/2024", "9876543210"},
		{jio.Profile, "Input Value : 919812345678", "919812345678"},
		{vi.Profile, "MSISDN : - 9123456789", "9123456789"},
		{bsnl.Profile, "Search Value: 9400012345", "9400012345"},
		{bsnl.Profile, "nothing here", ""},
		{operator.Generic, "Mobile No '9876543210'", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.profile.Subscriber(tt.line), "%s: %s", tt.profile.Name, tt.line)
	}
}

func TestDetect(t *testing.T) {
	assert.Equal(t, "airtel", operator.Detect(all, []string{"CDR of Mobile No '9876543210'"}, nil).Name)
	assert.Equal(t, "bsnl", operator.Detect(all, nil, []string{"CALL_DATE", "OTHER_PARTY_NO"}).Name)
	assert.Equal(t, "generic", operator.Detect(all, nil, []string{"date", "b party"}).Name)
}

func TestCallTypeCodes(t *testing.T) {
	ct, ok := jio.Profile.CallType(" a_in ")
	assert.True(t, ok)
	assert.Equal(t, cdr.CallIn, ct)

	ct, ok = vi.Profile.CallType("SMS-MT")
	assert.True(t, ok)
	assert.Equal(t, cdr.SMSIn, ct)

	_, ok = operator.Generic.CallType("A_IN")
	assert.False(t, ok)
}
