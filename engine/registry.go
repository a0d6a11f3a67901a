package engine

import (
	"github.com/go-faster/errors"

	"github.com/jalad-shrimali/cdr-analyzer/period"
	"github.com/jalad-shrimali/cdr-analyzer/rank"
	"github.com/jalad-shrimali/cdr-analyzer/temporal"
)

// ViewDef registers one output table. Ranked views are truncated to the
// default top-N unless a per-view limit is configured.
type ViewDef struct {
	Name   string
	Ranked bool
	Build  func(ds *Dataset) *rank.View
}

// Registry returns every known view in output order.
func Registry() []ViewDef {
	return []ViewDef{
		mapping("Mapping", nil),
		summary("Summary"),
		topContacts("MaxCalls", false),
		topContacts("MaxDuration", true),
		maxStay("MaxStay", nil),
		otherState("OtherStateContactSummary"),
		periods("RoamingPeriod", "Status", period.RoamingRuns),
		periods("IMEIPeriod", "IMEI", period.Devices),
		periods("IMSIPeriod", "IMSI", period.SIMs),
		mapping("Night_Mapping", tagged(temporal.Night)),
		maxStay("Night_MaxStay", tagged(temporal.Night)),
		mapping("Day_Mapping", tagged(temporal.Day)),
		maxStay("Day_MaxStay", tagged(temporal.Day)),
		workHome("WorkHomeLocation"),
		isdCalls("ISDCalls"),
		dayNight("DayNightSummary"),
		hourly("HourlyActivity"),
		stateConnection("StateConnection"),
		nightCalls("NightCalls"),
		switchOff("MobileSwitchOff"),
	}
}

// Presets name the view sets of the two report layouts.
var Presets = map[string][]string{
	"full": {
		"Mapping", "Summary", "MaxCalls", "MaxDuration", "MaxStay", "OtherStateContactSummary",
		"RoamingPeriod", "IMEIPeriod", "IMSIPeriod", "Night_Mapping", "Night_MaxStay",
		"Day_Mapping", "Day_MaxStay", "WorkHomeLocation", "ISDCalls", "DayNightSummary",
	},
	"compact": {
		"Mapping", "Summary", "MaxStay", "IMEIPeriod", "StateConnection", "ISDCalls",
		"NightCalls", "MobileSwitchOff",
	},
}

// ViewNames lists the registered view names.
func ViewNames() []string {
	var out []string
	for _, d := range Registry() {
		out = append(out, d.Name)
	}
	return out
}

// selectViews returns the registered views named in names, in the order
// given. An empty selection means every view.
func selectViews(names []string) ([]ViewDef, error) {
	all := Registry()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]ViewDef, len(all))
	for _, d := range all {
		byName[d.Name] = d
	}
	seen := map[string]bool{}
	var out []ViewDef
	for _, n := range names {
		d, ok := byName[n]
		if !ok {
			return nil, errors.Errorf("unknown view %q", n)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, d)
	}
	return out, nil
}
