package domain

import "strings"

// Activity names as submitted by the field app. Free text in the payload, but
// these are the families the formula library and grouping rules know about.
const (
	ActivityDevelopment = "Development"
	ActivityProduction  = "Production Drilling"
	ActivityHauling     = "Hauling"
	ActivityLoading     = "Loading"
	ActivityFiring      = "Firing"
	ActivityHoisting    = "Hoisting"
	ActivityBackfilling = "Backfilling"
)

// groupKeyField names the values entry that carries the grouping role for an
// activity: hauled and bogged material is grouped by where it came from,
// backfill by where it went, everything else by where the work happened.
func groupKeyField(activity string) string {
	switch activity {
	case ActivityHauling, ActivityLoading:
		return "Source"
	case ActivityBackfilling:
		return "To"
	default:
		return "Location"
	}
}

// groupKeyAliases is the fallback scan order when the role field is empty.
// Legacy submissions spelled the location field a few different ways.
var groupKeyAliases = []string{"Location", "location", "To", "Source", "Heading", "Stope", "Area", "Level"}

// GroupKey resolves the classification key for a payload: the activity's role
// field when non-empty, otherwise the first non-empty alias. Empty when nothing
// matches. Used both for display grouping and for pairing validated records
// back to their live submissions.
func GroupKey(activity string, values map[string]any) string {
	if values == nil {
		return ""
	}
	if key := strings.TrimSpace(Str(values[groupKeyField(activity)])); key != "" {
		return key
	}
	for _, alias := range groupKeyAliases {
		if key := strings.TrimSpace(Str(values[alias])); key != "" {
			return key
		}
	}
	return ""
}

// PayloadGroupKey resolves the grouping key straight from a payload.
func PayloadGroupKey(p Payload) string {
	return GroupKey(p.Activity, p.Values)
}
