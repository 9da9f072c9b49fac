package domain

// Totals is the derived shift/site view: activity -> sub-activity -> metric ->
// number. Purely a view; recomputed whenever records or the overlay change.
type Totals map[string]map[string]map[string]float64

// TotalsFilter restricts which records feed the totals. Zero value means all.
type TotalsFilter struct {
	Site        string
	ShiftPeriod ShiftPeriod
}

func (f TotalsFilter) matches(r Record) bool {
	if f.Site != "" && r.Site != f.Site {
		return false
	}
	if f.ShiftPeriod != "" && r.ShiftPeriod != f.ShiftPeriod {
		return false
	}
	return true
}

// BuildTotals folds records into a Totals tree, applying the per-activity
// formula library. The overlay, keyed by record id, takes precedence over each
// record's persisted payload; pass nil when viewing unedited data.
func BuildTotals(records []Record, overlay map[string]Payload, filter TotalsFilter) Totals {
	type group struct {
		activity string
		sub      string
	}
	groups := make(map[group][]Payload)
	order := make([]group, 0)

	for _, record := range records {
		if !filter.matches(record) {
			continue
		}
		payload := record.Payload
		if overlay != nil {
			if edited, ok := overlay[record.ID]; ok {
				payload = edited
			}
		}
		if payload.Activity == "" {
			continue
		}
		key := group{activity: payload.Activity, sub: payload.SubActivity}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], payload)
	}

	totals := make(Totals)
	for _, key := range order {
		metrics := MetricsFor(key.activity, groups[key])
		if len(metrics) == 0 {
			continue
		}
		if totals[key.activity] == nil {
			totals[key.activity] = make(map[string]map[string]float64)
		}
		totals[key.activity][key.sub] = metrics
	}
	return totals
}

// Metric reads one number out of the tree, zero when absent.
func (t Totals) Metric(activity, sub, metric string) float64 {
	if subs, ok := t[activity]; ok {
		if metrics, ok := subs[sub]; ok {
			return metrics[metric]
		}
	}
	return 0
}
