package domain

import "strings"

// MetricFunc folds a collection of payloads for one activity family into its
// derived metric totals.
type MetricFunc func(payloads []Payload) map[string]float64

// ClampRange bounds a metric input at edit time.
type ClampRange struct {
	Min float64
	Max float64
}

// activityRule is the declarative half of the formula library: which raw fields
// are input-only (never summed directly into totals, only their derived product
// is) and which fields are clamped when a supervisor edits them.
type activityRule struct {
	inputOnly map[string]bool
	clamps    map[string]ClampRange
}

var activityRules = map[string]activityRule{
	ActivityDevelopment: {
		// Bolt Length and Cut Length are multipliers; Face/GS Drillm feed the
		// derived drill-metre totals instead of being summed under their own names.
		inputOnly: fieldSet("Bolt Length", "Cut Length", "Face Drillm", "GS Drillm"),
	},
	ActivityProduction: {
		inputOnly: fieldSet(BucketMetresDrilled, BucketCleanoutsDrilled, BucketRedrills),
	},
	ActivityHauling: {
		// Raw Weight and Distance would double count against the weighted totals.
		inputOnly: fieldSet("Weight", "Distance", "Trucks", "Tonnes Hauled", "TKMs"),
	},
	ActivityLoading: {
		inputOnly: fieldSet("Buckets Bogged", "Buckets Rehandled"),
	},
	ActivityHoisting: {
		inputOnly: fieldSet("Ore Tonnes", "Waste Tonnes"),
	},
	ActivityBackfilling: {
		inputOnly: fieldSet("Volume", "Buckets"),
		clamps: map[string]ClampRange{
			"Volume":  {Min: 0, Max: 10000},
			"Buckets": {Min: 0, Max: 250},
		},
	},
}

func fieldSet(fields ...string) map[string]bool {
	out := make(map[string]bool, len(fields))
	for _, field := range fields {
		out[field] = true
	}
	return out
}

// EditClamp returns the clamp range for a field edited under the given
// activity, if one is configured.
func EditClamp(activity, field string) (ClampRange, bool) {
	rule, ok := activityRules[activity]
	if !ok || rule.clamps == nil {
		return ClampRange{}, false
	}
	clamp, ok := rule.clamps[field]
	return clamp, ok
}

// Clamp applies the range to a value.
func (c ClampRange) Clamp(value float64) float64 {
	if value < c.Min {
		return c.Min
	}
	if value > c.Max {
		return c.Max
	}
	return value
}

var formulas = map[string]MetricFunc{
	ActivityDevelopment: developmentMetrics,
	ActivityProduction:  drillingMetrics,
	ActivityHauling:     haulingMetrics,
	ActivityLoading:     loadingMetrics,
	ActivityFiring:      firingMetrics,
	ActivityHoisting:    hoistingMetrics,
	ActivityBackfilling: backfillingMetrics,
}

// MetricsFor computes the metric totals for one activity family. Unknown
// activities fall back to a plain sum of their numeric values.
func MetricsFor(activity string, payloads []Payload) map[string]float64 {
	if fn, ok := formulas[activity]; ok {
		return fn(payloads)
	}
	return genericMetrics(payloads)
}

// sumValues adds every numeric-looking values entry into totals, skipping the
// activity's input-only fields.
func sumValues(totals map[string]float64, p Payload) {
	rule := activityRules[p.Activity]
	for key, value := range p.Values {
		if rule.inputOnly != nil && rule.inputOnly[key] {
			continue
		}
		if !NumericLike(value) {
			continue
		}
		totals[key] += Num(value)
	}
}

func genericMetrics(payloads []Payload) map[string]float64 {
	totals := make(map[string]float64)
	for _, p := range payloads {
		sumValues(totals, p)
	}
	return totals
}

// developmentMetrics derives drill metres for face drilling and ground support.
// A directly entered positive metre figure wins over the derived product.
func developmentMetrics(payloads []Payload) map[string]float64 {
	totals := make(map[string]float64)
	for _, p := range payloads {
		sumValues(totals, p)

		switch {
		case strings.EqualFold(p.SubActivity, "Face Drilling"):
			if direct := Num(p.Value("Face Drillm")); direct > 0 {
				totals["Dev Drillm"] += direct
			} else {
				totals["Dev Drillm"] += Num(p.Value("No of Holes")) * Num(p.Value("Cut Length"))
			}
		case strings.EqualFold(p.SubActivity, "Ground Support") || strings.EqualFold(p.SubActivity, "Rehab"):
			if direct := Num(p.Value("GS Drillm")); direct > 0 {
				totals["GS Drillm"] += direct
			} else {
				bolts := Num(p.Value("No. of Bolts"))
				length := NumPart(Str(p.Value("Bolt Length")))
				totals["GS Drillm"] += bolts * length
			}
		}
	}
	return totals
}

// drillingMetrics sums drilled metres per bucket. When a hole list is present
// it is authoritative; the scalar field is only a fallback for legacy records.
func drillingMetrics(payloads []Payload) map[string]float64 {
	totals := make(map[string]float64)
	for _, p := range payloads {
		sumValues(totals, p)

		for _, bucket := range HoleBuckets {
			if holes, ok := p.Holes[bucket]; ok {
				totals[bucket] += sumHoleLengths(holes)
			} else {
				totals[bucket] += Num(p.Value(bucket))
			}
		}
	}
	return totals
}

// sumHoleLengths totals the numeric part of each hole's length entry.
func sumHoleLengths(holes []DrillHole) float64 {
	var total float64
	for _, hole := range holes {
		total += NumPart(hole.Length)
	}
	return total
}

// haulingMetrics computes truck counts and weighted haul totals. The load list
// overrides any legacy scalar Weight on the same payload; weighted Weight and
// Distance are trucks x per-load value so a three-truck entry counts three times.
func haulingMetrics(payloads []Payload) map[string]float64 {
	totals := make(map[string]float64)
	for _, p := range payloads {
		sumValues(totals, p)

		weight := Num(p.Value("Weight"))
		distance := Num(p.Value("Distance"))

		var trucks, tonnes float64
		if len(p.Loads) > 0 {
			trucks = float64(len(p.Loads))
			tonnes = sumLoadWeights(p.Loads)
		} else {
			trucks = Num(p.Value("Trucks"))
			tonnes = trucks * weight
		}

		totals["Trucks"] += trucks
		totals["Tonnes Hauled"] += tonnes
		totals["Weight"] += trucks * weight
		totals["Distance"] += trucks * distance
		totals["TKMs"] += weight * distance * trucks
	}
	return totals
}

// sumLoadWeights totals the recorded weight across truck loads.
func sumLoadWeights(loads []TruckLoad) float64 {
	var total float64
	for _, load := range loads {
		total += load.Weight
	}
	return total
}

// loadingMetrics buckets bogged counts by sub-activity and bogging type.
func loadingMetrics(payloads []Payload) map[string]float64 {
	totals := make(map[string]float64)
	for _, p := range payloads {
		sumValues(totals, p)

		bogged := Num(p.Value("Buckets Bogged"))
		rehandled := Num(p.Value("Buckets Rehandled"))
		if strings.EqualFold(p.SubActivity, "Development") {
			totals["Development Bogging"] += bogged
		} else {
			totals["Production Bogging"] += bogged
		}
		totals["Rehandle Bogging"] += rehandled
	}
	return totals
}

// firingMetrics counts distinct fired locations, not rows: two payloads against
// the same stope are one stope fired.
func firingMetrics(payloads []Payload) map[string]float64 {
	totals := make(map[string]float64)
	stopes := make(map[string]bool)
	headings := make(map[string]bool)
	for _, p := range payloads {
		sumValues(totals, p)

		key := PayloadGroupKey(p)
		if key == "" {
			continue
		}
		if strings.EqualFold(p.SubActivity, "Development") {
			headings[key] = true
		} else {
			stopes[key] = true
		}
	}
	if len(stopes) > 0 {
		totals["Stopes Fired"] = float64(len(stopes))
	}
	if len(headings) > 0 {
		totals["Headings Fired"] = float64(len(headings))
	}
	return totals
}

// hoistingMetrics is a straight sum of ore and waste tonnes.
func hoistingMetrics(payloads []Payload) map[string]float64 {
	totals := make(map[string]float64)
	for _, p := range payloads {
		sumValues(totals, p)
		totals["Ore Tonnes"] += Num(p.Value("Ore Tonnes"))
		totals["Waste Tonnes"] += Num(p.Value("Waste Tonnes"))
	}
	return totals
}

// backfillingMetrics sums volume for surface fill and buckets for underground
// fill. Range limits are enforced when the value is edited, not here.
func backfillingMetrics(payloads []Payload) map[string]float64 {
	totals := make(map[string]float64)
	for _, p := range payloads {
		sumValues(totals, p)

		if strings.EqualFold(p.SubActivity, "Surface") {
			totals["Volume"] += Num(p.Value("Volume"))
		} else {
			totals["Buckets"] += Num(p.Value("Buckets"))
		}
	}
	return totals
}
