// Package review holds supervisor review sessions: the edit overlay, the diff
// engine, and the truck-load and drill-hole sub-editors.
package review

import (
	"math"
	"sort"

	"example.com/shiftreport/internal/domain"
)

// numericTolerance absorbs float formatting noise when a numeric field round
// trips through text entry.
const numericTolerance = 1e-9

// FieldDiff describes one displayed field of a record under review.
type FieldDiff struct {
	Field    string `json:"field"`
	Current  any    `json:"current"`
	Baseline any    `json:"baseline"`
	Changed  bool   `json:"changed"`
}

// RecordDiff is the diff view of one record: its grouping key plus every
// applicable field. Fields absent from both baseline and current values are
// inapplicable and not listed at all.
type RecordDiff struct {
	RecordID string      `json:"record_id"`
	Activity string      `json:"activity"`
	Sub      string      `json:"sub"`
	GroupKey string      `json:"group_key"`
	Edited   bool        `json:"edited"`
	Fields   []FieldDiff `json:"fields"`
}

// diffRecord compares the effective payload against the baseline. The baseline
// is the paired live payload when pairing found one, else the record's own
// original payload.
func diffRecord(record domain.Record, current, baseline domain.Payload, edited bool) RecordDiff {
	out := RecordDiff{
		RecordID: record.ID,
		Activity: current.Activity,
		Sub:      current.SubActivity,
		GroupKey: domain.PayloadGroupKey(current),
		Edited:   edited,
	}

	fields := make(map[string]bool, len(current.Values)+len(baseline.Values))
	for field := range current.Values {
		fields[field] = true
	}
	for field := range baseline.Values {
		fields[field] = true
	}

	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)

	for _, field := range names {
		cur := current.Value(field)
		base := baseline.Value(field)
		out.Fields = append(out.Fields, FieldDiff{
			Field:    field,
			Current:  cur,
			Baseline: base,
			Changed:  !scalarsEqual(cur, base),
		})
	}
	return out
}

// scalarsEqual compares two payload scalars, numerically when both sides look
// like numbers so "10" vs 10.0000000001 is not flagged, exactly otherwise.
func scalarsEqual(a, b any) bool {
	if domain.NumericLike(a) && domain.NumericLike(b) {
		return math.Abs(domain.Num(a)-domain.Num(b)) <= numericTolerance
	}
	return domain.Str(a) == domain.Str(b)
}
