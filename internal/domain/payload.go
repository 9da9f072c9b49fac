// Package domain implements the activity aggregation and validation engine:
// payload normalisation, metric formulas, grouping, totals, and baseline pairing.
package domain

import "encoding/json"

// Hole bucket names used inside Payload.Holes. These match the field names the
// drilling crews submit, so the per-bucket totals land under the same keys.
const (
	BucketMetresDrilled    = "Metres Drilled"
	BucketCleanoutsDrilled = "Cleanouts Drilled"
	BucketRedrills         = "Redrills"
)

// HoleBuckets lists the recognised hole buckets in display order.
var HoleBuckets = []string{BucketMetresDrilled, BucketCleanoutsDrilled, BucketRedrills}

// TruckLoad is a single haul-truck load recorded against a Hauling activity.
type TruckLoad struct {
	Weight      float64 `json:"weight"`
	TimeSeconds float64 `json:"time_s,omitempty"`
}

// DrillHole is a single hole recorded against a drilling activity. Length keeps
// the operator's raw entry (often "3.0m"); use NumPart to read it numerically.
type DrillHole struct {
	RingID   string `json:"ring_id"`
	HoleID   string `json:"hole_id"`
	Diameter string `json:"diameter"`
	Length   string `json:"length_m"`
}

// Payload is the normalised form of one submitted activity document. Values is
// an open map because metric names are activity-specific free text ("No of
// Holes", "Bolt Length", ...); scalars inside it are string, float64, bool or nil.
type Payload struct {
	Activity    string                 `json:"activity,omitempty"`
	SubActivity string                 `json:"sub,omitempty"`
	Values      map[string]any         `json:"values,omitempty"`
	Loads       []TruckLoad            `json:"loads,omitempty"`
	Holes       map[string][]DrillHole `json:"holes,omitempty"`
}

// Normalize converts a raw stored value into a Payload. It accepts a JSON
// string, []byte, json.RawMessage, an already-decoded map, an existing Payload,
// or nil. Malformed input yields the zero Payload; it never returns an error.
// Idempotent: Normalize(Normalize(x)) equals Normalize(x).
func Normalize(raw any) Payload {
	switch v := raw.(type) {
	case nil:
		return Payload{}
	case Payload:
		return v.Clone()
	case *Payload:
		if v == nil {
			return Payload{}
		}
		return v.Clone()
	case string:
		return normalizeJSON([]byte(v))
	case []byte:
		return normalizeJSON(v)
	case json.RawMessage:
		return normalizeJSON(v)
	case map[string]any:
		return normalizeMap(v)
	default:
		return Payload{}
	}
}

func normalizeJSON(data []byte) Payload {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Payload{}
	}
	return normalizeMap(doc)
}

func normalizeMap(doc map[string]any) Payload {
	p := Payload{}
	p.Activity, _ = doc["activity"].(string)
	// Historical submissions used both "sub" and "sub_activity".
	if sub, ok := doc["sub"].(string); ok && sub != "" {
		p.SubActivity = sub
	} else if sub, ok := doc["sub_activity"].(string); ok {
		p.SubActivity = sub
	}

	if values, ok := doc["values"].(map[string]any); ok {
		p.Values = make(map[string]any, len(values))
		for key, value := range values {
			p.Values[key] = normalizeScalar(value)
		}
	}

	if rawLoads, ok := doc["loads"].([]any); ok {
		p.Loads = make([]TruckLoad, 0, len(rawLoads))
		for _, entry := range rawLoads {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			p.Loads = append(p.Loads, TruckLoad{
				Weight:      Num(fields["weight"]),
				TimeSeconds: Num(fields["time_s"]),
			})
		}
	}

	if rawHoles, ok := doc["holes"].(map[string]any); ok {
		p.Holes = make(map[string][]DrillHole, len(rawHoles))
		for bucket, entries := range rawHoles {
			list, ok := entries.([]any)
			if !ok {
				continue
			}
			holes := make([]DrillHole, 0, len(list))
			for _, entry := range list {
				fields, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				holes = append(holes, DrillHole{
					RingID:   Str(fields["ring_id"]),
					HoleID:   Str(fields["hole_id"]),
					Diameter: Str(fields["diameter"]),
					Length:   Str(fields["length_m"]),
				})
			}
			p.Holes[bucket] = holes
		}
	}

	return p
}

// normalizeScalar collapses decoded JSON values onto the scalar set the engine
// works with. Nested structures inside values are not meaningful; drop them.
func normalizeScalar(value any) any {
	switch v := value.(type) {
	case string, float64, bool, nil:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		return Num(v)
	default:
		return nil
	}
}

// Clone returns a deep copy. Overlay entries must never share maps or slices
// with the persisted payload.
func (p Payload) Clone() Payload {
	out := Payload{Activity: p.Activity, SubActivity: p.SubActivity}
	if p.Values != nil {
		out.Values = make(map[string]any, len(p.Values))
		for key, value := range p.Values {
			out.Values[key] = value
		}
	}
	if p.Loads != nil {
		out.Loads = make([]TruckLoad, len(p.Loads))
		copy(out.Loads, p.Loads)
	}
	if p.Holes != nil {
		out.Holes = make(map[string][]DrillHole, len(p.Holes))
		for bucket, holes := range p.Holes {
			copied := make([]DrillHole, len(holes))
			copy(copied, holes)
			out.Holes[bucket] = copied
		}
	}
	return out
}

// IsZero reports whether the payload carries no data at all.
func (p Payload) IsZero() bool {
	return p.Activity == "" && p.SubActivity == "" &&
		len(p.Values) == 0 && len(p.Loads) == 0 && len(p.Holes) == 0
}

// Value returns the named entry from Values, nil when absent.
func (p Payload) Value(field string) any {
	if p.Values == nil {
		return nil
	}
	return p.Values[field]
}

// Equal compares two payloads by canonical JSON. Used by the baseline pairing
// heuristic to prefer exact content matches.
func (p Payload) Equal(other Payload) bool {
	a, err := json.Marshal(p)
	if err != nil {
		return false
	}
	b, err := json.Marshal(other)
	if err != nil {
		return false
	}
	return string(a) == string(b)
}
