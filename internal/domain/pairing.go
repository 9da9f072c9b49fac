package domain

import "strings"

// pairKey is the composite natural key used to tie a validated record back to
// the live submission it came from. The linkage is not persisted anywhere, so
// this is a best-effort reconciliation heuristic, not a foreign key: a strict
// match (including the group term) is tried first, then a loose match with the
// group dropped, which tolerates supervisor edits that changed the group field.
type pairKey struct {
	UserID   string
	ShiftID  string
	Activity string
	Sub      string
	Group    string
}

func keyFor(r Record, withGroup bool) pairKey {
	key := pairKey{
		UserID:   r.UserID,
		ShiftID:  r.ShiftID,
		Activity: r.Payload.Activity,
		Sub:      r.Payload.SubActivity,
	}
	if withGroup {
		key.Group = strings.TrimSpace(PayloadGroupKey(r.Payload))
	}
	return key
}

type candidate struct {
	payload Payload
	used    bool
}

// PairBaselines matches each validated record to a live submission and returns
// the live payloads keyed by validated record id. Records with no candidate are
// absent from the result; callers fall back to the record's own original
// payload. Within a key bucket the first unused candidate wins, preferring an
// exact payload-content match when one exists.
func PairBaselines(validated, live []Record) map[string]Payload {
	strict := make(map[pairKey][]*candidate)
	loose := make(map[pairKey][]*candidate)
	for _, r := range live {
		c := &candidate{payload: r.Payload}
		strictKey := keyFor(r, true)
		looseKey := keyFor(r, false)
		strict[strictKey] = append(strict[strictKey], c)
		loose[looseKey] = append(loose[looseKey], c)
	}

	out := make(map[string]Payload, len(validated))
	for _, r := range validated {
		if c := claim(strict[keyFor(r, true)], r); c != nil {
			out[r.ID] = c.payload.Clone()
			continue
		}
		if c := claim(loose[keyFor(r, false)], r); c != nil {
			out[r.ID] = c.payload.Clone()
		}
	}
	return out
}

// claim picks a candidate from the bucket: an unused exact content match if
// available, otherwise the first unused entry.
func claim(bucket []*candidate, r Record) *candidate {
	var first *candidate
	for _, c := range bucket {
		if c.used {
			continue
		}
		if c.payload.Equal(r.Original) {
			c.used = true
			return c
		}
		if first == nil {
			first = c
		}
	}
	if first != nil {
		first.used = true
	}
	return first
}
