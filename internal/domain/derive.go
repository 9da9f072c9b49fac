package domain

// Derived scalar fields. When a payload carries a nested list, these values
// entries are a function of the list and must be recomputed on every mutation
// rather than edited independently.

// RecomputeLoadTotals rewrites Trucks and Tonnes Hauled from the load list.
func RecomputeLoadTotals(p *Payload) {
	if p.Values == nil {
		p.Values = make(map[string]any)
	}
	p.Values["Trucks"] = float64(len(p.Loads))
	p.Values["Tonnes Hauled"] = sumLoadWeights(p.Loads)
}

// RecomputeHoleTotals rewrites each hole bucket's scalar total from its list.
func RecomputeHoleTotals(p *Payload) {
	if len(p.Holes) == 0 {
		return
	}
	if p.Values == nil {
		p.Values = make(map[string]any)
	}
	for bucket, holes := range p.Holes {
		p.Values[bucket] = sumHoleLengths(holes)
	}
}
