package domain

import "testing"

func TestRecomputeLoadTotals(t *testing.T) {
	p := Payload{
		Activity: ActivityHauling,
		Loads:    []TruckLoad{{Weight: 10}, {Weight: 20}, {Weight: 5}},
	}

	RecomputeLoadTotals(&p)
	if got := Num(p.Value("Trucks")); got != 3 {
		t.Fatalf("expected 3 trucks got %v", got)
	}
	if got := Num(p.Value("Tonnes Hauled")); got != 35 {
		t.Fatalf("expected 35 tonnes got %v", got)
	}

	p.Loads = nil
	RecomputeLoadTotals(&p)
	if got := Num(p.Value("Trucks")); got != 0 {
		t.Fatalf("expected 0 trucks after clearing loads got %v", got)
	}
}

func TestRecomputeHoleTotals(t *testing.T) {
	p := Payload{
		Activity: ActivityProduction,
		Holes: map[string][]DrillHole{
			BucketMetresDrilled: {{Length: "3.0m"}, {Length: "2.5"}},
			BucketRedrills:      {{Length: "1.2m"}},
		},
	}

	RecomputeHoleTotals(&p)
	if got := Num(p.Value(BucketMetresDrilled)); got != 5.5 {
		t.Fatalf("expected 5.5 metres drilled got %v", got)
	}
	if got := Num(p.Value(BucketRedrills)); got != 1.2 {
		t.Fatalf("expected 1.2 redrills got %v", got)
	}
}
