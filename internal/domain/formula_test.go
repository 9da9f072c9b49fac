package domain

import "testing"

func payloadWith(activity, sub string, values map[string]any) Payload {
	return Payload{Activity: activity, SubActivity: sub, Values: values}
}

func TestGroundSupportDrillMetresFromBolts(t *testing.T) {
	p := payloadWith(ActivityDevelopment, "Ground Support", map[string]any{
		"No. of Bolts": 4.0,
		"Bolt Length":  "2.4m",
	})

	metrics := MetricsFor(ActivityDevelopment, []Payload{p})
	if got := metrics["GS Drillm"]; got != 9.6 {
		t.Fatalf("expected GS Drillm 9.6 got %v", got)
	}
	if _, present := metrics["Bolt Length"]; present {
		t.Fatal("Bolt Length is input-only and must not appear in totals")
	}
}

func TestGroundSupportDirectDrillMetresWin(t *testing.T) {
	p := payloadWith(ActivityDevelopment, "Rehab", map[string]any{
		"No. of Bolts": 4.0,
		"Bolt Length":  "2.4m",
		"GS Drillm":    20.0,
	})

	metrics := MetricsFor(ActivityDevelopment, []Payload{p})
	if got := metrics["GS Drillm"]; got != 20 {
		t.Fatalf("expected direct GS Drillm 20 got %v", got)
	}
}

func TestFaceDrillingDerivesFromHolesAndCutLength(t *testing.T) {
	p := payloadWith(ActivityDevelopment, "Face Drilling", map[string]any{
		"No of Holes": 60.0,
		"Cut Length":  3.2,
	})

	metrics := MetricsFor(ActivityDevelopment, []Payload{p})
	if got := metrics["Dev Drillm"]; got != 192 {
		t.Fatalf("expected Dev Drillm 192 got %v", got)
	}

	direct := payloadWith(ActivityDevelopment, "face drilling", map[string]any{
		"No of Holes": 60.0,
		"Cut Length":  3.2,
		"Face Drillm": 150.0,
	})
	metrics = MetricsFor(ActivityDevelopment, []Payload{direct})
	if got := metrics["Dev Drillm"]; got != 150 {
		t.Fatalf("expected direct Face Drillm 150 got %v", got)
	}
}

func TestDrillingHoleListsAreAuthoritative(t *testing.T) {
	p := Payload{
		Activity: ActivityProduction,
		Values: map[string]any{
			// Legacy scalar in conflict with the list; the list wins.
			BucketMetresDrilled: 99.0,
		},
		Holes: map[string][]DrillHole{
			BucketMetresDrilled: {
				{Length: "3.0m"},
				{Length: "2.5m"},
			},
		},
	}

	metrics := MetricsFor(ActivityProduction, []Payload{p})
	if got := metrics[BucketMetresDrilled]; got != 5.5 {
		t.Fatalf("expected 5.5 metres drilled got %v", got)
	}
}

func TestDrillingScalarFallbackForLegacyRecords(t *testing.T) {
	p := payloadWith(ActivityProduction, "", map[string]any{
		BucketRedrills: 12.0,
	})

	metrics := MetricsFor(ActivityProduction, []Payload{p})
	if got := metrics[BucketRedrills]; got != 12 {
		t.Fatalf("expected redrills 12 got %v", got)
	}
}

func TestHaulingLoadsOverrideLegacyScalars(t *testing.T) {
	p := Payload{
		Activity: ActivityHauling,
		Values: map[string]any{
			"Weight":   40.0,
			"Distance": 2.0,
			"Trucks":   7.0,
		},
		Loads: []TruckLoad{{Weight: 10}, {Weight: 20}, {Weight: 5}},
	}

	metrics := MetricsFor(ActivityHauling, []Payload{p})
	if got := metrics["Trucks"]; got != 3 {
		t.Fatalf("expected 3 trucks from load list got %v", got)
	}
	if got := metrics["Tonnes Hauled"]; got != 35 {
		t.Fatalf("expected tonnes hauled 35 got %v", got)
	}
	if got := metrics["Weight"]; got != 120 {
		t.Fatalf("expected weighted Weight 120 got %v", got)
	}
	if got := metrics["Distance"]; got != 6 {
		t.Fatalf("expected weighted Distance 6 got %v", got)
	}
	if got := metrics["TKMs"]; got != 240 {
		t.Fatalf("expected TKMs 240 got %v", got)
	}
}

func TestHaulingLegacyScalarEntry(t *testing.T) {
	p := payloadWith(ActivityHauling, "", map[string]any{
		"Weight":   40.0,
		"Distance": 2.0,
		"Trucks":   3.0,
	})

	metrics := MetricsFor(ActivityHauling, []Payload{p})
	if got := metrics["Tonnes Hauled"]; got != 120 {
		t.Fatalf("expected tonnes hauled 120 got %v", got)
	}
	if got := metrics["TKMs"]; got != 240 {
		t.Fatalf("expected TKMs 240 got %v", got)
	}
}

func TestLoadingBucketsBySubActivity(t *testing.T) {
	payloads := []Payload{
		payloadWith(ActivityLoading, "Development", map[string]any{"Buckets Bogged": 10.0, "Buckets Rehandled": 2.0}),
		payloadWith(ActivityLoading, "Production", map[string]any{"Buckets Bogged": 8.0}),
	}

	metrics := MetricsFor(ActivityLoading, payloads)
	if got := metrics["Development Bogging"]; got != 10 {
		t.Fatalf("expected development bogging 10 got %v", got)
	}
	if got := metrics["Production Bogging"]; got != 8 {
		t.Fatalf("expected production bogging 8 got %v", got)
	}
	if got := metrics["Rehandle Bogging"]; got != 2 {
		t.Fatalf("expected rehandle bogging 2 got %v", got)
	}
}

func TestFiringCountsDistinctLocations(t *testing.T) {
	payloads := []Payload{
		payloadWith(ActivityFiring, "Production", map[string]any{"Location": "Stope A"}),
		payloadWith(ActivityFiring, "Production", map[string]any{"Location": "Stope A"}),
		payloadWith(ActivityFiring, "Production", map[string]any{"Location": "Stope B"}),
		payloadWith(ActivityFiring, "Development", map[string]any{"Location": "HDG-1"}),
	}

	metrics := MetricsFor(ActivityFiring, payloads)
	if got := metrics["Stopes Fired"]; got != 2 {
		t.Fatalf("expected 2 stopes fired got %v", got)
	}
	if got := metrics["Headings Fired"]; got != 1 {
		t.Fatalf("expected 1 heading fired got %v", got)
	}
}

func TestFiringOmitsZeroCounts(t *testing.T) {
	payloads := []Payload{
		payloadWith(ActivityFiring, "Production", map[string]any{"Location": "Stope A"}),
	}
	metrics := MetricsFor(ActivityFiring, payloads)
	if _, present := metrics["Headings Fired"]; present {
		t.Fatal("expected no Headings Fired entry when none fired")
	}
}

func TestHoistingSumsTonnes(t *testing.T) {
	payloads := []Payload{
		payloadWith(ActivityHoisting, "", map[string]any{"Ore Tonnes": 120.0, "Waste Tonnes": 30.0}),
		payloadWith(ActivityHoisting, "", map[string]any{"Ore Tonnes": "80"}),
	}

	metrics := MetricsFor(ActivityHoisting, payloads)
	if got := metrics["Ore Tonnes"]; got != 200 {
		t.Fatalf("expected ore tonnes 200 got %v", got)
	}
	if got := metrics["Waste Tonnes"]; got != 30 {
		t.Fatalf("expected waste tonnes 30 got %v", got)
	}
}

func TestBackfillingSplitsSurfaceAndUnderground(t *testing.T) {
	payloads := []Payload{
		payloadWith(ActivityBackfilling, "Surface", map[string]any{"Volume": 500.0, "To": "Stope 3"}),
		payloadWith(ActivityBackfilling, "Underground", map[string]any{"Buckets": 40.0, "To": "Stope 4"}),
	}

	metrics := MetricsFor(ActivityBackfilling, payloads)
	if got := metrics["Volume"]; got != 500 {
		t.Fatalf("expected volume 500 got %v", got)
	}
	if got := metrics["Buckets"]; got != 40 {
		t.Fatalf("expected buckets 40 got %v", got)
	}
}

func TestEditClampBoundsBackfillInputs(t *testing.T) {
	clamp, ok := EditClamp(ActivityBackfilling, "Volume")
	if !ok {
		t.Fatal("expected a clamp for Backfilling Volume")
	}
	if got := clamp.Clamp(20000); got != 10000 {
		t.Fatalf("expected volume clamped to 10000 got %v", got)
	}
	if got := clamp.Clamp(-5); got != 0 {
		t.Fatalf("expected volume clamped to 0 got %v", got)
	}

	clamp, ok = EditClamp(ActivityBackfilling, "Buckets")
	if !ok {
		t.Fatal("expected a clamp for Backfilling Buckets")
	}
	if got := clamp.Clamp(400); got != 250 {
		t.Fatalf("expected buckets clamped to 250 got %v", got)
	}

	if _, ok := EditClamp(ActivityHoisting, "Ore Tonnes"); ok {
		t.Fatal("expected no clamp outside Backfilling")
	}
}

func TestUnknownActivityFallsBackToPlainSum(t *testing.T) {
	payloads := []Payload{
		payloadWith("Shotcreting", "", map[string]any{"Sprayed m2": 35.0, "Location": "HDG-2"}),
		payloadWith("Shotcreting", "", map[string]any{"Sprayed m2": "15"}),
	}

	metrics := MetricsFor("Shotcreting", payloads)
	if got := metrics["Sprayed m2"]; got != 50 {
		t.Fatalf("expected sprayed 50 got %v", got)
	}
	if _, present := metrics["Location"]; present {
		t.Fatal("non-numeric fields must not appear in totals")
	}
}
