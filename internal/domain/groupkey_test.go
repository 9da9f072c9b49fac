package domain

import "testing"

func TestGroupKeyRoleFields(t *testing.T) {
	cases := []struct {
		activity string
		values   map[string]any
		want     string
	}{
		{ActivityHauling, map[string]any{"Source": "Stope 2", "Location": "ignored"}, "Stope 2"},
		{ActivityLoading, map[string]any{"Source": "Stope 5"}, "Stope 5"},
		{ActivityBackfilling, map[string]any{"To": "Stope 3", "Source": "ignored"}, "Stope 3"},
		{ActivityDevelopment, map[string]any{"Location": "HDG-12"}, "HDG-12"},
		{ActivityFiring, map[string]any{"Location": "Stope 1"}, "Stope 1"},
	}
	for _, tc := range cases {
		if got := GroupKey(tc.activity, tc.values); got != tc.want {
			t.Fatalf("GroupKey(%s, %v) = %q, want %q", tc.activity, tc.values, got, tc.want)
		}
	}
}

func TestGroupKeyAliasFallbackOrder(t *testing.T) {
	// Role field empty; aliases are scanned in fixed precedence.
	values := map[string]any{
		"Source": "",
		"Stope":  "Stope 9",
		"Level":  "L1200",
	}
	if got := GroupKey(ActivityHauling, values); got != "Stope 9" {
		t.Fatalf("expected Stope alias to win, got %q", got)
	}

	lower := map[string]any{"location": "hdg-3"}
	if got := GroupKey(ActivityDevelopment, lower); got != "hdg-3" {
		t.Fatalf("expected lowercase location alias, got %q", got)
	}
}

func TestGroupKeyTrimsAndHandlesMissing(t *testing.T) {
	if got := GroupKey(ActivityDevelopment, map[string]any{"Location": "  HDG-4  "}); got != "HDG-4" {
		t.Fatalf("expected trimmed key, got %q", got)
	}
	if got := GroupKey(ActivityDevelopment, map[string]any{"Other": "x"}); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
	if got := GroupKey(ActivityDevelopment, nil); got != "" {
		t.Fatalf("expected empty key for nil values, got %q", got)
	}
}

func TestGroupKeyToleratesNumericValues(t *testing.T) {
	if got := GroupKey(ActivityDevelopment, map[string]any{"Location": 1200.0}); got != "1200" {
		t.Fatalf("expected numeric location rendered, got %q", got)
	}
}
