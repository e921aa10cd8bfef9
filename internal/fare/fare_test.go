package fare

import (
	"math"
	"testing"
	"time"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestComputeAdvanceBookingExample(t *testing.T) {
	// Base fare 500, 2 AC seats in 2A on an empty train, booked 45 days out:
	// per-seat 750, demand 0.9, class 1.4.
	bookedAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	journey := bookedAt.Add(45 * 24 * time.Hour)

	q, err := Compute(500, 300, 300, 2, true, "2A", journey, bookedAt)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	wantBase := 500 * ACMultiplier * 2 * 0.9 * 1.4
	if !almostEqual(q.Base, wantBase) {
		t.Errorf("Base = %v, want %v", q.Base, wantBase)
	}
	if !almostEqual(q.Tax, q.Base*TaxRate) {
		t.Errorf("Tax = %v, want exactly 18%% of base (%v)", q.Tax, q.Base*TaxRate)
	}
	// 45 days lands in the >30 tier: 10% off.
	if want := (q.Base + q.Tax) * 0.9; !almostEqual(q.Total, want) {
		t.Errorf("Total = %v, want %v (10%% advance discount)", q.Total, want)
	}
}

func TestComputeDemandCurve(t *testing.T) {
	bookedAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	journey := bookedAt.Add(24 * time.Hour)

	cases := []struct {
		name       string
		available  int
		wantDemand float64
	}{
		{"empty train", 100, 0.9},
		{"half full", 50, 1.35},
		{"sold out", 0, 1.8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Compute(200, tc.available, 100, 1, false, "SL", journey, bookedAt)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if want := 200 * tc.wantDemand; !almostEqual(q.Base, want) {
				t.Errorf("Base = %v, want %v (demand %v)", q.Base, want, tc.wantDemand)
			}
		})
	}
}

func TestAdvanceDiscountTiers(t *testing.T) {
	day := 24 * time.Hour
	cases := []struct {
		days int
		want float64
	}{
		{0, 0},
		{15, 0},
		{16, 0.05},
		{30, 0.05},
		{31, 0.10},
		{45, 0.10},
		{60, 0.10},
		{61, 0.15},
		{120, 0.15},
	}
	for _, tc := range cases {
		if got := AdvanceDiscount(time.Duration(tc.days) * day); got != tc.want {
			t.Errorf("AdvanceDiscount(%d days) = %v, want %v", tc.days, got, tc.want)
		}
	}
}

func TestClassMultiplier(t *testing.T) {
	cases := map[string]float64{"1A": 1.8, "2A": 1.4, "3A": 1.2, "SL": 1.0}
	for class, want := range cases {
		if got := ClassMultiplier(class); got != want {
			t.Errorf("ClassMultiplier(%q) = %v, want %v", class, got, want)
		}
	}
}

func TestComputeRejectsBadInput(t *testing.T) {
	now := time.Now()
	if _, err := Compute(500, 10, 100, 0, false, "SL", now, now); err == nil {
		t.Error("Compute with zero seats: want error, got nil")
	}
	if _, err := Compute(0, 10, 100, 1, false, "SL", now, now); err == nil {
		t.Error("Compute with zero base fare: want error, got nil")
	}
	if _, err := Compute(500, 200, 100, 1, false, "SL", now, now); err == nil {
		t.Error("Compute with available > total: want error, got nil")
	}
}
