package models

import (
	"testing"
	"time"
)

func testSchedule() (time.Time, time.Time) {
	dep := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	return dep, dep.Add(6 * time.Hour)
}

func TestNewTrainValidation(t *testing.T) {
	dep, arr := testSchedule()

	if _, err := NewTrain("12345", "Express", "Delhi", "Mumbai", dep, arr, 300, 500, 100); err != nil {
		t.Fatalf("valid train rejected: %v", err)
	}

	cases := []struct {
		name string
		fn   func() (Train, error)
	}{
		{"empty number", func() (Train, error) {
			return NewTrain("  ", "Express", "Delhi", "Mumbai", dep, arr, 300, 500, 100)
		}},
		{"arrival before departure", func() (Train, error) {
			return NewTrain("12345", "Express", "Delhi", "Mumbai", arr, dep, 300, 500, 100)
		}},
		{"zero base fare", func() (Train, error) {
			return NewTrain("12345", "Express", "Delhi", "Mumbai", dep, arr, 300, 0, 100)
		}},
		{"ac seats exceed total", func() (Train, error) {
			return NewTrain("12345", "Express", "Delhi", "Mumbai", dep, arr, 100, 500, 150)
		}},
		{"zero total seats", func() (Train, error) {
			return NewTrain("12345", "Express", "Delhi", "Mumbai", dep, arr, 0, 500, 0)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.fn(); err == nil {
				t.Error("want validation error, got nil")
			}
		})
	}
}

func TestReserveAndRelease(t *testing.T) {
	dep, arr := testSchedule()
	tr, err := NewTrain("12345", "Express", "Delhi", "Mumbai", dep, arr, 100, 500, 40)
	if err != nil {
		t.Fatalf("NewTrain: %v", err)
	}

	if !tr.Reserve(10, SeatClassAC) {
		t.Fatal("Reserve(10, AC) = false, want true")
	}
	if tr.AvailableAC != 30 {
		t.Fatalf("AvailableAC = %d, want 30", tr.AvailableAC)
	}

	// A request the pool cannot cover must leave it untouched.
	if tr.Reserve(31, SeatClassAC) {
		t.Fatal("Reserve(31, AC) = true, want false")
	}
	if tr.AvailableAC != 30 {
		t.Fatalf("AvailableAC after failed reserve = %d, want 30", tr.AvailableAC)
	}

	if !tr.Reserve(60, SeatClassNonAC) {
		t.Fatal("Reserve(60, Non-AC) = false, want true")
	}
	if tr.AvailableNonAC != 0 {
		t.Fatalf("AvailableNonAC = %d, want 0", tr.AvailableNonAC)
	}

	tr.Release(10, SeatClassAC)
	if tr.AvailableAC != 40 {
		t.Fatalf("AvailableAC after release = %d, want 40", tr.AvailableAC)
	}

	// Releasing past capacity clamps instead of overflowing the pool.
	tr.Release(5, SeatClassAC)
	if tr.AvailableAC != 40 {
		t.Fatalf("AvailableAC after over-release = %d, want 40 (clamped)", tr.AvailableAC)
	}
}

func TestSetSeatConfigShiftsPools(t *testing.T) {
	dep, arr := testSchedule()
	tr, err := NewTrain("12345", "Express", "Delhi", "Mumbai", dep, arr, 100, 500, 40)
	if err != nil {
		t.Fatalf("NewTrain: %v", err)
	}

	// Growing the AC share moves seats from the non-AC pool.
	if err := tr.SetSeatConfig(100, 50); err != nil {
		t.Fatalf("SetSeatConfig: %v", err)
	}
	if tr.AvailableAC != 50 || tr.AvailableNonAC != 50 {
		t.Fatalf("pools = %d/%d, want 50/50", tr.AvailableAC, tr.AvailableNonAC)
	}

	// With 45 AC seats booked, shrinking AC capacity below the booked count
	// would drive availability negative and must be rejected.
	if !tr.Reserve(45, SeatClassAC) {
		t.Fatal("Reserve(45, AC) failed")
	}
	if err := tr.SetSeatConfig(100, 40); err == nil {
		t.Error("SetSeatConfig shrinking below booked seats: want error, got nil")
	}
	if tr.ACSeats != 50 || tr.AvailableAC != 5 {
		t.Fatalf("train changed by rejected edit: acSeats=%d availAC=%d", tr.ACSeats, tr.AvailableAC)
	}
}

func TestHasExecutiveClass(t *testing.T) {
	tr := Train{TrainType: "Rajdhani"}
	if !tr.HasExecutiveClass() {
		t.Error("Rajdhani should have executive class")
	}
	tr.TrainType = "Express"
	if tr.HasExecutiveClass() {
		t.Error("Express should not have executive class")
	}
}
