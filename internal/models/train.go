package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid marks a validation failure. Callers wrap it with detail via
// fmt.Errorf and test for it with errors.Is.
var ErrInvalid = errors.New("invalid input")

// SeatClass selects one of the two independent inventory pools on a train.
type SeatClass string

const (
	SeatClassAC    SeatClass = "AC"
	SeatClassNonAC SeatClass = "Non-AC"
)

// ParseSeatClass normalizes user/file input into a SeatClass.
func ParseSeatClass(s string) (SeatClass, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AC":
		return SeatClassAC, nil
	case "NON-AC", "NONAC", "NON AC", "SL":
		return SeatClassNonAC, nil
	}
	return "", fmt.Errorf("%w: unknown seat class %q", ErrInvalid, s)
}

// Train is a value-semantics record of one train and its seat inventory.
// The store owns the authoritative copy; callers only ever see copies and
// mutate through store operations.
type Train struct {
	Number         string    `json:"number"`
	Name           string    `json:"name"`
	Source         string    `json:"source"`
	Destination    string    `json:"destination"`
	Departure      time.Time `json:"departure"`
	Arrival        time.Time `json:"arrival"`
	TotalSeats     int       `json:"total_seats"`
	ACSeats        int       `json:"ac_seats"`
	BaseFare       float64   `json:"base_fare"`
	AvailableAC    int       `json:"available_ac"`
	AvailableNonAC int       `json:"available_non_ac"`

	// Optional metadata
	TrainType    string `json:"train_type,omitempty"` // Rajdhani, Shatabdi, Express, ...
	HasPantry    bool   `json:"has_pantry,omitempty"`
	AverageSpeed int    `json:"average_speed,omitempty"` // km/h
}

// NewTrain builds a train with both availability pools at full capacity.
func NewTrain(number, name, source, destination string, departure, arrival time.Time,
	totalSeats int, baseFare float64, acSeats int) (Train, error) {

	t := Train{
		Number:         strings.TrimSpace(number),
		Name:           strings.TrimSpace(name),
		Source:         strings.TrimSpace(source),
		Destination:    strings.TrimSpace(destination),
		Departure:      departure,
		Arrival:        arrival,
		TotalSeats:     totalSeats,
		ACSeats:        acSeats,
		BaseFare:       baseFare,
		AvailableAC:    acSeats,
		AvailableNonAC: totalSeats - acSeats,
	}
	if err := t.Validate(); err != nil {
		return Train{}, err
	}
	return t, nil
}

// Validate enforces the train invariants. It is run on creation, on field
// edits and on every record loaded from disk.
func (t *Train) Validate() error {
	switch {
	case t.Number == "":
		return fmt.Errorf("%w: train number cannot be empty", ErrInvalid)
	case t.Name == "":
		return fmt.Errorf("%w: train name cannot be empty", ErrInvalid)
	case t.Source == "" || t.Destination == "":
		return fmt.Errorf("%w: source and destination are required", ErrInvalid)
	case strings.ContainsAny(t.Number+t.Name+t.Source+t.Destination+t.TrainType, "|\n"):
		return fmt.Errorf("%w: fields must not contain the record delimiter", ErrInvalid)
	case !t.Arrival.After(t.Departure):
		return fmt.Errorf("%w: arrival must be after departure", ErrInvalid)
	case t.TotalSeats <= 0:
		return fmt.Errorf("%w: total seats must be positive", ErrInvalid)
	case t.ACSeats < 0 || t.ACSeats > t.TotalSeats:
		return fmt.Errorf("%w: AC seats must be between 0 and total seats", ErrInvalid)
	case t.BaseFare <= 0:
		return fmt.Errorf("%w: base fare must be positive", ErrInvalid)
	case t.AvailableAC < 0 || t.AvailableAC > t.ACSeats:
		return fmt.Errorf("%w: available AC seats out of range", ErrInvalid)
	case t.AvailableNonAC < 0 || t.AvailableNonAC > t.TotalSeats-t.ACSeats:
		return fmt.Errorf("%w: available non-AC seats out of range", ErrInvalid)
	}
	return nil
}

// Capacity returns the pool size for a seat class.
func (t *Train) Capacity(class SeatClass) int {
	if class == SeatClassAC {
		return t.ACSeats
	}
	return t.TotalSeats - t.ACSeats
}

// Available returns the free seats in a pool.
func (t *Train) Available(class SeatClass) int {
	if class == SeatClassAC {
		return t.AvailableAC
	}
	return t.AvailableNonAC
}

// AvailableSeats is the free-seat total across both pools.
func (t *Train) AvailableSeats() int {
	return t.AvailableAC + t.AvailableNonAC
}

// Reserve atomically takes count seats from one pool. It reports false and
// leaves the train untouched when the pool cannot cover the request. Callers
// must hold the store lock; this is the single decrement point for inventory.
func (t *Train) Reserve(count int, class SeatClass) bool {
	if count <= 0 {
		return false
	}
	if class == SeatClassAC {
		if t.AvailableAC < count {
			return false
		}
		t.AvailableAC -= count
		return true
	}
	if t.AvailableNonAC < count {
		return false
	}
	t.AvailableNonAC -= count
	return true
}

// Release returns count seats to a pool, clamped at the pool capacity so a
// double release can never overflow the inventory.
func (t *Train) Release(count int, class SeatClass) {
	if count <= 0 {
		return
	}
	if class == SeatClassAC {
		t.AvailableAC = min(t.ACSeats, t.AvailableAC+count)
		return
	}
	t.AvailableNonAC = min(t.TotalSeats-t.ACSeats, t.AvailableNonAC+count)
}

// SetSeatConfig edits the seat layout. Changing the AC share shifts the two
// availability pools by the delta; any edit that would drive an availability
// count negative is rejected.
func (t *Train) SetSeatConfig(totalSeats, acSeats int) error {
	if totalSeats <= 0 {
		return fmt.Errorf("%w: total seats must be positive", ErrInvalid)
	}
	if acSeats < 0 || acSeats > totalSeats {
		return fmt.Errorf("%w: AC seats must be between 0 and total seats", ErrInvalid)
	}

	acDelta := acSeats - t.ACSeats
	totalDelta := totalSeats - t.TotalSeats
	newAvailAC := t.AvailableAC + acDelta
	newAvailNonAC := t.AvailableNonAC + totalDelta - acDelta
	if newAvailAC < 0 || newAvailNonAC < 0 {
		return fmt.Errorf("%w: seat edit would make booked seats exceed capacity", ErrInvalid)
	}

	t.TotalSeats = totalSeats
	t.ACSeats = acSeats
	t.AvailableAC = newAvailAC
	t.AvailableNonAC = newAvailNonAC
	return nil
}

// HasExecutiveClass reports whether the train carries a 1A coach. Only the
// premium train types do.
func (t *Train) HasExecutiveClass() bool {
	return t.TrainType == "Rajdhani" || t.TrainType == "Shatabdi"
}

// JourneyDuration is the scheduled travel time.
func (t *Train) JourneyDuration() time.Duration {
	return t.Arrival.Sub(t.Departure)
}

// Schedule renders the route and timings for listings.
func (t *Train) Schedule() string {
	const layout = "Mon, 02 Jan 2006 15:04"
	return fmt.Sprintf("%s to %s\nDep: %s\nArr: %s",
		t.Source, t.Destination,
		t.Departure.Format(layout), t.Arrival.Format(layout))
}
