// Package fare computes ticket prices. It is pure: every input is a scalar
// snapshot taken under the store lock, so quoting the same state twice gives
// the same numbers.
package fare

import (
	"errors"
	"fmt"
	"time"
)

const (
	// TaxRate is applied to the base fare of every booking.
	TaxRate = 0.18
	// ACMultiplier scales the per-seat price for the AC pool.
	ACMultiplier = 1.5
)

var ErrInvalid = errors.New("invalid fare input")

// Quote is the priced breakdown of one booking.
type Quote struct {
	Base  float64 `json:"base"`
	Tax   float64 `json:"tax"`
	Total float64 `json:"total"`
}

// Compute prices seatCount seats on a train with the given base fare and
// occupancy. bookingClass is one of 1A/2A/3A/SL. journeyDate and bookedAt
// drive the advance-booking discount.
//
// The demand curve is 0.9 + occupancy*0.9 (0.9x when empty, 1.8x when full),
// applied to every quote and every booking alike.
func Compute(baseFare float64, availableSeats, totalSeats, seatCount int, ac bool,
	bookingClass string, journeyDate, bookedAt time.Time) (Quote, error) {

	if baseFare <= 0 {
		return Quote{}, fmt.Errorf("%w: base fare must be positive", ErrInvalid)
	}
	if seatCount <= 0 {
		return Quote{}, fmt.Errorf("%w: seat count must be positive", ErrInvalid)
	}
	if totalSeats <= 0 || availableSeats < 0 || availableSeats > totalSeats {
		return Quote{}, fmt.Errorf("%w: seat counts out of range", ErrInvalid)
	}

	perSeat := baseFare
	if ac {
		perSeat *= ACMultiplier
	}

	occupancy := 1 - float64(availableSeats)/float64(totalSeats)
	demand := 0.9 + occupancy*0.9

	base := perSeat * float64(seatCount) * demand * ClassMultiplier(bookingClass)
	tax := base * TaxRate
	total := (base + tax) * (1 - AdvanceDiscount(journeyDate.Sub(bookedAt)))
	return Quote{Base: base, Tax: tax, Total: total}, nil
}

// ClassMultiplier is the fare-tier scale for a booking class.
func ClassMultiplier(bookingClass string) float64 {
	switch bookingClass {
	case "1A":
		return 1.8
	case "2A":
		return 1.4
	case "3A":
		return 1.2
	default: // SL
		return 1.0
	}
}

// AdvanceDiscount returns the discount fraction for booking lead time,
// measured in whole days.
func AdvanceDiscount(lead time.Duration) float64 {
	days := int64(lead.Hours() / 24)
	switch {
	case days > 60:
		return 0.15
	case days > 30:
		return 0.10
	case days > 15:
		return 0.05
	}
	return 0
}
