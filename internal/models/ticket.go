package models

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"railway_rs/internal/fare"
)

// Status is the lifecycle state of a ticket. Transitions only move forward:
// PENDING/CONFIRMED may become CANCELLED; CANCELLED, REFUNDED and USED are
// terminal.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusPending   Status = "PENDING"
	StatusCancelled Status = "CANCELLED"
	StatusUsed      Status = "USED"
	StatusRefunded  Status = "REFUNDED"
)

// ParseStatus validates a persisted status value.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusConfirmed, StatusPending, StatusCancelled, StatusUsed, StatusRefunded:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown ticket status %q", ErrInvalid, s)
}

var (
	// ErrAlreadyCancelled rejects a second cancellation of the same ticket.
	ErrAlreadyCancelled = errors.New("ticket is already cancelled")
	// ErrIrreversible rejects cancellation of refunded or used tickets.
	ErrIrreversible = errors.New("ticket status cannot be reversed")
	// ErrCapacityExhausted rejects a booking larger than one coach.
	ErrCapacityExhausted = errors.New("seat count exceeds coach capacity")
)

// Coach capacities bound the seat-number pool of a single booking.
const (
	acCoachSeats    = 30
	nonACCoachSeats = 72
)

// Passenger is the contact block recorded on a ticket.
type Passenger struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Ticket is one booking record. Like Train it has value semantics: the store
// owns the authoritative copy and all mutation goes through store operations.
type Ticket struct {
	PNR         string    `json:"pnr"`
	UserID      string    `json:"user_id"`
	TrainNumber string    `json:"train_number"`
	SeatCount   int       `json:"seat_count"`
	SeatClass   SeatClass `json:"seat_class"`
	Passenger   Passenger `json:"passenger"`
	JourneyDate time.Time `json:"journey_date"`
	BookedAt    time.Time `json:"booked_at"`
	Status      Status    `json:"status"`

	// Derived at booking time, not persisted: regenerated on load.
	SeatNumbers  []string `json:"seat_numbers"`
	Coach        string   `json:"coach"`
	BookingClass string   `json:"booking_class"` // 1A, 2A, 3A, SL

	BaseFare  float64 `json:"base_fare"`
	Tax       float64 `json:"tax"`
	TotalFare float64 `json:"total_fare"`

	PaymentMethod  string `json:"payment_method,omitempty"`
	PaymentID      string `json:"payment_id,omitempty"`
	TransactionRef string `json:"transaction_ref,omitempty"`
}

// NewTicket creates a CONFIRMED booking against a train whose seats have
// already been reserved. The train is read for fare inputs and the executive
// flag only; it is not retained.
func NewTicket(userID string, train *Train, seatCount int, class SeatClass,
	p Passenger, journeyDate, now time.Time) (Ticket, error) {

	if seatCount <= 0 {
		return Ticket{}, fmt.Errorf("%w: seat count must be positive", ErrInvalid)
	}
	if strings.TrimSpace(p.Name) == "" {
		return Ticket{}, fmt.Errorf("%w: passenger name is required", ErrInvalid)
	}
	if strings.ContainsAny(userID+p.Name+p.Phone+p.Email, "|\n") {
		return Ticket{}, fmt.Errorf("%w: fields must not contain the record delimiter", ErrInvalid)
	}
	coachSeats := nonACCoachSeats
	if class == SeatClassAC {
		coachSeats = acCoachSeats
	}
	if seatCount > coachSeats {
		return Ticket{}, fmt.Errorf("%w: %d seats requested, coach holds %d",
			ErrCapacityExhausted, seatCount, coachSeats)
	}

	t := Ticket{
		PNR:         GeneratePNR(now),
		UserID:      userID,
		TrainNumber: train.Number,
		SeatCount:   seatCount,
		SeatClass:   class,
		Passenger:   p,
		JourneyDate: journeyDate,
		BookedAt:    now,
		Status:      StatusConfirmed,
	}
	t.SeatNumbers = GenerateSeatNumbers(seatCount, class)
	t.Coach = GenerateCoach(class)
	t.BookingClass = DeriveBookingClass(class, seatCount, train.HasExecutiveClass())

	q, err := fare.Compute(train.BaseFare, train.AvailableSeats(), train.TotalSeats,
		seatCount, class == SeatClassAC, t.BookingClass, journeyDate, now)
	if err != nil {
		return Ticket{}, err
	}
	t.BaseFare, t.Tax, t.TotalFare = q.Base, q.Tax, q.Total
	return t, nil
}

// Cancel moves the ticket to CANCELLED. Terminal states are rejected; a
// PENDING ticket is still cancellable.
func (t *Ticket) Cancel() error {
	switch t.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusRefunded, StatusUsed:
		return fmt.Errorf("%w: status is %s", ErrIrreversible, t.Status)
	}
	t.Status = StatusCancelled
	return nil
}

// ApplyPayment records the payment details and settles the ticket. UPI
// settles immediately; credit cards park the ticket in PENDING until the
// charge clears. Two-tier settlement is deliberate policy, not an oversight.
func (t *Ticket) ApplyPayment(method, transactionRef string) {
	t.PaymentMethod = method
	t.TransactionRef = transactionRef
	t.PaymentID = "PAY-" + strings.ToUpper(uuid.NewString()[:8])

	switch strings.ToLower(method) {
	case "upi":
		t.Status = StatusConfirmed
	case "credit card":
		t.Status = StatusPending
	}
}

// IsCancellable reports whether the ticket can still be cancelled: it must be
// CONFIRMED and the journey must not have started.
func (t *Ticket) IsCancellable(now time.Time) bool {
	return t.Status == StatusConfirmed && now.Before(t.JourneyDate)
}

// SeatNumbersString joins the seat numbers for display.
func (t *Ticket) SeatNumbersString() string {
	return strings.Join(t.SeatNumbers, ", ")
}

// GeneratePNR builds a booking reference of the form PNR<5 digits><2 letters>.
// The digits are the millisecond clock modulo 100000, so collisions are
// possible under load; the store checks and regenerates.
func GeneratePNR(now time.Time) string {
	return fmt.Sprintf("PNR%05d%c%c", now.UnixMilli()%100000,
		'A'+rune(rand.IntN(26)), 'A'+rune(rand.IntN(26)))
}

// GenerateSeatNumbers samples count distinct seats from one coach's pool.
// count must already be validated against the coach capacity.
func GenerateSeatNumbers(count int, class SeatClass) []string {
	coachSeats := nonACCoachSeats
	if class == SeatClassAC {
		coachSeats = acCoachSeats
	}
	if count > coachSeats {
		count = coachSeats
	}
	seats := make([]string, 0, count)
	for _, n := range rand.Perm(coachSeats)[:count] {
		seats = append(seats, fmt.Sprintf("%02d", n+1))
	}
	return seats
}

// GenerateCoach labels the coach: A1-A8 for AC, S/B/C + number otherwise.
func GenerateCoach(class SeatClass) string {
	if class == SeatClassAC {
		return fmt.Sprintf("A%d", rand.IntN(8)+1)
	}
	prefixes := [...]string{"S", "B", "C"}
	return fmt.Sprintf("%s%d", prefixes[rand.IntN(len(prefixes))], rand.IntN(12)+1)
}

// DeriveBookingClass maps a reservation onto its fare tier. Small AC parties
// ride the best coach the train offers; non-AC is always sleeper.
func DeriveBookingClass(class SeatClass, seatCount int, executive bool) string {
	if class != SeatClassAC {
		return "SL"
	}
	if executive {
		if seatCount <= 2 {
			return "1A"
		}
		return "2A"
	}
	if seatCount <= 2 {
		return "2A"
	}
	return "3A"
}
