// Package store is the system of record: authoritative in-memory maps of
// trains, tickets and credentials backed by durable flat files. Every logical
// mutation runs under one coarse store lock and is not complete until the
// rewritten files are in place; a failed write rolls the in-memory change
// back.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"railway_rs/internal/models"
)

var (
	// ErrNotFound reports an unknown train number or PNR.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientSeats rejects a booking the inventory cannot cover.
	ErrInsufficientSeats = errors.New("insufficient seats available")
	// ErrDuplicateTrain rejects adding a train number that already exists.
	ErrDuplicateTrain = errors.New("train number already exists")
	// ErrDuplicatePNR rejects inserting a ticket whose PNR is taken.
	ErrDuplicatePNR = errors.New("pnr already exists")
	// ErrUserExists rejects re-registering a username.
	ErrUserExists = errors.New("username already taken")
	// ErrTrainHasTickets warns that deleting a train would orphan tickets.
	ErrTrainHasTickets = errors.New("train has existing tickets")
	// ErrPersistence reports a failed durable write; the operation that
	// triggered it has been rolled back and did not commit.
	ErrPersistence = errors.New("durable write failed")
)

// Store owns the four entity collections and their files. Construct one with
// Open and pass it to collaborators; there is no hidden global instance.
type Store struct {
	mu  sync.RWMutex
	dir string
	log *logrus.Entry

	trains  map[string]*models.Train
	tickets map[string]*models.Ticket
	users   map[string]string
	admins  map[string]string
}

// Open loads the store from dir, creating the directory and seeding the
// default admin credential when the admin file is empty.
func Open(dir, adminUser, adminPassword string) (*Store, error) {
	s := &Store{
		dir:     dir,
		log:     logrus.WithField("component", "store"),
		trains:  make(map[string]*models.Train),
		tickets: make(map[string]*models.Ticket),
		users:   make(map[string]string),
		admins:  make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	if len(s.admins) == 0 && adminUser != "" {
		s.admins[adminUser] = adminPassword
		if err := s.saveAdmins(); err != nil {
			return nil, fmt.Errorf("%w: seed admin: %w", ErrPersistence, err)
		}
		s.log.WithField("admin", adminUser).Info("seeded default admin credential")
	}
	s.log.WithFields(logrus.Fields{
		"trains":  len(s.trains),
		"tickets": len(s.tickets),
		"users":   len(s.users),
	}).Info("store loaded")
	return s, nil
}

// AddTrain inserts a new train and persists the train file.
func (s *Store) AddTrain(t models.Train) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trains[t.Number]; ok {
		return fmt.Errorf("train %s: %w", t.Number, ErrDuplicateTrain)
	}
	s.trains[t.Number] = &t
	if err := s.saveTrains(); err != nil {
		delete(s.trains, t.Number)
		return fmt.Errorf("%w: save trains: %w", ErrPersistence, err)
	}
	s.log.WithField("train", t.Number).Info("train added")
	return nil
}

// UpdateTrain applies mutate to a copy of the train and commits it if the
// result is valid and the file write succeeds. The train number is immutable.
func (s *Store) UpdateTrain(number string, mutate func(*models.Train) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.trains[number]
	if !ok {
		return fmt.Errorf("train %s: %w", number, ErrNotFound)
	}
	prev := *tr
	next := prev
	if err := mutate(&next); err != nil {
		return err
	}
	next.Number = prev.Number
	if err := next.Validate(); err != nil {
		return err
	}
	*tr = next
	if err := s.saveTrains(); err != nil {
		*tr = prev
		return fmt.Errorf("%w: save trains: %w", ErrPersistence, err)
	}
	return nil
}

// DeleteTrain removes a train. When tickets still reference it the delete is
// refused with ErrTrainHasTickets unless force is set, so the caller must
// acknowledge that those tickets become orphans.
func (s *Store) DeleteTrain(number string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.trains[number]
	if !ok {
		return fmt.Errorf("train %s: %w", number, ErrNotFound)
	}
	refs := 0
	for _, t := range s.tickets {
		if t.TrainNumber == number {
			refs++
		}
	}
	if refs > 0 && !force {
		return fmt.Errorf("%d ticket(s) reference train %s: %w", refs, number, ErrTrainHasTickets)
	}

	delete(s.trains, number)
	if err := s.saveTrains(); err != nil {
		s.trains[number] = tr
		return fmt.Errorf("%w: save trains: %w", ErrPersistence, err)
	}
	if refs > 0 {
		s.log.WithFields(logrus.Fields{"train": number, "orphaned": refs}).
			Warn("train deleted with live tickets")
	}
	return nil
}

// GetTrain returns a copy of one train.
func (s *Store) GetTrain(number string) (models.Train, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tr, ok := s.trains[strings.TrimSpace(number)]
	if !ok {
		return models.Train{}, fmt.Errorf("train %s: %w", number, ErrNotFound)
	}
	return *tr, nil
}

// Trains returns a snapshot of all trains ordered by number.
func (s *Store) Trains() []models.Train {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Train, 0, len(s.trains))
	for _, tr := range s.trains {
		out = append(out, *tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// BookTicket reserves seats, creates the ticket and persists both files as
// one logical operation. Nothing survives a failure: the reservation is
// released and the ticket discarded.
func (s *Store) BookTicket(userID, trainNumber string, seatCount int, class models.SeatClass,
	p models.Passenger, journeyDate time.Time) (models.Ticket, error) {

	if seatCount <= 0 {
		return models.Ticket{}, fmt.Errorf("%w: seat count must be positive", models.ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.trains[strings.TrimSpace(trainNumber)]
	if !ok {
		return models.Ticket{}, fmt.Errorf("train %s: %w", trainNumber, ErrNotFound)
	}
	if !tr.Reserve(seatCount, class) {
		return models.Ticket{}, fmt.Errorf("train %s has %d %s seat(s) free, %d requested: %w",
			tr.Number, tr.Available(class), class, seatCount, ErrInsufficientSeats)
	}

	now := time.Now()
	t, err := models.NewTicket(userID, tr, seatCount, class, p, journeyDate, now)
	if err != nil {
		tr.Release(seatCount, class)
		return models.Ticket{}, err
	}

	// The PNR format is dense enough to collide under load; regenerate
	// rather than overwrite an unrelated booking.
	for i := 0; ; i++ {
		if _, taken := s.tickets[t.PNR]; !taken {
			break
		}
		if i == 16 {
			tr.Release(seatCount, class)
			return models.Ticket{}, fmt.Errorf("could not allocate a unique pnr: %w", ErrDuplicatePNR)
		}
		t.PNR = models.GeneratePNR(time.Now())
	}

	s.tickets[t.PNR] = &t
	if err := s.persistBookingState(); err != nil {
		delete(s.tickets, t.PNR)
		tr.Release(seatCount, class)
		return models.Ticket{}, fmt.Errorf("%w: save booking: %w", ErrPersistence, err)
	}
	s.log.WithFields(logrus.Fields{
		"pnr": t.PNR, "train": tr.Number, "seats": seatCount, "class": class,
	}).Info("ticket booked")
	return t, nil
}

// AddTicket inserts an externally constructed ticket. The PNR must be free;
// an existing booking is never silently overwritten.
func (s *Store) AddTicket(t models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.tickets[t.PNR]; taken {
		return fmt.Errorf("ticket %s: %w", t.PNR, ErrDuplicatePNR)
	}
	s.tickets[t.PNR] = &t
	if err := s.saveTickets(); err != nil {
		delete(s.tickets, t.PNR)
		return fmt.Errorf("%w: save tickets: %w", ErrPersistence, err)
	}
	return nil
}

// GetTicket returns a copy of one ticket.
func (s *Store) GetTicket(pnr string) (models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[strings.TrimSpace(pnr)]
	if !ok {
		return models.Ticket{}, fmt.Errorf("ticket %s: %w", pnr, ErrNotFound)
	}
	return *t, nil
}

// Tickets returns a snapshot of all tickets ordered by PNR.
func (s *Store) Tickets() []models.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticketsLocked(func(*models.Ticket) bool { return true })
}

// TicketsByUser returns the snapshot filtered to one user's bookings.
func (s *Store) TicketsByUser(userID string) []models.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticketsLocked(func(t *models.Ticket) bool { return t.UserID == userID })
}

func (s *Store) ticketsLocked(keep func(*models.Ticket) bool) []models.Ticket {
	out := make([]models.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if keep(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PNR < out[j].PNR })
	return out
}

// CancelTicket cancels a booking and returns its seats to the train. The
// cancellation commits only when both files are durably rewritten; otherwise
// status and inventory are restored.
func (s *Store) CancelTicket(pnr string) error {
	pnr = strings.TrimSpace(pnr)
	if pnr == "" {
		return fmt.Errorf("%w: pnr is required", models.ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[pnr]
	if !ok {
		return fmt.Errorf("ticket %s: %w", pnr, ErrNotFound)
	}
	prev := t.Status
	if err := t.Cancel(); err != nil {
		return err
	}

	tr := s.trains[t.TrainNumber]
	if tr != nil {
		tr.Release(t.SeatCount, t.SeatClass)
	} else {
		s.log.WithFields(logrus.Fields{"pnr": pnr, "train": t.TrainNumber}).
			Warn("cancelled ticket references a missing train; no seats to release")
	}

	if err := s.persistBookingState(); err != nil {
		t.Status = prev
		if tr != nil {
			tr.Reserve(t.SeatCount, t.SeatClass)
		}
		return fmt.Errorf("%w: save cancellation: %w", ErrPersistence, err)
	}
	s.log.WithFields(logrus.Fields{"pnr": pnr, "seats": t.SeatCount}).Info("ticket cancelled")
	return nil
}

// SetPaymentDetails records payment on a ticket and persists it. UPI settles
// to CONFIRMED, credit card to PENDING.
func (s *Store) SetPaymentDetails(pnr, method, transactionRef string) (models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[strings.TrimSpace(pnr)]
	if !ok {
		return models.Ticket{}, fmt.Errorf("ticket %s: %w", pnr, ErrNotFound)
	}
	prev := *t
	t.ApplyPayment(method, transactionRef)
	if err := s.saveTickets(); err != nil {
		*t = prev
		return models.Ticket{}, fmt.Errorf("%w: save payment: %w", ErrPersistence, err)
	}
	return *t, nil
}

// AddUser registers a user credential. Usernames are unique and records are
// never updated in place.
func (s *Store) AddUser(username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", models.ErrInvalid)
	}
	if strings.ContainsAny(username, ":|\n") {
		return fmt.Errorf("%w: username contains reserved characters", models.ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.users[username]; taken {
		return fmt.Errorf("user %s: %w", username, ErrUserExists)
	}
	s.users[username] = password
	if err := s.saveUsers(); err != nil {
		delete(s.users, username)
		return fmt.Errorf("%w: save users: %w", ErrPersistence, err)
	}
	s.log.WithField("user", username).Info("user registered")
	return nil
}

// ValidateUser checks a user credential. Comparison is plain string equality
// after trimming: credentials are stored in clear text for compatibility with
// the legacy data files, a documented weakness of this system.
func (s *Store) ValidateUser(username, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.users[strings.TrimSpace(username)]
	return ok && stored == strings.TrimSpace(password)
}

// ValidateAdmin checks an admin credential the same way as ValidateUser.
func (s *Store) ValidateAdmin(username, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.admins[strings.TrimSpace(username)]
	return ok && stored == strings.TrimSpace(password)
}

// persistBookingState rewrites the two files a booking or cancellation
// touches. Callers hold the write lock.
func (s *Store) persistBookingState() error {
	if err := s.saveTickets(); err != nil {
		return fmt.Errorf("save tickets: %w", err)
	}
	if err := s.saveTrains(); err != nil {
		return fmt.Errorf("save trains: %w", err)
	}
	return nil
}
