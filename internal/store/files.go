package store

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"railway_rs/internal/fare"
	"railway_rs/internal/models"
)

// File names under the data directory. The store is their only writer.
const (
	trainsFile  = "trains.txt"
	ticketsFile = "tickets.txt"
	usersFile   = "users.txt"
	adminsFile  = "admin.txt"
)

// timeLayout is the fixed ISO local date-time format of all persisted
// timestamps.
const timeLayout = "2006-01-02T15:04:05"

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// load reads all four files. Each line parses independently: a malformed line
// is logged and skipped, never fatal.
func (s *Store) load() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := s.loadTrains(); err != nil {
		return err
	}
	if err := s.loadTickets(); err != nil {
		return err
	}
	var err error
	if s.users, err = s.loadCredentials(usersFile); err != nil {
		return err
	}
	if s.admins, err = s.loadCredentials(adminsFile); err != nil {
		return err
	}
	return nil
}

func (s *Store) loadTrains() error {
	lines, err := readLines(s.path(trainsFile))
	if err != nil {
		return err
	}
	for i, line := range lines {
		tr, err := decodeTrain(line)
		if err != nil {
			s.log.WithFields(logrus.Fields{"file": trainsFile, "line": i + 1}).
				WithError(err).Warn("skipping malformed train record")
			continue
		}
		s.trains[tr.Number] = &tr
	}
	return nil
}

func (s *Store) loadTickets() error {
	lines, err := readLines(s.path(ticketsFile))
	if err != nil {
		return err
	}
	for i, line := range lines {
		t, err := s.decodeTicket(line)
		if err != nil {
			s.log.WithFields(logrus.Fields{"file": ticketsFile, "line": i + 1}).
				WithError(err).Warn("skipping ticket record")
			continue
		}
		s.tickets[t.PNR] = &t
	}
	return nil
}

func (s *Store) loadCredentials(name string) (map[string]string, error) {
	creds := make(map[string]string)
	lines, err := readLines(s.path(name))
	if err != nil {
		return nil, err
	}
	for i, line := range lines {
		user, pass, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(user) == "" {
			s.log.WithFields(logrus.Fields{"file": name, "line": i + 1}).
				Warn("skipping malformed credential record")
			continue
		}
		creds[strings.TrimSpace(user)] = strings.TrimSpace(pass)
	}
	return creds, nil
}

// readLines returns the non-empty lines of a file, or nothing when the file
// does not exist yet.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// decodeTrain parses one pipe-delimited train record:
//
//	number|name|source|dest|departure|arrival|totalSeats|baseFare|availableAc|availableNonAc|acSeats
//
// Older 9-field records end at the AC seat count and default both
// availability pools to full capacity.
func decodeTrain(line string) (models.Train, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 9 && len(parts) < 11 {
		return models.Train{}, fmt.Errorf("expected 9 or 11 fields, got %d", len(parts))
	}

	departure, err := time.Parse(timeLayout, parts[4])
	if err != nil {
		return models.Train{}, fmt.Errorf("departure: %w", err)
	}
	arrival, err := time.Parse(timeLayout, parts[5])
	if err != nil {
		return models.Train{}, fmt.Errorf("arrival: %w", err)
	}
	totalSeats, err := strconv.Atoi(parts[6])
	if err != nil {
		return models.Train{}, fmt.Errorf("total seats: %w", err)
	}
	baseFare, err := strconv.ParseFloat(parts[7], 64)
	if err != nil {
		return models.Train{}, fmt.Errorf("base fare: %w", err)
	}

	tr := models.Train{
		Number:      parts[0],
		Name:        parts[1],
		Source:      parts[2],
		Destination: parts[3],
		Departure:   departure,
		Arrival:     arrival,
		TotalSeats:  totalSeats,
		BaseFare:    baseFare,
	}

	if len(parts) == 9 {
		acSeats, err := strconv.Atoi(parts[8])
		if err != nil {
			return models.Train{}, fmt.Errorf("ac seats: %w", err)
		}
		tr.ACSeats = acSeats
		tr.AvailableAC = acSeats
		tr.AvailableNonAC = totalSeats - acSeats
	} else {
		if tr.AvailableAC, err = strconv.Atoi(parts[8]); err != nil {
			return models.Train{}, fmt.Errorf("available ac: %w", err)
		}
		if tr.AvailableNonAC, err = strconv.Atoi(parts[9]); err != nil {
			return models.Train{}, fmt.Errorf("available non-ac: %w", err)
		}
		if tr.ACSeats, err = strconv.Atoi(parts[10]); err != nil {
			return models.Train{}, fmt.Errorf("ac seats: %w", err)
		}
	}

	if err := tr.Validate(); err != nil {
		return models.Train{}, err
	}
	return tr, nil
}

func encodeTrain(t *models.Train) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d|%.2f|%d|%d|%d",
		t.Number, t.Name, t.Source, t.Destination,
		t.Departure.Format(timeLayout), t.Arrival.Format(timeLayout),
		t.TotalSeats, t.BaseFare, t.AvailableAC, t.AvailableNonAC, t.ACSeats)
}

// decodeTicket parses one ticket record:
//
//	pnr|userId|trainNumber|seatCount|seatClass|name|phone|email|journey|booked|status|payMethod|payId|txnRef|baseFare|tax|totalFare
//
// The three fare fields may be missing from older records; they are then
// recomputed from the referenced train. Seat numbers, coach and booking class
// are not persisted and are regenerated. The referenced train must already be
// loaded or the ticket is dropped with a diagnostic.
func (s *Store) decodeTicket(line string) (models.Ticket, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 14 {
		return models.Ticket{}, fmt.Errorf("expected at least 14 fields, got %d", len(parts))
	}

	seatCount, err := strconv.Atoi(parts[3])
	if err != nil || seatCount <= 0 {
		return models.Ticket{}, fmt.Errorf("seat count %q", parts[3])
	}
	class, err := models.ParseSeatClass(parts[4])
	if err != nil {
		return models.Ticket{}, err
	}
	journey, err := time.Parse(timeLayout, parts[8])
	if err != nil {
		return models.Ticket{}, fmt.Errorf("journey date: %w", err)
	}
	booked, err := time.Parse(timeLayout, parts[9])
	if err != nil {
		return models.Ticket{}, fmt.Errorf("booking time: %w", err)
	}
	status, err := models.ParseStatus(parts[10])
	if err != nil {
		return models.Ticket{}, err
	}

	tr, ok := s.trains[parts[2]]
	if !ok {
		return models.Ticket{}, fmt.Errorf("referenced train %s not loaded", parts[2])
	}

	t := models.Ticket{
		PNR:         parts[0],
		UserID:      parts[1],
		TrainNumber: parts[2],
		SeatCount:   seatCount,
		SeatClass:   class,
		Passenger: models.Passenger{
			Name:  parts[5],
			Phone: parts[6],
			Email: parts[7],
		},
		JourneyDate:    journey,
		BookedAt:       booked,
		Status:         status,
		PaymentMethod:  parts[11],
		PaymentID:      parts[12],
		TransactionRef: parts[13],
	}
	t.SeatNumbers = models.GenerateSeatNumbers(seatCount, class)
	t.Coach = models.GenerateCoach(class)
	t.BookingClass = models.DeriveBookingClass(class, seatCount, tr.HasExecutiveClass())

	if len(parts) >= 17 {
		if t.BaseFare, err = strconv.ParseFloat(parts[14], 64); err != nil {
			return models.Ticket{}, fmt.Errorf("base fare: %w", err)
		}
		if t.Tax, err = strconv.ParseFloat(parts[15], 64); err != nil {
			return models.Ticket{}, fmt.Errorf("tax: %w", err)
		}
		if t.TotalFare, err = strconv.ParseFloat(parts[16], 64); err != nil {
			return models.Ticket{}, fmt.Errorf("total fare: %w", err)
		}
	} else {
		q, err := fare.Compute(tr.BaseFare, tr.AvailableSeats(), tr.TotalSeats,
			seatCount, class == models.SeatClassAC, t.BookingClass, journey, booked)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("recompute fare: %w", err)
		}
		t.BaseFare, t.Tax, t.TotalFare = q.Base, q.Tax, q.Total
	}
	return t, nil
}

func encodeTicket(t *models.Ticket) string {
	return strings.Join([]string{
		t.PNR,
		t.UserID,
		t.TrainNumber,
		strconv.Itoa(t.SeatCount),
		string(t.SeatClass),
		t.Passenger.Name,
		t.Passenger.Phone,
		t.Passenger.Email,
		t.JourneyDate.Format(timeLayout),
		t.BookedAt.Format(timeLayout),
		string(t.Status),
		t.PaymentMethod,
		t.PaymentID,
		t.TransactionRef,
		strconv.FormatFloat(t.BaseFare, 'f', -1, 64),
		strconv.FormatFloat(t.Tax, 'f', -1, 64),
		strconv.FormatFloat(t.TotalFare, 'f', -1, 64),
	}, "|")
}

func (s *Store) saveTrains() error {
	lines := make([]string, 0, len(s.trains))
	for _, tr := range s.trains {
		lines = append(lines, encodeTrain(tr))
	}
	return writeAtomic(s.path(trainsFile), lines)
}

func (s *Store) saveTickets() error {
	lines := make([]string, 0, len(s.tickets))
	for _, t := range s.tickets {
		lines = append(lines, encodeTicket(t))
	}
	return writeAtomic(s.path(ticketsFile), lines)
}

func (s *Store) saveUsers() error  { return s.saveCredentials(s.users, usersFile) }
func (s *Store) saveAdmins() error { return s.saveCredentials(s.admins, adminsFile) }

func (s *Store) saveCredentials(creds map[string]string, name string) error {
	lines := make([]string, 0, len(creds))
	for user, pass := range creds {
		lines = append(lines, user+":"+pass)
	}
	return writeAtomic(s.path(name), lines)
}

// writeAtomic rewrites a collection file with the durable-replace protocol:
// write the complete new content to a temporary file in the same directory,
// sync it, remove the old file, rename the temporary into place. A crash
// mid-write leaves either the old file or the new one, never a truncation.
func writeAtomic(path string, lines []string) error {
	sort.Strings(lines)

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("write %s: %w", tmp, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		os.Remove(tmp)
		return fmt.Errorf("remove %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
