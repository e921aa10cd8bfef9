package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"railway_rs/internal/models"
	"railway_rs/internal/store"
)

func seededStore(t *testing.T) (*store.Store, models.Ticket) {
	t.Helper()
	s, err := store.Open(t.TempDir(), "admin", "admin123")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	dep := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	tr, err := models.NewTrain("12345", "Test Express", "Delhi", "Mumbai",
		dep, dep.Add(16*time.Hour), 300, 500, 100)
	if err != nil {
		t.Fatalf("NewTrain: %v", err)
	}
	if err := s.AddTrain(tr); err != nil {
		t.Fatalf("AddTrain: %v", err)
	}
	tk, err := s.BookTicket("alice", "12345", 2, models.SeatClassAC,
		models.Passenger{Name: "Alice", Phone: "123", Email: "a@example.com"},
		time.Now().Add(40*24*time.Hour))
	if err != nil {
		t.Fatalf("BookTicket: %v", err)
	}
	return s, tk
}

func TestListings(t *testing.T) {
	s, tk := seededStore(t)

	trains := TrainListing(s)
	if !strings.Contains(trains, "12345") || !strings.Contains(trains, "Delhi-Mumbai") {
		t.Errorf("train listing missing fields:\n%s", trains)
	}
	if !strings.Contains(trains, "98/100") {
		t.Errorf("train listing does not show AC availability 98/100:\n%s", trains)
	}

	all := TicketListing(s)
	if !strings.Contains(all, tk.PNR) {
		t.Errorf("ticket listing missing %s:\n%s", tk.PNR, all)
	}
	if got := UserTicketListing(s, "bob"); strings.Contains(got, tk.PNR) {
		t.Error("user filter leaked another user's ticket")
	}
}

func TestPrintout(t *testing.T) {
	s, tk := seededStore(t)
	tr, err := s.GetTrain(tk.TrainNumber)
	if err != nil {
		t.Fatalf("GetTrain: %v", err)
	}
	out := Printout(tk, tr)
	for _, want := range []string{tk.PNR, "Alice", "Delhi to Mumbai", string(tk.Status)} {
		if !strings.Contains(out, want) {
			t.Errorf("printout missing %q:\n%s", want, out)
		}
	}
}

func TestWriteReport(t *testing.T) {
	s, tk := seededStore(t)
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := Write(s, path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	report := string(data)
	for _, want := range []string{"Railway Booking System Report", "12345 - Test Express", tk.PNR + " - Alice"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}
