// Package report is the read-only query façade over the store: listings for
// the UI collaborators and the snapshot text report. Nothing here mutates
// state, and every listing is rendered from an immutable store snapshot.
package report

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"railway_rs/internal/models"
	"railway_rs/internal/store"
)

// TrainListing renders all trains as an aligned table.
func TrainListing(s *store.Store) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tNAME\tROUTE\tDEPARTURE\tAC FREE\tNON-AC FREE\tBASE FARE")
	for _, tr := range s.Trains() {
		fmt.Fprintf(w, "%s\t%s\t%s-%s\t%s\t%d/%d\t%d/%d\t%.2f\n",
			tr.Number, tr.Name, tr.Source, tr.Destination,
			tr.Departure.Format("02 Jan 2006 15:04"),
			tr.AvailableAC, tr.ACSeats,
			tr.AvailableNonAC, tr.TotalSeats-tr.ACSeats,
			tr.BaseFare)
	}
	w.Flush()
	return b.String()
}

// TicketListing renders all tickets; UserTicketListing restricts it to one
// user's bookings.
func TicketListing(s *store.Store) string {
	return renderTickets(s.Tickets())
}

func UserTicketListing(s *store.Store, userID string) string {
	return renderTickets(s.TicketsByUser(userID))
}

func renderTickets(tickets []models.Ticket) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PNR\tPASSENGER\tTRAIN\tCLASS\tSEATS\tJOURNEY\tSTATUS\tTOTAL")
	for _, t := range tickets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%.2f\n",
			t.PNR, t.Passenger.Name, t.TrainNumber, t.BookingClass, t.SeatCount,
			t.JourneyDate.Format("02 Jan 2006"), t.Status, t.TotalFare)
	}
	w.Flush()
	return b.String()
}

// Printout renders a single ticket the way the booking confirmation screen
// shows it.
func Printout(t models.Ticket, tr models.Train) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket Details:\n")
	fmt.Fprintf(&b, "PNR: %s\n", t.PNR)
	fmt.Fprintf(&b, "Passenger Name: %s\n", t.Passenger.Name)
	fmt.Fprintf(&b, "Train: %s (%s) %s to %s\n", tr.Name, tr.Number, tr.Source, tr.Destination)
	fmt.Fprintf(&b, "Journey Date: %s\n", t.JourneyDate.Format("Mon, 02 Jan 2006"))
	fmt.Fprintf(&b, "Coach %s, Seats: %s (%s)\n", t.Coach, t.SeatNumbersString(), t.BookingClass)
	fmt.Fprintf(&b, "Status: %s\n", t.Status)
	fmt.Fprintf(&b, "Fare: %.2f (base %.2f + tax %.2f)\n", t.TotalFare, t.BaseFare, t.Tax)
	if t.PaymentID != "" {
		fmt.Fprintf(&b, "Payment: %s via %s (ref %s)\n", t.PaymentID, t.PaymentMethod, t.TransactionRef)
	}
	return b.String()
}

// Write dumps a snapshot report of all trains and tickets to path. The report
// is a write-once text file, not part of the durable store, so it uses a
// plain create-and-write.
func Write(s *store.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "Railway Booking System Report")
	fmt.Fprintln(f, "Generated at:", time.Now().Format("2006-01-02T15:04:05"))
	fmt.Fprintln(f, "\nTrains:")
	for _, tr := range s.Trains() {
		fmt.Fprintf(f, "%s - %s\n", tr.Number, tr.Name)
	}
	fmt.Fprintln(f, "\nTickets:")
	for _, t := range s.Tickets() {
		fmt.Fprintf(f, "%s - %s\n", t.PNR, t.Passenger.Name)
	}
	return nil
}
