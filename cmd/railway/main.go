// Command railway is the console collaborator of the reservation engine. It
// renders engine results and owns no state of its own: every mutation goes
// through the store.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"railway_rs/internal/config"
	"railway_rs/internal/logger"
	"railway_rs/internal/models"
	"railway_rs/internal/report"
	"railway_rs/internal/store"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

var (
	cfg config.Config
	st  *store.Store
)

func main() {
	figure.NewFigure("Railway RS", "", true).Print()

	root := &cobra.Command{
		Use:           "railway",
		Short:         "Rail ticket reservation system",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			logger.Setup(cfg.LogFile, cfg.LogLevel)

			var err error
			st, err = store.Open(cfg.DataDir, cfg.AdminUser, cfg.AdminPassword)
			return err
		},
	}
	root.AddCommand(trainsCmd(), trainCmd(), bookCmd(), cancelCmd(),
		ticketCmd(), ticketsCmd(), userCmd(), loginCmd(), reportCmd())

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func trainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trains",
		Short: "List all trains with availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(report.TrainListing(st))
			return nil
		},
	}
}

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "train", Short: "Administer trains"}

	var (
		name, from, to, depart, arrive, trainType string
		seats, acSeats, speed                     int
		fareAmount                                float64
		pantry, force                             bool
	)

	add := &cobra.Command{
		Use:   "add <number>",
		Short: "Add a train",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dep, err := time.Parse(dateTimeLayout, depart)
			if err != nil {
				return fmt.Errorf("--depart: %w", err)
			}
			arr, err := time.Parse(dateTimeLayout, arrive)
			if err != nil {
				return fmt.Errorf("--arrive: %w", err)
			}
			tr, err := models.NewTrain(args[0], name, from, to, dep, arr, seats, fareAmount, acSeats)
			if err != nil {
				return err
			}
			tr.TrainType = trainType
			tr.HasPantry = pantry
			tr.AverageSpeed = speed
			if err := st.AddTrain(tr); err != nil {
				return err
			}
			fmt.Printf("train %s added\n", tr.Number)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "train name")
	add.Flags().StringVar(&from, "from", "", "source station")
	add.Flags().StringVar(&to, "to", "", "destination station")
	add.Flags().StringVar(&depart, "depart", "", "departure (2006-01-02T15:04)")
	add.Flags().StringVar(&arrive, "arrive", "", "arrival (2006-01-02T15:04)")
	add.Flags().IntVar(&seats, "seats", 0, "total seats")
	add.Flags().IntVar(&acSeats, "ac-seats", 0, "AC seats")
	add.Flags().Float64Var(&fareAmount, "fare", 0, "base fare")
	add.Flags().StringVar(&trainType, "type", "", "train type (Rajdhani, Shatabdi, Express, ...)")
	add.Flags().BoolVar(&pantry, "pantry", false, "has pantry car")
	add.Flags().IntVar(&speed, "speed", 0, "average speed km/h")

	update := &cobra.Command{
		Use:   "update <number>",
		Short: "Edit train fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.UpdateTrain(args[0], func(tr *models.Train) error {
				flags := cmd.Flags()
				if flags.Changed("name") {
					tr.Name = name
				}
				if flags.Changed("from") {
					tr.Source = from
				}
				if flags.Changed("to") {
					tr.Destination = to
				}
				if flags.Changed("depart") {
					dep, err := time.Parse(dateTimeLayout, depart)
					if err != nil {
						return fmt.Errorf("--depart: %w", err)
					}
					tr.Departure = dep
				}
				if flags.Changed("arrive") {
					arr, err := time.Parse(dateTimeLayout, arrive)
					if err != nil {
						return fmt.Errorf("--arrive: %w", err)
					}
					tr.Arrival = arr
				}
				if flags.Changed("fare") {
					tr.BaseFare = fareAmount
				}
				if flags.Changed("type") {
					tr.TrainType = trainType
				}
				if flags.Changed("pantry") {
					tr.HasPantry = pantry
				}
				if flags.Changed("speed") {
					tr.AverageSpeed = speed
				}
				if flags.Changed("seats") || flags.Changed("ac-seats") {
					total, ac := tr.TotalSeats, tr.ACSeats
					if flags.Changed("seats") {
						total = seats
					}
					if flags.Changed("ac-seats") {
						ac = acSeats
					}
					return tr.SetSeatConfig(total, ac)
				}
				return nil
			})
		},
	}
	update.Flags().AddFlagSet(add.Flags())

	del := &cobra.Command{
		Use:   "delete <number>",
		Short: "Delete a train",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := st.DeleteTrain(args[0], force)
			if errors.Is(err, store.ErrTrainHasTickets) {
				return fmt.Errorf("%w; re-run with --force to delete anyway", err)
			}
			return err
		},
	}
	del.Flags().BoolVar(&force, "force", false, "delete even when tickets reference the train")

	cmd.AddCommand(add, update, del)
	return cmd
}

func bookCmd() *cobra.Command {
	var (
		user, train, class, name, phone, email, date string
		seatCount                                    int
		payMethod, payRef                            string
	)
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a ticket",
		RunE: func(cmd *cobra.Command, args []string) error {
			seatClass, err := models.ParseSeatClass(class)
			if err != nil {
				return err
			}
			journey, err := time.Parse(dateLayout, date)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}
			t, err := st.BookTicket(user, train, seatCount, seatClass,
				models.Passenger{Name: name, Phone: phone, Email: email}, journey)
			if err != nil {
				return err
			}
			if payMethod != "" {
				paid, err := st.SetPaymentDetails(t.PNR, payMethod, payRef)
				if err != nil {
					// Booking without durable payment details is rolled
					// back rather than left half-settled.
					if cancelErr := st.CancelTicket(t.PNR); cancelErr != nil {
						logrus.WithError(cancelErr).Error("rollback of unpaid booking failed")
					}
					return err
				}
				t = paid
			}
			tr, err := st.GetTrain(t.TrainNumber)
			if err != nil {
				return err
			}
			fmt.Print(report.Printout(t, tr))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "booking user id")
	cmd.Flags().StringVar(&train, "train", "", "train number")
	cmd.Flags().IntVar(&seatCount, "seats", 1, "number of seats")
	cmd.Flags().StringVar(&class, "class", "Non-AC", "seat class (AC or Non-AC)")
	cmd.Flags().StringVar(&name, "name", "", "passenger name")
	cmd.Flags().StringVar(&phone, "phone", "", "passenger phone")
	cmd.Flags().StringVar(&email, "email", "", "passenger email")
	cmd.Flags().StringVar(&date, "date", "", "journey date (2006-01-02)")
	cmd.Flags().StringVar(&payMethod, "pay", "", "payment method (UPI or Credit Card)")
	cmd.Flags().StringVar(&payRef, "ref", "", "payment transaction reference")
	return cmd
}

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <pnr>",
		Short: "Cancel a ticket and release its seats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.CancelTicket(args[0]); err != nil {
				return err
			}
			fmt.Printf("ticket %s cancelled; seats returned to availability\n", args[0])
			return nil
		},
	}
}

func ticketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ticket <pnr>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := st.GetTicket(args[0])
			if err != nil {
				return err
			}
			tr, err := st.GetTrain(t.TrainNumber)
			if err != nil {
				return err
			}
			fmt.Print(report.Printout(t, tr))
			return nil
		},
	}
}

func ticketsCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user != "" {
				fmt.Print(report.UserTicketListing(st, user))
			} else {
				fmt.Print(report.TicketListing(st))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "restrict to one user's bookings")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage user accounts"}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <username> <password>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.AddUser(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("user %s registered\n", args[0])
			return nil
		},
	})
	return cmd
}

func loginCmd() *cobra.Command {
	var admin bool
	cmd := &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Check a credential",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok := st.ValidateUser(args[0], args[1])
			if admin {
				ok = st.ValidateAdmin(args[0], args[1])
			}
			if !ok {
				return errors.New("invalid credentials")
			}
			fmt.Println("login ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "check against the admin namespace")
	return cmd
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <path>",
		Short: "Write a snapshot report of trains and tickets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := report.Write(st, args[0]); err != nil {
				return err
			}
			fmt.Printf("report written to %s\n", args[0])
			return nil
		},
	}
}
