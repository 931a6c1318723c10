package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"parklot/internal/models"
	"parklot/internal/service"
)

const (
	optionEnter    = 1
	optionExit     = 2
	optionShutdown = 3
)

// Shell is the operator-facing menu loop: enter vehicle, exit vehicle,
// shutdown. Every operation failure is reported as a message and the loop
// continues; only EOF or context cancellation stops it.
type Shell struct {
	svc    *service.ParkingService
	reader *Reader
	out    io.Writer
	logger *zap.Logger
}

// NewShell builds the menu loop.
func NewShell(svc *service.ParkingService, reader *Reader, out io.Writer, logger *zap.Logger) *Shell {
	return &Shell{
		svc:    svc,
		reader: reader,
		out:    out,
		logger: logger,
	}
}

// Run drives the menu until shutdown is selected, input ends, or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Welcome to Parking System!")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.printMenu()
		option, err := s.reader.ReadMenuOption()
		if err != nil {
			if errors.Is(err, models.ErrInvalidSelection) {
				fmt.Fprintln(s.out, "Unsupported option. Please enter a number corresponding to the provided menu")
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch option {
		case optionEnter:
			s.handleIncoming(ctx)
		case optionExit:
			s.handleExiting(ctx)
		case optionShutdown:
			fmt.Fprintln(s.out, "Exiting from the system!")
			return nil
		default:
			fmt.Fprintln(s.out, "Unsupported option. Please enter a number corresponding to the provided menu")
		}
	}
}

func (s *Shell) handleIncoming(ctx context.Context) {
	result, err := s.svc.ProcessIncomingVehicle(ctx)
	if err != nil {
		s.reportFailure("Unable to process incoming vehicle", err)
		return
	}

	if result.ReturningCustomer {
		fmt.Fprintln(s.out, "Welcome back! As a regular user, you will receive a 5% discount")
	}
	fmt.Fprintf(s.out, "Please park your vehicle in spot number: %d\n", result.SpotNumber)
	fmt.Fprintf(s.out, "Recorded in-time for vehicle number %s is %s\n",
		result.Plate, result.EntryTime.Format(time.RFC1123))
}

func (s *Shell) handleExiting(ctx context.Context) {
	result, err := s.svc.ProcessExitingVehicle(ctx)
	if err != nil {
		s.reportFailure("Unable to process exiting vehicle", err)
		return
	}

	fmt.Fprintf(s.out, "Please pay the parking fare: %.2f\n", result.Price)
	fmt.Fprintf(s.out, "Recorded out-time for vehicle number %s is %s\n",
		result.Plate, result.ExitTime.Format(time.RFC1123))
}

func (s *Shell) reportFailure(message string, err error) {
	switch {
	case errors.Is(err, models.ErrNoSpotAvailable):
		fmt.Fprintln(s.out, "Sorry, the parking lot is full for this vehicle type")
	case errors.Is(err, models.ErrTicketNotFound):
		fmt.Fprintln(s.out, "No ticket found for this registration number")
	case errors.Is(err, models.ErrInvalidSelection):
		fmt.Fprintln(s.out, "Incorrect input provided")
	case errors.Is(err, models.ErrBlankPlate):
		fmt.Fprintln(s.out, "Registration number must not be blank")
	default:
		fmt.Fprintf(s.out, "%s. Error occurred\n", message)
	}
	s.logger.Error(message, zap.Error(err))
}

func (s *Shell) printMenu() {
	fmt.Fprintln(s.out, "Please select an option. Simply enter the number to choose an action")
	fmt.Fprintln(s.out, "1 New Vehicle Entering - Allocate Parking Space")
	fmt.Fprintln(s.out, "2 Vehicle Exiting - Generate Ticket Price")
	fmt.Fprintln(s.out, "3 Shutdown System")
}
