package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parklot/internal/fare"
	"parklot/internal/models"
	redisstore "parklot/internal/redis"
)

// SpotRepository is the spot persistence contract the service consumes.
type SpotRepository interface {
	NextAvailable(ctx context.Context, class models.VehicleType) (int, error)
	SetAvailability(ctx context.Context, number int, available bool) error
}

// TicketRepository is the ticket persistence contract the service consumes.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	FindByPlate(ctx context.Context, plate string) (*models.Ticket, error)
	Update(ctx context.Context, ticket *models.Ticket) error
	CountCompleted(ctx context.Context, plate string) (int, error)
}

// InputReader supplies operator input. Implementations own prompting and
// validation; a blank plate must come back as an error, not as "".
type InputReader interface {
	ReadVehicleTypeSelection() (int, error)
	ReadVehiclePlate() (string, error)
}

// OpenTicketCache is the optional best-effort cache of vehicles currently in
// the lot. May be nil; failures are logged and never affect the operation.
type OpenTicketCache interface {
	Save(ctx context.Context, ticket redisstore.OpenTicket) error
	Get(ctx context.Context, plate string) (*redisstore.OpenTicket, error)
	Delete(ctx context.Context, plate string) error
}

// CheckInResult reports a completed vehicle entry.
type CheckInResult struct {
	SpotNumber        int
	Plate             string
	VehicleType       models.VehicleType
	EntryTime         time.Time
	ReturningCustomer bool
}

// CheckOutResult reports a completed vehicle exit with its final fare.
type CheckOutResult struct {
	Plate      string
	SpotNumber int
	Price      float64
	ExitTime   time.Time
	Discounted bool
}

// ParkingService orchestrates spot allocation and the ticket lifecycle.
type ParkingService struct {
	spots   SpotRepository
	tickets TicketRepository
	input   InputReader
	cache   OpenTicketCache
	fares   *fare.Calculator
	logger  *zap.Logger
	now     func() time.Time
}

// NewParkingService builds the service. cache may be nil.
func NewParkingService(
	spots SpotRepository,
	tickets TicketRepository,
	input InputReader,
	cache OpenTicketCache,
	fares *fare.Calculator,
	logger *zap.Logger,
) *ParkingService {
	return &ParkingService{
		spots:   spots,
		tickets: tickets,
		input:   input,
		cache:   cache,
		fares:   fares,
		logger:  logger,
		now:     time.Now,
	}
}

// ProcessIncomingVehicle allocates a spot and opens a ticket. Nothing is
// mutated until both the vehicle class and a non-blank plate have been read
// and a free spot is known to exist.
func (s *ParkingService) ProcessIncomingVehicle(ctx context.Context) (*CheckInResult, error) {
	class, err := s.readVehicleType()
	if err != nil {
		return nil, err
	}

	spotNumber, err := s.spots.NextAvailable(ctx, class)
	if err != nil {
		return nil, err
	}
	spot := models.Spot{Number: spotNumber, Type: class, Available: true}

	plate, err := s.input.ReadVehiclePlate()
	if err != nil {
		return nil, err
	}

	completed, err := s.tickets.CountCompleted(ctx, plate)
	if err != nil {
		s.logger.Warn("failed to count completed tickets", zap.String("plate", plate), zap.Error(err))
		completed = 0
	}

	if s.cache != nil {
		if cached, cacheErr := s.cache.Get(ctx, plate); cacheErr == nil && cached != nil {
			s.logger.Warn("plate already has an open ticket",
				zap.String("plate", plate),
				zap.Int("spot_number", cached.SpotNumber),
			)
		} else if cacheErr != nil && !errors.Is(cacheErr, redis.Nil) {
			s.logger.Warn("open ticket cache lookup failed", zap.Error(cacheErr))
		}
	}

	// The spot's identity is its number alone; occupy it by key.
	if err := s.spots.SetAvailability(ctx, spot.Key(), false); err != nil {
		return nil, fmt.Errorf("occupy spot %d: %w", spot.Key(), err)
	}

	ticket := &models.Ticket{
		SpotNumber: spot.Key(),
		SpotType:   class,
		Plate:      plate,
		Price:      0,
		EntryTime:  s.now().UTC(),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		// Spot stays occupied: there is no compensating free here, matching
		// the accepted non-transactional design.
		s.logger.Error("ticket create failed after spot was occupied",
			zap.Int("spot_number", spotNumber),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	if s.cache != nil {
		cacheErr := s.cache.Save(ctx, redisstore.OpenTicket{
			TicketID:   ticket.ID,
			Plate:      plate,
			SpotNumber: spotNumber,
			SpotType:   class,
			EntryTime:  ticket.EntryTime,
		})
		if cacheErr != nil {
			s.logger.Warn("failed to cache open ticket", zap.Error(cacheErr))
		}
	}

	s.logger.Info("vehicle checked in",
		zap.String("plate", plate),
		zap.Int("spot_number", spotNumber),
		zap.String("vehicle_type", string(class)),
	)

	return &CheckInResult{
		SpotNumber:        spotNumber,
		Plate:             plate,
		VehicleType:       class,
		EntryTime:         ticket.EntryTime,
		ReturningCustomer: completed > 0,
	}, nil
}

// ProcessExitingVehicle closes the plate's ticket, computes the fare and
// frees the spot. The spot is freed only after the ticket update succeeded;
// a failed free afterwards is logged but does not retract the fare.
func (s *ParkingService) ProcessExitingVehicle(ctx context.Context) (*CheckOutResult, error) {
	plate, err := s.input.ReadVehiclePlate()
	if err != nil {
		return nil, err
	}

	ticket, err := s.tickets.FindByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}

	exitTime := s.now().UTC()

	// Only prior completed stays count; the ticket being closed now has no
	// exit time on file yet and must not count toward its own discount.
	completed, err := s.tickets.CountCompleted(ctx, plate)
	if err != nil {
		s.logger.Warn("failed to count completed tickets", zap.String("plate", plate), zap.Error(err))
		completed = 0
	}
	discount := completed > 1

	price, err := s.fares.Fare(ticket.EntryTime, exitTime, ticket.SpotType, discount)
	if err != nil {
		return nil, err
	}

	ticket.Price = price
	ticket.ExitTime = &exitTime
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("update ticket: %w", err)
	}

	if err := s.spots.SetAvailability(ctx, ticket.SpotNumber, true); err != nil {
		// Ticket is closed but the spot row still says occupied; an operator
		// has to fix it by hand.
		s.logger.Error("failed to free spot after checkout",
			zap.Int("spot_number", ticket.SpotNumber),
			zap.Error(err),
		)
	}

	if s.cache != nil {
		if cacheErr := s.cache.Delete(ctx, plate); cacheErr != nil && !errors.Is(cacheErr, redis.Nil) {
			s.logger.Warn("failed to drop cached open ticket", zap.Error(cacheErr))
		}
	}

	s.logger.Info("vehicle checked out",
		zap.String("plate", plate),
		zap.Int("spot_number", ticket.SpotNumber),
		zap.Float64("price", price),
		zap.Bool("discounted", discount),
	)

	return &CheckOutResult{
		Plate:      plate,
		SpotNumber: ticket.SpotNumber,
		Price:      price,
		ExitTime:   exitTime,
		Discounted: discount && price > 0,
	}, nil
}

func (s *ParkingService) readVehicleType() (models.VehicleType, error) {
	selection, err := s.input.ReadVehicleTypeSelection()
	if err != nil {
		return "", err
	}
	switch selection {
	case 1:
		return models.VehicleTypeCar, nil
	case 2:
		return models.VehicleTypeBike, nil
	default:
		return "", fmt.Errorf("vehicle type %d: %w", selection, models.ErrInvalidSelection)
	}
}
