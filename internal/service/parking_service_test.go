package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"parklot/internal/fare"
	"parklot/internal/models"
	redisstore "parklot/internal/redis"
)

type mockSpotRepo struct{ mock.Mock }

func (m *mockSpotRepo) NextAvailable(ctx context.Context, class models.VehicleType) (int, error) {
	args := m.Called(ctx, class)
	return args.Int(0), args.Error(1)
}

func (m *mockSpotRepo) SetAvailability(ctx context.Context, number int, available bool) error {
	return m.Called(ctx, number, available).Error(0)
}

type mockTicketRepo struct{ mock.Mock }

func (m *mockTicketRepo) Create(ctx context.Context, ticket *models.Ticket) error {
	return m.Called(ctx, ticket).Error(0)
}

func (m *mockTicketRepo) FindByPlate(ctx context.Context, plate string) (*models.Ticket, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *mockTicketRepo) Update(ctx context.Context, ticket *models.Ticket) error {
	return m.Called(ctx, ticket).Error(0)
}

func (m *mockTicketRepo) CountCompleted(ctx context.Context, plate string) (int, error) {
	args := m.Called(ctx, plate)
	return args.Int(0), args.Error(1)
}

type mockInput struct{ mock.Mock }

func (m *mockInput) ReadVehicleTypeSelection() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *mockInput) ReadVehiclePlate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Save(ctx context.Context, ticket redisstore.OpenTicket) error {
	return m.Called(ctx, ticket).Error(0)
}

func (m *mockCache) Get(ctx context.Context, plate string) (*redisstore.OpenTicket, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redisstore.OpenTicket), args.Error(1)
}

func (m *mockCache) Delete(ctx context.Context, plate string) error {
	return m.Called(ctx, plate).Error(0)
}

var testTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestService(spots *mockSpotRepo, tickets *mockTicketRepo, input *mockInput, cache OpenTicketCache) *ParkingService {
	svc := NewParkingService(spots, tickets, input, cache, fare.NewCalculator(nil), zap.NewNop())
	svc.now = func() time.Time { return testTime }
	return svc
}

func TestProcessIncomingVehicle(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehicleTypeSelection").Return(1, nil)
	input.On("ReadVehiclePlate").Return("ABCDEF", nil)
	spots.On("NextAvailable", mock.Anything, models.VehicleTypeCar).Return(1, nil)
	tickets.On("CountCompleted", mock.Anything, "ABCDEF").Return(0, nil)
	spots.On("SetAvailability", mock.Anything, 1, false).Return(nil)
	tickets.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Ticket).ID = 42
	}).Return(nil)

	result, err := svc.ProcessIncomingVehicle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.SpotNumber)
	assert.Equal(t, "ABCDEF", result.Plate)
	assert.Equal(t, models.VehicleTypeCar, result.VehicleType)
	assert.Equal(t, testTime, result.EntryTime)
	assert.False(t, result.ReturningCustomer)

	created := tickets.Calls[1].Arguments.Get(1).(*models.Ticket)
	assert.Equal(t, 1, created.SpotNumber)
	assert.Equal(t, models.VehicleTypeCar, created.SpotType)
	assert.Zero(t, created.Price)
	assert.Nil(t, created.ExitTime)
}

func TestProcessIncomingVehicle_ReturningCustomer(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehicleTypeSelection").Return(2, nil)
	input.On("ReadVehiclePlate").Return("ABCDEF", nil)
	spots.On("NextAvailable", mock.Anything, models.VehicleTypeBike).Return(4, nil)
	tickets.On("CountCompleted", mock.Anything, "ABCDEF").Return(1, nil)
	spots.On("SetAvailability", mock.Anything, 4, false).Return(nil)
	tickets.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.ProcessIncomingVehicle(context.Background())

	require.NoError(t, err)
	assert.True(t, result.ReturningCustomer)
}

func TestProcessIncomingVehicle_InvalidSelection(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehicleTypeSelection").Return(3, nil)

	_, err := svc.ProcessIncomingVehicle(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidSelection)
	spots.AssertNotCalled(t, "NextAvailable", mock.Anything, mock.Anything)
	tickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessIncomingVehicle_LotFull(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehicleTypeSelection").Return(1, nil)
	spots.On("NextAvailable", mock.Anything, models.VehicleTypeCar).Return(0, models.ErrNoSpotAvailable)

	_, err := svc.ProcessIncomingVehicle(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNoSpotAvailable)
	spots.AssertNotCalled(t, "SetAvailability", mock.Anything, mock.Anything, mock.Anything)
	tickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessIncomingVehicle_BlankPlate(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehicleTypeSelection").Return(1, nil)
	spots.On("NextAvailable", mock.Anything, models.VehicleTypeCar).Return(1, nil)
	input.On("ReadVehiclePlate").Return("", models.ErrBlankPlate)

	_, err := svc.ProcessIncomingVehicle(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBlankPlate)
	// The spot lookup already happened but nothing was mutated.
	spots.AssertNotCalled(t, "SetAvailability", mock.Anything, mock.Anything, mock.Anything)
	tickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessIncomingVehicle_CountFailureIsNotFatal(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehicleTypeSelection").Return(1, nil)
	input.On("ReadVehiclePlate").Return("ABCDEF", nil)
	spots.On("NextAvailable", mock.Anything, models.VehicleTypeCar).Return(2, nil)
	tickets.On("CountCompleted", mock.Anything, "ABCDEF").Return(0, errors.New("db down"))
	spots.On("SetAvailability", mock.Anything, 2, false).Return(nil)
	tickets.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.ProcessIncomingVehicle(context.Background())

	require.NoError(t, err)
	assert.False(t, result.ReturningCustomer)
}

func TestProcessIncomingVehicle_CreateFailureLeavesSpotOccupied(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehicleTypeSelection").Return(1, nil)
	input.On("ReadVehiclePlate").Return("ABCDEF", nil)
	spots.On("NextAvailable", mock.Anything, models.VehicleTypeCar).Return(1, nil)
	tickets.On("CountCompleted", mock.Anything, "ABCDEF").Return(0, nil)
	spots.On("SetAvailability", mock.Anything, 1, false).Return(nil)
	tickets.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	_, err := svc.ProcessIncomingVehicle(context.Background())

	require.Error(t, err)
	// No compensating free: the spot stays occupied.
	spots.AssertNotCalled(t, "SetAvailability", mock.Anything, 1, true)
}

func TestProcessIncomingVehicle_CachesOpenTicket(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	cache := new(mockCache)
	svc := newTestService(spots, tickets, input, cache)

	input.On("ReadVehicleTypeSelection").Return(1, nil)
	input.On("ReadVehiclePlate").Return("ABCDEF", nil)
	spots.On("NextAvailable", mock.Anything, models.VehicleTypeCar).Return(1, nil)
	tickets.On("CountCompleted", mock.Anything, "ABCDEF").Return(0, nil)
	cache.On("Get", mock.Anything, "ABCDEF").Return(nil, nil)
	spots.On("SetAvailability", mock.Anything, 1, false).Return(nil)
	tickets.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Ticket).ID = 7
	}).Return(nil)
	cache.On("Save", mock.Anything, mock.MatchedBy(func(ot redisstore.OpenTicket) bool {
		return ot.TicketID == 7 && ot.Plate == "ABCDEF" && ot.SpotNumber == 1
	})).Return(nil)

	_, err := svc.ProcessIncomingVehicle(context.Background())

	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func openTicket(entry time.Time) *models.Ticket {
	return &models.Ticket{
		ID:         42,
		SpotNumber: 1,
		SpotType:   models.VehicleTypeCar,
		Plate:      "ABCDEF",
		EntryTime:  entry,
	}
}

func TestProcessExitingVehicle(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehiclePlate").Return("ABCDEF", nil)
	tickets.On("FindByPlate", mock.Anything, "ABCDEF").Return(openTicket(testTime.Add(-65*time.Minute)), nil)
	tickets.On("CountCompleted", mock.Anything, "ABCDEF").Return(1, nil)
	tickets.On("Update", mock.Anything, mock.Anything).Return(nil)
	spots.On("SetAvailability", mock.Anything, 1, true).Return(nil)

	result, err := svc.ProcessExitingVehicle(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 1.625, result.Price, 1e-9)
	assert.Equal(t, testTime, result.ExitTime)
	assert.Equal(t, 1, result.SpotNumber)
	// Exactly one prior completed stay does not qualify for the discount.
	assert.False(t, result.Discounted)

	updated := tickets.Calls[2].Arguments.Get(1).(*models.Ticket)
	require.NotNil(t, updated.ExitTime)
	assert.Equal(t, testTime, *updated.ExitTime)
	assert.InDelta(t, 1.625, updated.Price, 1e-9)
	spots.AssertCalled(t, "SetAvailability", mock.Anything, 1, true)
}

func TestProcessExitingVehicle_RecurringDiscount(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehiclePlate").Return("ABCDEF", nil)
	tickets.On("FindByPlate", mock.Anything, "ABCDEF").Return(openTicket(testTime.Add(-65*time.Minute)), nil)
	tickets.On("CountCompleted", mock.Anything, "ABCDEF").Return(2, nil)
	tickets.On("Update", mock.Anything, mock.Anything).Return(nil)
	spots.On("SetAvailability", mock.Anything, 1, true).Return(nil)

	result, err := svc.ProcessExitingVehicle(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 1.54375, result.Price, 1e-9)
	assert.True(t, result.Discounted)
}

func TestProcessExitingVehicle_ShortStayIsFree(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehiclePlate").Return("ABCDEF", nil)
	tickets.On("FindByPlate", mock.Anything, "ABCDEF").Return(openTicket(testTime.Add(-time.Minute)), nil)
	tickets.On("CountCompleted", mock.Anything, "ABCDEF").Return(5, nil)
	tickets.On("Update", mock.Anything, mock.Anything).Return(nil)
	spots.On("SetAvailability", mock.Anything, 1, true).Return(nil)

	result, err := svc.ProcessExitingVehicle(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.Price)
	// Free stays are never reported as discounted.
	assert.False(t, result.Discounted)
	spots.AssertCalled(t, "SetAvailability", mock.Anything, 1, true)
}

func TestProcessExitingVehicle_TicketNotFound(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehiclePlate").Return("GHOST", nil)
	tickets.On("FindByPlate", mock.Anything, "GHOST").Return(nil, models.ErrTicketNotFound)

	_, err := svc.ProcessExitingVehicle(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
	tickets.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	spots.AssertNotCalled(t, "SetAvailability", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessExitingVehicle_UpdateFailureKeepsSpotOccupied(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehiclePlate").Return("ABCDEF", nil)
	tickets.On("FindByPlate", mock.Anything, "ABCDEF").Return(openTicket(testTime.Add(-65*time.Minute)), nil)
	tickets.On("CountCompleted", mock.Anything, "ABCDEF").Return(0, nil)
	tickets.On("Update", mock.Anything, mock.Anything).Return(errors.New("update failed"))

	_, err := svc.ProcessExitingVehicle(context.Background())

	require.Error(t, err)
	spots.AssertNotCalled(t, "SetAvailability", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessExitingVehicle_FreeSpotFailureStillReportsFare(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	svc := newTestService(spots, tickets, input, nil)

	input.On("ReadVehiclePlate").Return("ABCDEF", nil)
	tickets.On("FindByPlate", mock.Anything, "ABCDEF").Return(openTicket(testTime.Add(-65*time.Minute)), nil)
	tickets.On("CountCompleted", mock.Anything, "ABCDEF").Return(0, nil)
	tickets.On("Update", mock.Anything, mock.Anything).Return(nil)
	spots.On("SetAvailability", mock.Anything, 1, true).Return(errors.New("update failed"))

	result, err := svc.ProcessExitingVehicle(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 1.625, result.Price, 1e-9)
}

func TestProcessExitingVehicle_DropsCachedTicket(t *testing.T) {
	spots := new(mockSpotRepo)
	tickets := new(mockTicketRepo)
	input := new(mockInput)
	cache := new(mockCache)
	svc := newTestService(spots, tickets, input, cache)

	input.On("ReadVehiclePlate").Return("ABCDEF", nil)
	tickets.On("FindByPlate", mock.Anything, "ABCDEF").Return(openTicket(testTime.Add(-65*time.Minute)), nil)
	tickets.On("CountCompleted", mock.Anything, "ABCDEF").Return(0, nil)
	tickets.On("Update", mock.Anything, mock.Anything).Return(nil)
	spots.On("SetAvailability", mock.Anything, 1, true).Return(nil)
	cache.On("Delete", mock.Anything, "ABCDEF").Return(nil)

	_, err := svc.ProcessExitingVehicle(context.Background())

	require.NoError(t, err)
	cache.AssertExpectations(t)
}
