package fare

import (
	"errors"
	"fmt"
	"time"

	"parklot/internal/models"
)

// Default hourly rates per vehicle class.
const (
	DefaultCarRate  = 1.5
	DefaultBikeRate = 1.0
)

const (
	// FreeDuration is the grace period: stays up to this long cost nothing.
	FreeDuration = 30 * time.Minute
	// DiscountFactor is applied for recurring customers.
	DiscountFactor = 0.95
)

var (
	// ErrMissingEntryTime reports a ticket with no recorded entry time.
	ErrMissingEntryTime = errors.New("fare: entry time is missing")
	// ErrMissingExitTime reports a fare request for a still-open ticket.
	ErrMissingExitTime = errors.New("fare: exit time is missing")
	// ErrNegativeDuration reports an exit time before the entry time.
	ErrNegativeDuration = errors.New("fare: exit time precedes entry time")
	// ErrUnsupportedVehicleType reports a class with no configured rate.
	ErrUnsupportedVehicleType = errors.New("fare: unsupported vehicle type")
)

// Rates maps a vehicle class to its per-hour rate.
type Rates map[models.VehicleType]float64

// DefaultRates returns the standard rate table.
func DefaultRates() Rates {
	return Rates{
		models.VehicleTypeCar:  DefaultCarRate,
		models.VehicleTypeBike: DefaultBikeRate,
	}
}

// Calculator computes parking fares from a fixed rate table. It is a
// stateless value: construct once and inject wherever fares are needed.
type Calculator struct {
	rates Rates
}

// NewCalculator builds a calculator over the given rate table, falling back
// to DefaultRates when nil.
func NewCalculator(rates Rates) *Calculator {
	if rates == nil {
		rates = DefaultRates()
	}
	return &Calculator{rates: rates}
}

// Fare returns the price for a stay from entry to exit. Stays within the
// grace period are free regardless of discount. Otherwise the price is the
// fractional duration in hours times the class rate, reduced by 5% when
// discount is set. The result is not rounded; presentation layers round.
func (c *Calculator) Fare(entry, exit time.Time, class models.VehicleType, discount bool) (float64, error) {
	if entry.IsZero() {
		return 0, ErrMissingEntryTime
	}
	if exit.IsZero() {
		return 0, ErrMissingExitTime
	}
	if exit.Before(entry) {
		return 0, fmt.Errorf("%w: exit %s before entry %s",
			ErrNegativeDuration, exit.Format(time.RFC3339), entry.Format(time.RFC3339))
	}

	duration := exit.Sub(entry)
	if duration <= FreeDuration {
		return 0, nil
	}

	rate, ok := c.rates[class]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVehicleType, class)
	}

	price := duration.Hours() * rate
	if discount {
		price *= DiscountFactor
	}
	return price, nil
}
