package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parklot/internal/models"
)

// SpotRepository handles persistence of parking spots.
type SpotRepository struct {
	db *sql.DB
}

// NewSpotRepository returns repository.
func NewSpotRepository(db *sql.DB) *SpotRepository {
	return &SpotRepository{db: db}
}

// NextAvailable returns the lowest-numbered free spot of the given class, or
// models.ErrNoSpotAvailable when the lot is full for that class. It never
// reserves the spot; occupying it is a separate SetAvailability call.
func (r *SpotRepository) NextAvailable(ctx context.Context, class models.VehicleType) (int, error) {
	const query = `
		SELECT spot_number
		FROM parking_spot
		WHERE vehicle_type = $1 AND available = true
		ORDER BY spot_number
		LIMIT 1
	`
	var number int
	err := r.db.QueryRowContext(ctx, query, string(class)).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrNoSpotAvailable
	}
	if err != nil {
		return 0, fmt.Errorf("spot repo: next available: %w", err)
	}
	return number, nil
}

// SetAvailability flips the availability flag of one spot. Exactly one row
// must be affected; anything else is a failure.
func (r *SpotRepository) SetAvailability(ctx context.Context, number int, available bool) error {
	const query = `
		UPDATE parking_spot
		SET available = $2
		WHERE spot_number = $1
	`
	result, err := r.db.ExecContext(ctx, query, number, available)
	if err != nil {
		return fmt.Errorf("spot repo: set availability: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("spot repo: set availability: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("spot repo: spot %d: %w", number, models.ErrSpotNotFound)
	}
	return nil
}
