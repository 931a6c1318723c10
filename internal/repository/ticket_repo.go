package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parklot/internal/models"
)

// TicketRepository handles persistence of parking tickets.
type TicketRepository struct {
	db *sql.DB
}

// NewTicketRepository returns repository.
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create inserts a new ticket and fills in its generated id.
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	const query = `
		INSERT INTO ticket (spot_number, plate, price, entry_time, exit_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		ticket.SpotNumber,
		ticket.Plate,
		ticket.Price,
		ticket.EntryTime,
		nullableTime(ticket.ExitTime),
	).Scan(&ticket.ID)
	if err != nil {
		return fmt.Errorf("ticket repo: create: %w", err)
	}
	return nil
}

// FindByPlate returns the open ticket for the plate if one exists, otherwise
// the most recent one. Returns models.ErrTicketNotFound when the plate has
// no tickets at all.
func (r *TicketRepository) FindByPlate(ctx context.Context, plate string) (*models.Ticket, error) {
	const query = `
		SELECT t.id, t.spot_number, p.vehicle_type, t.plate, t.price, t.entry_time, t.exit_time
		FROM ticket t
		JOIN parking_spot p ON p.spot_number = t.spot_number
		WHERE t.plate = $1
		ORDER BY (t.exit_time IS NULL) DESC, t.entry_time DESC
		LIMIT 1
	`
	var (
		ticket   models.Ticket
		exitTime sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, plate).Scan(
		&ticket.ID,
		&ticket.SpotNumber,
		&ticket.SpotType,
		&ticket.Plate,
		&ticket.Price,
		&ticket.EntryTime,
		&exitTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ticket repo: plate %q: %w", plate, models.ErrTicketNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ticket repo: find by plate: %w", err)
	}
	if exitTime.Valid {
		t := exitTime.Time
		ticket.ExitTime = &t
	}
	return &ticket, nil
}

// Update persists the final price and exit time of a ticket. Exactly one
// row must be affected; anything else is a failure.
func (r *TicketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	const query = `
		UPDATE ticket
		SET price = $2,
		    exit_time = $3
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, ticket.ID, ticket.Price, nullableTime(ticket.ExitTime))
	if err != nil {
		return fmt.Errorf("ticket repo: update: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ticket repo: update: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("ticket repo: id %d: %w", ticket.ID, models.ErrTicketNotFound)
	}
	return nil
}

// CountCompleted counts the plate's finished stays. Open tickets never
// count; the result drives recurring-customer decisions only.
func (r *TicketRepository) CountCompleted(ctx context.Context, plate string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM ticket
		WHERE plate = $1 AND exit_time IS NOT NULL
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, plate).Scan(&count); err != nil {
		return 0, fmt.Errorf("ticket repo: count completed: %w", err)
	}
	return count, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
