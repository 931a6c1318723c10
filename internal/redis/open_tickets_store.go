package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parklot/internal/models"
)

// OpenTicket is the cached shape of a vehicle currently in the lot. It is a
// best-effort hint only; the ticket table stays authoritative.
type OpenTicket struct {
	TicketID   int64              `json:"ticket_id"`
	Plate      string             `json:"plate"`
	SpotNumber int                `json:"spot_number"`
	SpotType   models.VehicleType `json:"vehicle_type"`
	EntryTime  time.Time          `json:"entry_time"`
}

// Store caches open tickets by plate.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(plate string) string {
	return fmt.Sprintf("parking:open:%s", plate)
}

// Save caches the ticket under its plate.
func (s *Store) Save(ctx context.Context, ticket OpenTicket) error {
	data, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(ticket.Plate), data, s.ttl).Err()
}

// Get returns the cached open ticket for a plate, redis.Nil when absent.
func (s *Store) Get(ctx context.Context, plate string) (*OpenTicket, error) {
	result, err := s.client.Get(ctx, s.key(plate)).Result()
	if err != nil {
		return nil, err
	}
	var ticket OpenTicket
	if err := json.Unmarshal([]byte(result), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Delete removes the cached ticket after check-out.
func (s *Store) Delete(ctx context.Context, plate string) error {
	return s.client.Del(ctx, s.key(plate)).Err()
}
