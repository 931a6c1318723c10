package models

import "time"

// Ticket records one vehicle's stay, from entry to exit.
type Ticket struct {
	ID         int64       `db:"id" json:"id"`
	SpotNumber int         `db:"spot_number" json:"spot_number"`
	SpotType   VehicleType `db:"vehicle_type" json:"vehicle_type"`
	Plate      string      `db:"plate" json:"plate"`
	Price      float64     `db:"price" json:"price"`
	EntryTime  time.Time   `db:"entry_time" json:"entry_time"`
	ExitTime   *time.Time  `db:"exit_time" json:"exit_time,omitempty"`
}

// Open reports whether the vehicle is still in the lot.
func (t *Ticket) Open() bool {
	return t.ExitTime == nil
}

// Completed reports whether the stay has ended and the fare is final.
func (t *Ticket) Completed() bool {
	return t.ExitTime != nil
}
