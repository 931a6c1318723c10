package models

// VehicleType tags a spot with the class of vehicle it accepts.
type VehicleType string

const (
	VehicleTypeCar  VehicleType = "CAR"
	VehicleTypeBike VehicleType = "BIKE"
	// VehicleTypeOther exists as a data value for legacy rows but has no
	// rate and is never allocatable.
	VehicleTypeOther VehicleType = "OTHER"
)

// Spot is a numbered parking location.
type Spot struct {
	Number    int         `db:"spot_number" json:"spot_number"`
	Type      VehicleType `db:"vehicle_type" json:"vehicle_type"`
	Available bool        `db:"available" json:"available"`
}

// Key returns the spot's identity. Two Spot values describe the same
// physical spot iff their numbers match; type and availability do not
// participate. Use this for map membership instead of comparing structs.
func (s Spot) Key() int {
	return s.Number
}
