package models

import "errors"

var (
	// ErrNoSpotAvailable means the lot has no free spot of the requested class.
	ErrNoSpotAvailable = errors.New("no parking spot available")
	// ErrSpotNotFound means an availability update matched no spot row.
	ErrSpotNotFound = errors.New("parking spot not found")
	// ErrTicketNotFound means no ticket exists for the plate (or id).
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrInvalidSelection means the operator entered an unrecognized menu choice.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrBlankPlate means the operator entered an empty registration number.
	ErrBlankPlate = errors.New("vehicle plate is blank")
)
