package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpotKey_IdentityByNumberOnly(t *testing.T) {
	occupied := Spot{Number: 1, Type: VehicleTypeCar, Available: false}
	free := Spot{Number: 1, Type: VehicleTypeBike, Available: true}
	other := Spot{Number: 2, Type: VehicleTypeCar, Available: false}

	assert.Equal(t, occupied.Key(), free.Key())
	assert.NotEqual(t, occupied.Key(), other.Key())

	// Map membership must follow the extracted key, not struct equality.
	seen := map[int]Spot{occupied.Key(): occupied}
	_, ok := seen[free.Key()]
	assert.True(t, ok)
}
