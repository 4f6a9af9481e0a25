package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordValidate_OK(t *testing.T) {
	r := Record{ID: "1", Description: "large granite boulder", Latitude: 47.6, Longitude: -122.3}
	assert.NoError(t, r.Validate())
}

func TestRecordValidate_EmptyDescriptionOK(t *testing.T) {
	r := Record{ID: "1", Latitude: 0, Longitude: 0}
	assert.NoError(t, r.Validate())
}

func TestRecordValidate_NaNLatitude(t *testing.T) {
	r := Record{ID: "1", Latitude: math.NaN(), Longitude: 10}
	assert.Error(t, r.Validate())
}

func TestRecordValidate_InfLongitude(t *testing.T) {
	r := Record{ID: "1", Latitude: 10, Longitude: math.Inf(-1)}
	assert.Error(t, r.Validate())
}
