package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, -20.0, RoundFloat(-20.04, 1))
	assert.Equal(t, 33.3, RoundFloat(100.0/3.0, 1))
	assert.Equal(t, 1.24, RoundFloat(1.236, 2))
}

func TestSafeDiv(t *testing.T) {
	assert.Equal(t, 0.0, SafeDiv(5, 0))
	assert.Equal(t, 0.0, SafeDiv(math.NaN(), 2))
	assert.Equal(t, 2.5, SafeDiv(5, 2))
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0, ClampPercent(-4))
	assert.Equal(t, 100, ClampPercent(140))
	assert.Equal(t, 67, ClampPercent(66.6))
	assert.Equal(t, 0, ClampPercent(math.NaN()))
}
