package wad

import (
	"math"

	"golang.org/x/exp/constraints"
)

// degreesToRadians converts a thing angle stored in degrees.
func degreesToRadians[T constraints.Integer | constraints.Float](n T) float64 {
	return float64(n) * (math.Pi / 180)
}

const halfScale = 1 << 15

// bamToRadians converts a binary angle, where the full circle spans
// -32768 to 32767.
func bamToRadians[T constraints.Signed](n T) float64 {
	return ((float64(n) + halfScale) * math.Pi) / halfScale
}
