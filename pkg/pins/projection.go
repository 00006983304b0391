package pins

import "math"

// Built-in size rule
const (
	FullSize        = 32.0
	shrinkThreshold = 0.25
	shrinkBase      = 36.0
	shrinkSlope     = 16.0
)

// NormalizeHeading maps any heading in radians into (-π, π].
func NormalizeHeading(heading float64) float64 {
	h := math.Remainder(heading, 2*math.Pi)
	if h <= -math.Pi {
		h += 2 * math.Pi
	}
	return h
}

// CalculatePinAngle returns the signed angle in (-π, π] between the heading
// and the direction to a pin, where dx, dy is the observer position minus the
// pin position and heading is already normalized.
func CalculatePinAngle(dx, dy, heading float64) float64 {
	angle := -math.Atan2(dx, dy) + heading
	if angle > math.Pi {
		angle -= 2 * math.Pi
	} else if angle <= -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// DefaultSize is the built-in perspective shrink: full size near the middle
// of the compass, linearly smaller towards the edges.
func DefaultSize(normalizedAngle float64) float64 {
	a := math.Abs(normalizedAngle)
	if a <= shrinkThreshold {
		return FullSize
	}
	return shrinkBase - shrinkSlope*a
}
