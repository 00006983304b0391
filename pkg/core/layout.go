// pkg/core/layout.go
package core

import (
	"errors"
	"math"
)

// Layout defaults
const (
	DefaultMaxDistance = 0.02
	DefaultMaxAngle    = 1.0
	DefaultTexture     = "EsoUI/Art/MapPins/UI-WorldMapPlayerPip.dds"
	NoType             = "NoType"
)

// ErrInvalidLayout is returned when a layout fails basic value checks
var ErrInvalidLayout = errors.New("invalid pin layout")

// Tag identifies one tracked point of interest. Tags are unique across all pin types.
type Tag string

// SizeFunc sizes a visible pin. It replaces the built-in perspective shrink.
type SizeFunc func(pin Control, angle, normalizedAngle, normalizedDistance float64)

// Effect is an optional apply/reset pair for type specific coloring or overlays.
// Reset must undo everything Apply can do, because a pooled control can move
// between pin types.
type Effect struct {
	Apply func(pin Control, angle, normalizedAngle, normalizedDistance float64)
	Reset func(pin Control)
}

// Layout describes how one pin type is drawn on the compass
type Layout struct {
	MaxDistance float64 // normalized map units, before the distance coefficient
	Texture     string
	FOV         float64 // radians mapped onto the full compass width, 0 = engine default
	MaxAngle    float64 // cutoff for |normalizedAngle|, 0 = DefaultMaxAngle
	Size        SizeFunc
	Effect      *Effect
}

// Validate performs basic value checks on a layout before registration.
func (l Layout) Validate() error {
	for _, v := range []float64{l.MaxDistance, l.FOV, l.MaxAngle} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return ErrInvalidLayout
		}
	}
	if l.Effect != nil && (l.Effect.Apply == nil || l.Effect.Reset == nil) {
		return ErrInvalidLayout
	}
	return nil
}

// WithDefaults returns a copy of l with every unset field filled in.
func (l Layout) WithDefaults(defaultFOV float64) Layout {
	if l.MaxDistance == 0 {
		l.MaxDistance = DefaultMaxDistance
	}
	if l.Texture == "" {
		l.Texture = DefaultTexture
	}
	if l.FOV == 0 {
		l.FOV = defaultFOV
	}
	if l.MaxAngle == 0 {
		l.MaxAngle = DefaultMaxAngle
	}
	return l
}
