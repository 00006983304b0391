// Package layouts loads pin type layouts from a YAML file, so hosts can add
// or restyle pin types without rebuilding.
//
//	types:
//	  - name: chest
//	    texture: EsoUI/Art/Icons/chest.dds
//	    maxDistance: 0.05
//	    scale: 0.75
//	    effect:
//	      name: tint
//	      color: [1, 0.8, 0.2, 1]
package layouts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/OCAP2/compass/pkg/compass"
	"github.com/OCAP2/compass/pkg/core"
	"github.com/OCAP2/compass/pkg/pins"
	"gopkg.in/yaml.v3"
)

// Built-in effect names
const (
	EffectTint      = "tint"
	EffectHighlight = "highlight"
)

// DefaultHighlightThreshold is the |normalizedAngle| below which the
// highlight effect shows the Highlight child.
const DefaultHighlightThreshold = 0.1

// ErrUnknownEffect is returned for effect names outside the built-in set
var ErrUnknownEffect = errors.New("unknown effect")

// File is the root of a layouts file
type File struct {
	Types []TypeSpec `yaml:"types"`
}

// TypeSpec describes one pin type
type TypeSpec struct {
	Name        string      `yaml:"name"`
	Texture     string      `yaml:"texture"`
	MaxDistance float64     `yaml:"maxDistance"`
	FOV         float64     `yaml:"fov"`
	MaxAngle    float64     `yaml:"maxAngle"`
	Scale       float64     `yaml:"scale"` // multiplies the default pin size
	Effect      *EffectSpec `yaml:"effect"`
}

// EffectSpec selects a built-in effect and its parameters
type EffectSpec struct {
	Name      string    `yaml:"name"`
	Color     []float64 `yaml:"color"`
	Threshold float64   `yaml:"threshold"`
}

// Parse decodes a layouts file. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse layouts: %w", err)
	}

	seen := make(map[string]bool, len(f.Types))
	for i, t := range f.Types {
		if t.Name == "" {
			return nil, fmt.Errorf("layout %d has no name", i)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("layout %s defined twice", t.Name)
		}
		seen[t.Name] = true
	}
	return &f, nil
}

// Load reads and parses the layouts file at path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open layouts file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Layout converts the type definition into an engine layout.
func (t TypeSpec) Layout() (core.Layout, error) {
	l := core.Layout{
		MaxDistance: t.MaxDistance,
		Texture:     t.Texture,
		FOV:         t.FOV,
		MaxAngle:    t.MaxAngle,
	}

	if t.Scale < 0 || math.IsNaN(t.Scale) {
		return core.Layout{}, fmt.Errorf("layout %s: %w", t.Name, core.ErrInvalidLayout)
	}
	if t.Scale > 0 && t.Scale != 1 {
		l.Size = scaledSize(t.Scale)
	}

	if t.Effect != nil {
		effect, err := t.Effect.build()
		if err != nil {
			return core.Layout{}, fmt.Errorf("layout %s: %w", t.Name, err)
		}
		l.Effect = effect
	}

	if err := l.Validate(); err != nil {
		return core.Layout{}, fmt.Errorf("layout %s: %w", t.Name, err)
	}
	return l, nil
}

func scaledSize(scale float64) core.SizeFunc {
	return func(pin core.Control, angle, normalizedAngle, normalizedDistance float64) {
		size := pins.DefaultSize(normalizedAngle) * scale
		pin.SetDimensions(size, size)
	}
}

func (e EffectSpec) build() (*core.Effect, error) {
	switch e.Name {
	case EffectTint:
		if len(e.Color) != 3 && len(e.Color) != 4 {
			return nil, fmt.Errorf("tint needs an rgb or rgba color, got %d values", len(e.Color))
		}
		r, g, b, a := e.Color[0], e.Color[1], e.Color[2], 1.0
		if len(e.Color) == 4 {
			a = e.Color[3]
		}
		return &core.Effect{
			Apply: func(pin core.Control, angle, normalizedAngle, normalizedDistance float64) {
				pin.SetColor(r, g, b, a)
			},
			Reset: func(pin core.Control) {
				pin.SetColor(1, 1, 1, 1)
			},
		}, nil

	case EffectHighlight:
		threshold := e.Threshold
		if threshold <= 0 {
			threshold = DefaultHighlightThreshold
		}
		return &core.Effect{
			Apply: func(pin core.Control, angle, normalizedAngle, normalizedDistance float64) {
				if h := pin.NamedChild("Highlight"); h != nil {
					h.SetHidden(math.Abs(normalizedAngle) > threshold)
				}
			},
			Reset: func(pin core.Control) {
				if h := pin.NamedChild("Highlight"); h != nil {
					h.SetHidden(true)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, e.Name)
	}
}

// Registrar is the part of the engine layouts are registered with
type Registrar interface {
	AddPinType(pinType string, producer compass.Producer, layout core.Layout)
	HasPinType(pinType string) bool
}

// Register adds every type in f that has a producer. It returns the names
// that were registered; a type with no producer or an invalid layout stops
// registration with an error.
func (f *File) Register(r Registrar, producers map[string]compass.Producer) ([]string, error) {
	var registered []string
	for _, t := range f.Types {
		producer, ok := producers[t.Name]
		if !ok {
			return registered, fmt.Errorf("layout %s has no producer", t.Name)
		}
		l, err := t.Layout()
		if err != nil {
			return registered, err
		}
		r.AddPinType(t.Name, producer, l)
		if !r.HasPinType(t.Name) {
			return registered, fmt.Errorf("layout %s was rejected", t.Name)
		}
		registered = append(registered, t.Name)
	}
	return registered, nil
}
