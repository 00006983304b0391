package pins

import (
	"errors"
	"fmt"

	"github.com/OCAP2/compass/pkg/core"
)

// ErrDuplicateType is returned when a pin type name is already taken
var ErrDuplicateType = errors.New("pin type already registered")

// Layouts is the table of registered pin types. Entries are immutable once
// added so live pins never see their layout change.
type Layouts struct {
	defaultFOV float64
	byName     map[string]core.Layout
	order      []string
}

// NewLayouts creates an empty table. defaultFOV fills layouts without a FOV.
func NewLayouts(defaultFOV float64) *Layouts {
	return &Layouts{
		defaultFOV: defaultFOV,
		byName:     make(map[string]core.Layout),
	}
}

// Add registers layout under name after applying defaults.
func (l *Layouts) Add(name string, layout core.Layout) error {
	if name == "" {
		return fmt.Errorf("%w: empty type name", core.ErrInvalidLayout)
	}
	if _, ok := l.byName[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrDuplicateType)
	}
	if err := layout.Validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	l.byName[name] = layout.WithDefaults(l.defaultFOV)
	l.order = append(l.order, name)
	return nil
}

// Get returns the layout registered under name.
func (l *Layouts) Get(name string) (core.Layout, bool) {
	layout, ok := l.byName[name]
	return layout, ok
}

// Has reports whether name is registered
func (l *Layouts) Has(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// Names returns the registered type names in registration order.
func (l *Layouts) Names() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// DefaultFOV returns the FOV given to layouts that do not set one
func (l *Layouts) DefaultFOV() float64 {
	return l.defaultFOV
}

// resetEffects runs the Reset half of every registered effect on ctrl.
func (l *Layouts) resetEffects(ctrl core.Control) {
	for _, name := range l.order {
		if e := l.byName[name].Effect; e != nil {
			e.Reset(ctrl)
		}
	}
}
