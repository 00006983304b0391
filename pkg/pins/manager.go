// Package pins tracks points of interest and projects them onto the compass.
//
// A Manager owns every pin record and a pool of host controls. Each Update
// culls pins outside their visible radius, attaches pooled controls to the
// rest and positions them on the compass strip. The manager is single
// threaded: producers and the tick must run on the same goroutine.
package pins

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OCAP2/compass/internal/pool"
	"github.com/OCAP2/compass/pkg/core"

	"github.com/google/uuid"
)

// Children of a pin control that stay hidden unless a layout effect shows them
var permanentlyHidden = []string{"Background", "Highlight"}

// Options configures a Manager
type Options struct {
	Template     string  // toolkit template pin controls are created from
	CompassWidth float64 // width of the compass strip in UI units
	PoolCapacity int     // max controls, 0 = unbounded
}

// Pin is one tracked point of interest
type Pin struct {
	Type    string
	Tag     core.Tag
	X, Y    float64
	Name    string
	Payload []any

	key      pool.Key
	attached bool
	shown    bool
}

// Attached reports whether the pin currently holds a pooled control
func (p *Pin) Attached() bool { return p.attached }

// Shown reports whether the last update drew the pin on the compass
func (p *Pin) Shown() bool { return p.shown }

// Stats is a snapshot of manager state
type Stats struct {
	Records   int
	Attached  int
	Visible   int
	PoolSize  int
	PoolInUse int
}

// Manager owns pin records and the control pool.
type Manager struct {
	layouts *Layouts
	diag    core.Diagnostics
	logger  *slog.Logger
	opts    Options
	metrics *metrics

	coefficient float64
	pins        map[core.Tag]*Pin
	pool        *pool.Pool[core.Control]
	snapshot    []*Pin

	visible           int
	exhaustedReported bool
}

// NewManager creates a Manager drawing controls from toolkit. Layouts are
// shared with the registry that owns them.
func NewManager(
	layouts *Layouts,
	toolkit core.Toolkit,
	diag core.Diagnostics,
	logger *slog.Logger,
	opts Options,
) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if diag == nil {
		diag = core.DiagnosticsFunc(func(msg string) { logger.Warn(msg) })
	}

	mt, err := newMetrics()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		layouts:     layouts,
		diag:        diag,
		logger:      logger,
		opts:        opts,
		metrics:     mt,
		coefficient: 1,
		pins:        make(map[core.Tag]*Pin),
	}
	m.pool = pool.New(func(index int) (core.Control, error) {
		return toolkit.CreateControl(opts.Template, index)
	}, m.resetControl, opts.PoolCapacity)

	return m, nil
}

// SetCoefficient sets the distance coefficient every visible radius is scaled by.
func (m *Manager) SetCoefficient(c float64) {
	m.coefficient = c
}

// Coefficient returns the current distance coefficient
func (m *Manager) Coefficient() float64 {
	return m.coefficient
}

// CreatePin starts tracking a point of interest. An existing pin with the
// same tag is removed first, releasing its control. An empty pinType becomes
// core.NoType and an empty tag is replaced by a fresh unique one.
func (m *Manager) CreatePin(pinType string, tag core.Tag, x, y float64, name string, payload ...any) core.Tag {
	if tag == "" {
		tag = core.Tag(uuid.NewString())
	} else {
		m.RemovePin(tag)
	}
	if pinType == "" {
		pinType = core.NoType
	}

	m.pins[tag] = &Pin{
		Type:    pinType,
		Tag:     tag,
		X:       x,
		Y:       y,
		Name:    name,
		Payload: payload,
	}
	m.metrics.records.Store(int64(len(m.pins)))
	return tag
}

// RemovePin stops tracking tag. Unknown tags are ignored.
func (m *Manager) RemovePin(tag core.Tag) {
	p, ok := m.pins[tag]
	if !ok {
		return
	}
	m.detach(p)
	delete(m.pins, tag)
	m.syncGauges()
}

// RemovePins removes every pin of the given types, or every pin when no type
// is given.
func (m *Manager) RemovePins(pinTypes ...string) {
	if len(pinTypes) == 0 {
		for tag, p := range m.pins {
			m.detach(p)
			delete(m.pins, tag)
		}
		m.visible = 0
		m.syncGauges()
		return
	}

	remove := make(map[string]struct{}, len(pinTypes))
	for _, t := range pinTypes {
		remove[t] = struct{}{}
	}
	for tag, p := range m.pins {
		if _, ok := remove[p.Type]; !ok {
			continue
		}
		m.detach(p)
		delete(m.pins, tag)
	}
	m.syncGauges()
}

// Close removes every pin, hides every control the pool ever created and
// stops reporting metrics. The manager must not be used afterwards.
func (m *Manager) Close() error {
	m.RemovePins()
	m.pool.Each(func(ctrl core.Control) {
		ctrl.SetHidden(true)
	})
	return m.metrics.close()
}

// Pin returns a copy of the pin tracked under tag.
func (m *Manager) Pin(tag core.Tag) (Pin, bool) {
	p, ok := m.pins[tag]
	if !ok {
		return Pin{}, false
	}
	return *p, true
}

// Pins returns copies of every pin of the given type, or of every pin when
// pinType is empty. Order is unspecified.
func (m *Manager) Pins(pinType string) []Pin {
	out := make([]Pin, 0, len(m.pins))
	for _, p := range m.pins {
		if pinType == "" || p.Type == pinType {
			out = append(out, *p)
		}
	}
	return out
}

// Len returns the number of tracked pins
func (m *Manager) Len() int {
	return len(m.pins)
}

// Stats returns a snapshot of the manager state.
func (m *Manager) Stats() Stats {
	attached := 0
	for _, p := range m.pins {
		if p.attached {
			attached++
		}
	}
	return Stats{
		Records:   len(m.pins),
		Attached:  attached,
		Visible:   m.visible,
		PoolSize:  m.pool.Len(),
		PoolInUse: m.pool.InUse(),
	}
}

func (m *Manager) syncGauges() {
	m.metrics.records.Store(int64(len(m.pins)))
	m.metrics.poolInUse.Store(int64(m.pool.InUse()))
	m.metrics.visible.Store(int64(m.visible))
}

// resetControl prepares a control for a new tenant. The previous tenant may
// have been of any type, so every registered effect is reset.
func (m *Manager) resetControl(ctrl core.Control) {
	for _, ev := range core.PointerEvents {
		ctrl.SetHandler(ev, nil)
	}
	for _, name := range permanentlyHidden {
		if child := ctrl.NamedChild(name); child != nil {
			child.SetHidden(true)
		}
	}
	m.layouts.resetEffects(ctrl)
}

// attach returns the control held by p, acquiring one when p has none.
func (m *Manager) attach(p *Pin, layout core.Layout) (core.Control, bool) {
	if p.attached {
		ctrl, ok := m.pool.Get(p.key)
		if ok {
			return ctrl, true
		}
		m.diag.Report(fmt.Sprintf("compass pin %s lost pooled control %s", p.Tag, p.key))
		p.attached = false
		return nil, false
	}

	key, ctrl, err := m.pool.Acquire()
	if err != nil {
		m.metrics.failures.Add(context.Background(), 1)
		if !m.exhaustedReported {
			m.exhaustedReported = true
			m.diag.Report(fmt.Sprintf("compass pin %s has no control: %v", p.Tag, err))
		}
		return nil, false
	}
	m.exhaustedReported = false
	m.metrics.acquired.Add(context.Background(), 1)

	p.key = key
	p.attached = true
	ctrl.SetTexture(layout.Texture)
	return ctrl, true
}

// detach hides and releases the control held by p, if any.
func (m *Manager) detach(p *Pin) {
	if p.shown && m.visible > 0 {
		m.visible--
	}
	p.shown = false
	if !p.attached {
		return
	}
	p.attached = false

	ctrl, ok := m.pool.Get(p.key)
	if !ok {
		m.diag.Report(fmt.Sprintf("compass pin %s released unknown control %s", p.Tag, p.key))
		return
	}
	ctrl.SetHidden(true)
	if err := m.pool.Release(p.key); err != nil {
		m.diag.Report(fmt.Sprintf("compass pin %s: %v", p.Tag, err))
		return
	}
	m.metrics.released.Add(context.Background(), 1)
}
