package pins

import (
	"math"

	"github.com/OCAP2/compass/pkg/core"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Update projects every tracked pin for an observer at x, y facing heading.
// heading must already be in (-π, π].
//
// The record set is snapshotted first. Pins removed by a callback during the
// pass are skipped; pins created during the pass are projected next update.
func (m *Manager) Update(x, y, heading float64) {
	m.snapshot = m.snapshot[:0]
	for _, p := range m.pins {
		m.snapshot = append(m.snapshot, p)
	}

	observer := geom.XY{X: x, Y: y}
	visible := 0
	for i, p := range m.snapshot {
		m.snapshot[i] = nil
		if m.pins[p.Tag] != p {
			continue
		}
		if m.updatePin(p, observer, heading) {
			visible++
		}
	}
	m.snapshot = m.snapshot[:0]
	m.visible = visible
	m.syncGauges()
}

// updatePin runs the projection for one pin and reports whether it is drawn.
func (m *Manager) updatePin(p *Pin, observer geom.XY, heading float64) bool {
	layout, ok := m.layouts.Get(p.Type)
	if !ok {
		m.detach(p)
		return false
	}

	d := observer.Sub(geom.XY{X: p.X, Y: p.Y})
	radius := layout.MaxDistance * m.coefficient
	if radius <= 0 {
		m.detach(p)
		return false
	}
	distance := d.Dot(d) / (radius * radius)
	if distance >= 1 {
		m.detach(p)
		return false
	}

	p.shown = false
	ctrl, ok := m.attach(p, layout)
	if !ok {
		return false
	}
	ctrl.SetHidden(true)

	angle := CalculatePinAngle(d.X, d.Y, heading)
	normalizedAngle := 2 * angle / layout.FOV
	if math.Abs(normalizedAngle) > layout.MaxAngle {
		return false
	}

	ctrl.ClearAnchors()
	ctrl.SetAnchor(core.AnchorCenter, core.AnchorCenter, 0.5*m.opts.CompassWidth*normalizedAngle, 0)
	ctrl.SetHidden(false)
	ctrl.SetAlpha(1 - distance)

	if layout.Size != nil {
		layout.Size(ctrl, angle, normalizedAngle, distance)
	} else {
		size := DefaultSize(normalizedAngle)
		ctrl.SetDimensions(size, size)
	}

	if layout.Effect != nil {
		layout.Effect.Apply(ctrl, angle, normalizedAngle, distance)
	}

	p.shown = true
	return true
}
