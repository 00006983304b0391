package main

import (
	"math"
	"sort"
	"time"

	"github.com/OCAP2/compass/pkg/core"
)

// control is a compass pin drawn by the demo window.
type control struct {
	key      int
	offsetX  float64
	alpha    float64
	hidden   bool
	width    float64
	height   float64
	color    [4]float64
	texture  string
	children map[string]*control
	handlers map[string]func()
}

func newControl(key int) *control {
	return &control{
		key:    key,
		hidden: true,
		alpha:  1,
		color:  [4]float64{1, 1, 1, 1},
		children: map[string]*control{
			"Background": {hidden: true, alpha: 1, color: [4]float64{0, 0, 0, 0.5}},
			"Highlight":  {hidden: true, alpha: 1, color: [4]float64{1, 1, 0.6, 1}},
		},
		handlers: make(map[string]func()),
	}
}

func (c *control) ClearAnchors() { c.offsetX = 0 }

// SetAnchor only tracks the horizontal offset; the compass bar is one row.
func (c *control) SetAnchor(point, relativeTo core.Anchor, offsetX, offsetY float64) {
	c.offsetX = offsetX
}

func (c *control) SetAlpha(alpha float64)              { c.alpha = alpha }
func (c *control) SetHidden(hidden bool)               { c.hidden = hidden }
func (c *control) SetDimensions(width, height float64) { c.width, c.height = width, height }
func (c *control) SetColor(r, g, b, a float64)         { c.color = [4]float64{r, g, b, a} }
func (c *control) SetTexture(path string)              { c.texture = path }

func (c *control) NamedChild(name string) core.Control {
	if child, ok := c.children[name]; ok {
		return child
	}
	return nil
}

func (c *control) SetHandler(event string, fn func()) {
	if fn == nil {
		delete(c.handlers, event)
		return
	}
	c.handlers[event] = fn
}

// toolkit creates controls for the engine's pool and remembers them for
// drawing.
type toolkit struct {
	controls []*control
}

func (t *toolkit) CreateControl(template string, key int) (core.Control, error) {
	c := newControl(key)
	t.controls = append(t.controls, c)
	return c, nil
}

// demoMap is one map the player can switch to
type demoMap struct {
	id      string
	zone    int // 0 = no zone index
	content core.ContentKind
	mapType core.MapType
}

var demoMaps = []demoMap{
	{id: "glenumbra", zone: 1, mapType: core.MapTypeZone},
	{id: "stormhaven", zone: 2, mapType: core.MapTypeZone},
	{id: "crypt_of_hearts", content: core.ContentDungeon, mapType: core.MapTypeSubzone},
	{id: "daggerfall", mapType: core.MapTypeSubzone},
}

// world is the demo host: it plays the observer, the map context, the frame
// scheduler and the map change source.
type world struct {
	x, y    float64
	heading float64
	mapIdx  int

	callbacks map[string]func(nowMs int64)
	mapSubs   []func(mapID string)
	start     time.Time
}

func newWorld() *world {
	return &world{
		x:         0.5,
		y:         0.5,
		callbacks: make(map[string]func(int64)),
		start:     time.Now(),
	}
}

func (w *world) Heading() (float64, bool)     { return w.heading, true }
func (w *world) Position() (float64, float64) { return w.x, w.y }

func (w *world) current() demoMap { return demoMaps[w.mapIdx] }

func (w *world) MapID() string { return w.current().id }

func (w *world) ZoneIndex() (int, bool) {
	z := w.current().zone
	return z, z > 0
}

func (w *world) ContentKind() core.ContentKind { return w.current().content }
func (w *world) MapType() core.MapType         { return w.current().mapType }

func (w *world) RegisterForUpdate(name string, fn func(nowMs int64)) {
	w.callbacks[name] = fn
}

func (w *world) UnregisterForUpdate(name string) {
	delete(w.callbacks, name)
}

func (w *world) SubscribeMapChanged(fn func(mapID string)) {
	w.mapSubs = append(w.mapSubs, fn)
}

// frame runs every registered callback in name order.
func (w *world) frame(now time.Time) {
	names := make([]string, 0, len(w.callbacks))
	for name := range w.callbacks {
		names = append(names, name)
	}
	sort.Strings(names)

	nowMs := now.Sub(w.start).Milliseconds()
	for _, name := range names {
		if fn, ok := w.callbacks[name]; ok {
			fn(nowMs)
		}
	}
}

// nextMap switches to the following map and notifies subscribers.
func (w *world) nextMap() {
	w.mapIdx = (w.mapIdx + 1) % len(demoMaps)
	for _, fn := range w.mapSubs {
		fn(w.MapID())
	}
}

// turn rotates the heading, keeping it in [0, 2π).
func (w *world) turn(delta float64) {
	w.heading = math.Mod(w.heading+delta, 2*math.Pi)
	if w.heading < 0 {
		w.heading += 2 * math.Pi
	}
}

// walk moves along the heading. Heading 0 faces north (decreasing y) and
// grows counter-clockwise.
func (w *world) walk(step float64) {
	w.x = clamp01(w.x - step*math.Sin(w.heading))
	w.y = clamp01(w.y - step*math.Cos(w.heading))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
