package compass

import (
	"testing"
	"time"

	"github.com/OCAP2/compass/pkg/core"
	"github.com/OCAP2/compass/pkg/pins"

	"github.com/stretchr/testify/require"
)

type fakeControl struct {
	hidden bool
	color  [4]float64
}

func (c *fakeControl) ClearAnchors()                                         {}
func (c *fakeControl) SetAnchor(point, relativeTo core.Anchor, x, y float64) {}
func (c *fakeControl) SetAlpha(alpha float64)                                {}
func (c *fakeControl) SetHidden(hidden bool)                                 { c.hidden = hidden }
func (c *fakeControl) SetDimensions(width, height float64)                   {}
func (c *fakeControl) SetColor(r, g, b, a float64)                           { c.color = [4]float64{r, g, b, a} }
func (c *fakeControl) SetTexture(path string)                                {}
func (c *fakeControl) NamedChild(name string) core.Control                   { return nil }
func (c *fakeControl) SetHandler(event string, fn func())                    {}

type fakeToolkit struct {
	created  int
	controls []*fakeControl
}

func (tk *fakeToolkit) CreateControl(template string, key int) (core.Control, error) {
	tk.created++
	c := &fakeControl{}
	tk.controls = append(tk.controls, c)
	return c, nil
}

type fakeObserver struct {
	x, y    float64
	heading float64
	ready   bool
}

func (o *fakeObserver) Heading() (float64, bool) { return o.heading, o.ready }
func (o *fakeObserver) Position() (float64, float64) {
	return o.x, o.y
}

type fakeMaps struct {
	id      string
	zone    int
	hasZone bool
	content core.ContentKind
	mapType core.MapType
}

func (m *fakeMaps) MapID() string                 { return m.id }
func (m *fakeMaps) ZoneIndex() (int, bool)        { return m.zone, m.hasZone }
func (m *fakeMaps) ContentKind() core.ContentKind { return m.content }
func (m *fakeMaps) MapType() core.MapType         { return m.mapType }

type fakeScheduler struct {
	callbacks map[string]func(int64)
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{callbacks: make(map[string]func(int64))}
}

func (s *fakeScheduler) RegisterForUpdate(name string, fn func(nowMs int64)) {
	s.callbacks[name] = fn
}

func (s *fakeScheduler) UnregisterForUpdate(name string) {
	delete(s.callbacks, name)
}

func (s *fakeScheduler) frame(nowMs int64) {
	fns := make([]func(int64), 0, len(s.callbacks))
	for _, fn := range s.callbacks {
		fns = append(fns, fn)
	}
	for _, fn := range fns {
		fn(nowMs)
	}
}

type fakeMapSource struct {
	fns []func(string)
}

func (s *fakeMapSource) SubscribeMapChanged(fn func(mapID string)) {
	s.fns = append(s.fns, fn)
}

func (s *fakeMapSource) fire(mapID string) {
	for _, fn := range s.fns {
		fn(mapID)
	}
}

type recordingStats struct {
	ticks   int
	visible int
}

func (r *recordingStats) RecordTick(stats pins.Stats, elapsed time.Duration) {
	r.ticks++
	r.visible = stats.Visible
}

type testEnv struct {
	engine   *Engine
	toolkit  *fakeToolkit
	observer *fakeObserver
	maps     *fakeMaps
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	env := &testEnv{
		toolkit:  &fakeToolkit{},
		observer: &fakeObserver{x: 0.5, y: 0.51, ready: true},
		maps:     &fakeMaps{id: "glenumbra", zone: 1, hasZone: true},
	}
	e, err := New(Dependencies{
		Toolkit:  env.toolkit,
		Observer: env.observer,
		Maps:     env.maps,
	}, opts)
	require.NoError(t, err)
	env.engine = e
	return env
}
