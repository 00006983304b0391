package pins

import (
	"errors"
	"testing"

	"github.com/OCAP2/compass/pkg/core"

	"github.com/stretchr/testify/require"
)

// fakeControl records the last value of every setter.
type fakeControl struct {
	key      int
	hidden   bool
	alpha    float64
	width    float64
	height   float64
	offsetX  float64
	offsetY  float64
	anchored bool
	color    [4]float64
	texture  string
	handlers map[string]func()
	children map[string]*fakeControl
}

func newFakeControl(key int) *fakeControl {
	return &fakeControl{
		key:      key,
		color:    [4]float64{1, 1, 1, 1},
		handlers: make(map[string]func()),
		children: map[string]*fakeControl{
			"Background": {hidden: true},
			"Highlight":  {hidden: true},
		},
	}
}

func (c *fakeControl) ClearAnchors() { c.anchored = false }
func (c *fakeControl) SetAnchor(point, relativeTo core.Anchor, offsetX, offsetY float64) {
	c.anchored = true
	c.offsetX = offsetX
	c.offsetY = offsetY
}
func (c *fakeControl) SetAlpha(alpha float64)              { c.alpha = alpha }
func (c *fakeControl) SetHidden(hidden bool)               { c.hidden = hidden }
func (c *fakeControl) SetDimensions(width, height float64) { c.width, c.height = width, height }
func (c *fakeControl) SetColor(r, g, b, a float64)         { c.color = [4]float64{r, g, b, a} }
func (c *fakeControl) SetTexture(path string)              { c.texture = path }
func (c *fakeControl) NamedChild(name string) core.Control {
	if child, ok := c.children[name]; ok {
		return child
	}
	return nil
}
func (c *fakeControl) SetHandler(event string, fn func()) {
	if c.handlers == nil {
		c.handlers = make(map[string]func())
	}
	if fn == nil {
		delete(c.handlers, event)
		return
	}
	c.handlers[event] = fn
}

type fakeToolkit struct {
	controls []*fakeControl
	fail     bool
}

func (tk *fakeToolkit) CreateControl(template string, key int) (core.Control, error) {
	if tk.fail {
		return nil, errors.New("template missing")
	}
	c := newFakeControl(key)
	tk.controls = append(tk.controls, c)
	return c, nil
}

type fakeDiagnostics struct {
	messages []string
}

func (d *fakeDiagnostics) Report(msg string) {
	d.messages = append(d.messages, msg)
}

type testEnv struct {
	manager *Manager
	layouts *Layouts
	toolkit *fakeToolkit
	diag    *fakeDiagnostics
}

const testFOV = 0.6 * 3.141592653589793

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	if opts.CompassWidth == 0 {
		opts.CompassWidth = 512
	}
	env := &testEnv{
		layouts: NewLayouts(testFOV),
		toolkit: &fakeToolkit{},
		diag:    &fakeDiagnostics{},
	}
	m, err := NewManager(env.layouts, env.toolkit, env.diag, nil, opts)
	require.NoError(t, err)
	env.manager = m
	return env
}

// control returns the fake control attached to tag.
func (e *testEnv) control(t *testing.T, tag core.Tag) *fakeControl {
	t.Helper()
	p, ok := e.manager.pins[tag]
	require.True(t, ok, "pin %s not tracked", tag)
	require.True(t, p.attached, "pin %s has no control", tag)
	ctrl, ok := e.manager.pool.Get(p.key)
	require.True(t, ok)
	return ctrl.(*fakeControl)
}
