package compass

import (
	"math"
	"testing"
	"time"

	"github.com/OCAP2/compass/internal/zones"
	"github.com/OCAP2/compass/pkg/core"
	"github.com/OCAP2/compass/pkg/pins"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func producerAt(tags ...string) Producer {
	return func(m *pins.Manager) {
		for _, tag := range tags {
			m.CreatePin("", core.Tag(tag), 0.5, 0.5, tag)
		}
	}
}

func typedProducer(pinType string, tags ...string) Producer {
	return func(m *pins.Manager) {
		for _, tag := range tags {
			m.CreatePin(pinType, core.Tag(tag), 0.5, 0.5, tag)
		}
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Dependencies{Observer: &fakeObserver{}}, Options{})
	assert.Error(t, err)

	_, err = New(Dependencies{Toolkit: &fakeToolkit{}}, Options{})
	assert.Error(t, err)
}

func TestNew_AppliesDefaults(t *testing.T) {
	env := newTestEnv(t, Options{TickInterval: time.Millisecond})

	assert.Equal(t, "CompassPins", env.engine.Name())
	assert.Equal(t, MinTickInterval, env.engine.opts.TickInterval)
	assert.InDelta(t, math.Pi*0.6, env.engine.opts.FOV, 1e-12)
	assert.Equal(t, 512.0, env.engine.opts.CompassWidth)
}

func TestAddPinType(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.engine.AddPinType("chest", typedProducer("chest", "c1"), core.Layout{MaxDistance: 0.05})
	require.True(t, env.engine.HasPinType("chest"))

	// duplicate is ignored and the original layout survives
	env.engine.AddPinType("chest", typedProducer("chest", "other"), core.Layout{MaxDistance: 0.9})
	layout, ok := env.engine.layouts.Get("chest")
	require.True(t, ok)
	assert.Equal(t, 0.05, layout.MaxDistance)

	env.engine.RefreshPins("chest")
	_, ok = env.engine.Manager().Pin("c1")
	assert.True(t, ok, "the first producer must stay registered")
	_, ok = env.engine.Manager().Pin("other")
	assert.False(t, ok)
}

func TestAddPinType_RejectsBadInput(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.engine.AddPinType("nil", nil, core.Layout{})
	env.engine.AddPinType("bad", producerAt("x"), core.Layout{MaxDistance: -1})
	env.engine.AddPinType("", producerAt("x"), core.Layout{})

	assert.False(t, env.engine.HasPinType("nil"))
	assert.False(t, env.engine.HasPinType("bad"))
	assert.False(t, env.engine.HasPinType(""))
	assert.Empty(t, env.engine.PinTypes())
}

func TestRefreshPins_SingleType(t *testing.T) {
	env := newTestEnv(t, Options{})
	calls := map[string]int{}
	env.engine.AddPinType("chest", func(m *pins.Manager) {
		calls["chest"]++
		m.CreatePin("chest", "c1", 0.5, 0.5, "")
	}, core.Layout{})
	env.engine.AddPinType("node", func(m *pins.Manager) {
		calls["node"]++
		m.CreatePin("node", "n1", 0.5, 0.5, "")
	}, core.Layout{})

	env.engine.RefreshPins()
	assert.Equal(t, map[string]int{"chest": 1, "node": 1}, calls)

	// a stray chest pin created outside the producer is cleared by the refresh
	env.engine.Manager().CreatePin("chest", "stray", 0.1, 0.1, "")
	env.engine.RefreshPins("chest")

	assert.Equal(t, map[string]int{"chest": 2, "node": 1}, calls)
	_, ok := env.engine.Manager().Pin("stray")
	assert.False(t, ok)
	assert.Equal(t, 2, env.engine.Manager().Len())

	// unknown type is a no-op
	env.engine.RefreshPins("missing")
	assert.Equal(t, 2, env.engine.Manager().Len())
}

func TestRefreshPins_AllClearsEverything(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.engine.AddPinType("chest", typedProducer("chest", "c1", "c2"), core.Layout{})

	env.engine.Manager().CreatePin("unregistered", "u1", 0.5, 0.5, "")
	env.engine.RefreshPins()

	assert.Equal(t, 2, env.engine.Manager().Len())
	_, ok := env.engine.Manager().Pin("u1")
	assert.False(t, ok)
}

func TestGetDistanceCoefficient(t *testing.T) {
	cyrodiil, ok := zones.Coefficient(13)
	require.True(t, ok)

	tests := []struct {
		name string
		maps *fakeMaps
		want float64
	}{
		{"known zone", &fakeMaps{zone: 13, hasZone: true}, math.Sqrt(cyrodiil)},
		{"zone out of range", &fakeMaps{zone: 999, hasZone: true}, 1},
		{"zone wins over dungeon", &fakeMaps{zone: 13, hasZone: true, content: core.ContentDungeon}, math.Sqrt(cyrodiil)},
		{"dungeon without zone", &fakeMaps{content: core.ContentDungeon}, 4},
		{"subzone without zone", &fakeMaps{mapType: core.MapTypeSubzone}, math.Sqrt(6)},
		{"dungeon beats subzone", &fakeMaps{content: core.ContentDungeon, mapType: core.MapTypeSubzone}, 4},
		{"nothing resolvable", &fakeMaps{mapType: core.MapTypeWorld}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Options{})
			env.engine.deps.Maps = tt.maps
			assert.InDelta(t, tt.want, env.engine.GetDistanceCoefficient(), 1e-12)
		})
	}
}

func TestGetDistanceCoefficient_NoMapContext(t *testing.T) {
	e, err := New(Dependencies{Toolkit: &fakeToolkit{}, Observer: &fakeObserver{}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.GetDistanceCoefficient())
}

func TestRefreshDistanceCoefficient_ReachesManager(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.maps.hasZone = false
	env.maps.content = core.ContentDungeon

	env.engine.RefreshDistanceCoefficient()

	assert.Equal(t, 4.0, env.engine.Coefficient())
	assert.Equal(t, 4.0, env.engine.Manager().Coefficient())
}

func TestTick_ProjectsPins(t *testing.T) {
	stats := &recordingStats{}
	env := newTestEnv(t, Options{})
	env.engine.deps.Stats = stats
	env.engine.AddPinType("poi", typedProducer("poi", "p"), core.Layout{MaxDistance: 0.02})
	env.engine.RefreshDistanceCoefficient()
	env.engine.RefreshPins()

	env.engine.Tick()

	p, ok := env.engine.Manager().Pin("p")
	require.True(t, ok)
	assert.True(t, p.Shown())
	assert.Equal(t, 1, stats.ticks)
	assert.Equal(t, 1, stats.visible)
}

func TestTick_SkipsWithoutHeading(t *testing.T) {
	stats := &recordingStats{}
	env := newTestEnv(t, Options{})
	env.engine.deps.Stats = stats
	env.engine.AddPinType("poi", typedProducer("poi", "p"), core.Layout{})
	env.engine.RefreshPins()
	env.observer.ready = false

	env.engine.Tick()

	p, _ := env.engine.Manager().Pin("p")
	assert.False(t, p.Attached())
	assert.Equal(t, 0, stats.ticks)
	assert.Equal(t, 0, env.toolkit.created)
}

func TestTick_NormalizesHeading(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.engine.AddPinType("poi", typedProducer("poi", "p"), core.Layout{})
	env.engine.RefreshPins()

	// a full turn is the same as facing the pin
	env.observer.heading = 2 * math.Pi
	env.engine.Tick()

	p, _ := env.engine.Manager().Pin("p")
	assert.True(t, p.Shown())
}

func TestFrame_Throttles(t *testing.T) {
	stats := &recordingStats{}
	env := newTestEnv(t, Options{TickInterval: 50 * time.Millisecond})
	env.engine.deps.Stats = stats

	env.engine.Frame(1000)
	env.engine.Frame(1010)
	env.engine.Frame(1049)
	assert.Equal(t, 1, stats.ticks, "frames inside the interval are coalesced")

	env.engine.Frame(1050)
	assert.Equal(t, 2, stats.ticks)

	env.engine.Frame(1060)
	env.engine.Frame(1200)
	assert.Equal(t, 3, stats.ticks)
}

func TestStartStop(t *testing.T) {
	sched := newFakeScheduler()
	env := newTestEnv(t, Options{})

	env.engine.Start(sched)
	require.Contains(t, sched.callbacks, "CompassPins")

	env.engine.Stop()
	assert.NotContains(t, sched.callbacks, "CompassPins")

	// stopping twice is harmless
	env.engine.Stop()
}

func TestSlot_NewerVersionSupersedes(t *testing.T) {
	sched := newFakeScheduler()
	slot := &Slot{}

	oldStats := &recordingStats{}
	old := newTestEnv(t, Options{Name: "CompassPins", Version: 2})
	old.engine.deps.Stats = oldStats
	require.True(t, slot.Install(old.engine))
	old.engine.Start(sched)

	sched.frame(0)
	require.Equal(t, 1, oldStats.ticks)

	newer := newTestEnv(t, Options{Name: "CompassPinsV3", Version: 3})
	require.True(t, slot.Install(newer.engine))
	newer.engine.Start(sched)

	sched.frame(100)

	assert.Equal(t, 1, oldStats.ticks, "superseded engine must not tick")
	assert.NotContains(t, sched.callbacks, "CompassPins", "superseded engine unregisters itself")
	assert.Contains(t, sched.callbacks, "CompassPinsV3")
	assert.Same(t, newer.engine, slot.Current())
}

func TestSlot_SupersededEngineReleasesControls(t *testing.T) {
	sched := newFakeScheduler()
	slot := &Slot{}

	old := newTestEnv(t, Options{Name: "CompassPins", Version: 2})
	old.engine.AddPinType("poi", typedProducer("poi", "a"), core.Layout{})
	old.engine.RefreshPins()
	require.True(t, slot.Install(old.engine))
	old.engine.Start(sched)

	sched.frame(0)
	require.Len(t, old.toolkit.controls, 1)
	require.False(t, old.toolkit.controls[0].hidden)

	newer := newTestEnv(t, Options{Name: "CompassPinsV3", Version: 3})
	require.True(t, slot.Install(newer.engine))
	newer.engine.Start(sched)

	sched.frame(100)

	assert.True(t, old.toolkit.controls[0].hidden, "old control must not stay on the compass")
	assert.Equal(t, 0, old.engine.Manager().Stats().PoolInUse)
	assert.Equal(t, 0, old.engine.Manager().Len())
	assert.NotContains(t, sched.callbacks, "CompassPins")
}

func TestClose_Idempotent(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.engine.AddPinType("poi", typedProducer("poi", "a"), core.Layout{})
	env.engine.RefreshPins()
	env.engine.Tick()

	require.NoError(t, env.engine.Close())
	require.NoError(t, env.engine.Close())
	assert.Equal(t, 0, env.engine.Manager().Stats().Visible)
}

func TestSlot_RejectsOlderVersion(t *testing.T) {
	slot := &Slot{}
	current := newTestEnv(t, Options{Version: 3})
	older := newTestEnv(t, Options{Version: 2})
	same := newTestEnv(t, Options{Version: 3})

	require.True(t, slot.Install(current.engine))
	assert.False(t, slot.Install(older.engine))
	assert.False(t, slot.Install(same.engine))
	assert.Same(t, current.engine, slot.Current())
}

func TestOnMapChanged(t *testing.T) {
	env := newTestEnv(t, Options{})
	produced := 0
	env.engine.AddPinType("poi", func(m *pins.Manager) {
		produced++
		m.CreatePin("poi", "p", 0.5, 0.5, "")
	}, core.Layout{})

	env.maps.hasZone = false
	env.maps.content = core.ContentDungeon
	env.engine.OnMapChanged("crypt")

	assert.Equal(t, 1, produced)
	assert.Equal(t, 4.0, env.engine.Manager().Coefficient())
	assert.Equal(t, "crypt", env.engine.MapID())

	// the same id again does nothing
	env.engine.OnMapChanged("crypt")
	assert.Equal(t, 1, produced)

	env.engine.OnMapChanged("glenumbra")
	assert.Equal(t, 2, produced)
}

func TestSubscribe(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.engine.AddPinType("poi", typedProducer("poi", "p"), core.Layout{})
	src := &fakeMapSource{}

	env.engine.Subscribe(src)
	src.fire("stormhaven")

	assert.Equal(t, "stormhaven", env.engine.MapID())
	assert.Equal(t, 1, env.engine.Manager().Len())
}

func TestDispatch_DeferredUntilTick(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.engine.AddPinType("poi", typedProducer("poi", "p"), core.Layout{})

	result, err := env.engine.Dispatch(CommandMapChanged, "rivenspire")
	require.NoError(t, err)
	assert.Equal(t, "queued", result)
	assert.Equal(t, "", env.engine.MapID(), "commands wait for the tick")

	env.engine.Tick()
	assert.Equal(t, "rivenspire", env.engine.MapID())
	assert.Equal(t, 1, env.engine.Manager().Len())

	env.engine.Manager().RemovePins()
	_, err = env.engine.Dispatch(CommandRefreshPins, "poi")
	require.NoError(t, err)
	env.observer.ready = false
	env.engine.Tick()
	assert.Equal(t, 1, env.engine.Manager().Len(), "commands run even when the tick is skipped")
}

func TestDispatch_UnknownCommand(t *testing.T) {
	env := newTestEnv(t, Options{})
	_, err := env.engine.Dispatch(":NOPE:")
	assert.Error(t, err)
}

func TestTypeIsolationThroughEngine(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.engine.AddPinType("red", typedProducer("red", "a"), core.Layout{
		Effect: &core.Effect{
			Apply: func(pin core.Control, angle, normalizedAngle, normalizedDistance float64) {
				pin.SetColor(1, 0, 0, 1)
			},
			Reset: func(pin core.Control) { pin.SetColor(1, 1, 1, 1) },
		},
	})
	env.engine.AddPinType("blue", typedProducer("blue", "b"), core.Layout{
		Effect: &core.Effect{
			Apply: func(pin core.Control, angle, normalizedAngle, normalizedDistance float64) {},
			Reset: func(pin core.Control) {},
		},
	})

	env.engine.RefreshPins("red")
	env.engine.Tick()
	require.Equal(t, 1, env.toolkit.created)

	env.engine.Manager().RemovePins("red")
	env.engine.RefreshPins("blue")
	env.engine.Tick()

	assert.Equal(t, 1, env.toolkit.created, "the red control is reused")
	p, _ := env.engine.Manager().Pin("b")
	assert.True(t, p.Shown())
	assert.Equal(t, [4]float64{1, 1, 1, 1}, env.toolkit.controls[0].color, "red tint is reset for the blue pin")
}
