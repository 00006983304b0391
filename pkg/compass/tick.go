package compass

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/compass/pkg/core"
	"github.com/OCAP2/compass/pkg/pins"
)

// Slot holds the engine currently installed in a host. Installing a newer
// version supersedes the old engine, which unregisters itself on its next
// frame so two engines never share one control set.
type Slot struct {
	mu      sync.Mutex
	current *Engine
}

// Install makes e the current engine unless an engine of the same or a newer
// version is already installed.
func (s *Slot) Install(e *Engine) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Version() >= e.Version() {
		return false
	}
	s.current = e
	e.slot = s
	return true
}

// Current returns the installed engine, or nil
func (s *Slot) Current() *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (e *Engine) superseded() bool {
	return e.slot != nil && e.slot.Current() != e
}

// Start registers the engine's frame callback with the host scheduler.
func (e *Engine) Start(s core.Scheduler) {
	if e.scheduler != nil {
		return
	}
	e.scheduler = s
	s.RegisterForUpdate(e.opts.Name, e.Frame)
	e.logger.Info("compass started", "tickInterval", e.opts.TickInterval)
}

// Stop unregisters the frame callback. The engine can be started again.
func (e *Engine) Stop() {
	if e.scheduler == nil {
		return
	}
	e.scheduler.UnregisterForUpdate(e.opts.Name)
	e.scheduler = nil
	e.logger.Info("compass stopped")
}

// Close stops the engine for good. Every pin is removed, every control the
// engine created is hidden and its metric callbacks are unregistered, so a
// newer engine can own the compass alone.
func (e *Engine) Close() error {
	e.Stop()
	return errors.Join(e.dispatcher.Close(), e.manager.Close())
}

// Frame is the host frame callback. Frames closer than TickInterval to the
// last tick are dropped.
func (e *Engine) Frame(nowMs int64) {
	if e.superseded() {
		e.logger.Info("compass superseded by a newer version", "current", e.slot.Current().Version())
		if err := e.Close(); err != nil {
			e.logger.Warn("compass teardown incomplete", "error", err)
		}
		return
	}
	if e.ticked && time.Duration(nowMs-e.lastTickMs)*time.Millisecond < e.opts.TickInterval {
		return
	}
	e.ticked = true
	e.lastTickMs = nowMs
	e.Tick()
}

// Tick applies pending host events, then projects every pin for the current
// observer state. Ticks without a heading are skipped.
func (e *Engine) Tick() {
	e.dispatcher.Drain()

	heading, ok := e.deps.Observer.Heading()
	if !ok {
		return
	}
	x, y := e.deps.Observer.Position()

	start := time.Now()
	e.manager.Update(x, y, pins.NormalizeHeading(heading))
	if e.deps.Stats != nil {
		e.deps.Stats.RecordTick(e.manager.Stats(), time.Since(start))
	}
}

// LogAttrs describes the engine state for log records.
func (e *Engine) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("mapId", e.lastMapID),
		slog.Float64("coefficient", e.coefficient),
	}
}
