// Package compass is the registry that drives the pin manager.
//
// An Engine owns the pin type table, the producer callbacks and the distance
// coefficient for the displayed map. The host calls Frame from its frame
// clock; every TickInterval the engine polls the observer and projects all
// pins. Everything runs on the host's frame goroutine. Host events raised on
// other goroutines go through Dispatch and are applied at the start of the
// next tick.
package compass

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/OCAP2/compass/internal/dispatcher"
	"github.com/OCAP2/compass/pkg/core"
	"github.com/OCAP2/compass/pkg/pins"
)

// Version of the engine built from this package
const Version = 3

// Producer fills the manager with the pins of one type.
type Producer func(m *pins.Manager)

// StatsSink receives manager statistics after every tick
type StatsSink interface {
	RecordTick(stats pins.Stats, elapsed time.Duration)
}

// Dependencies holds the host collaborators of an Engine
type Dependencies struct {
	Toolkit     core.Toolkit
	Observer    core.Observer
	Maps        core.MapContext
	Diagnostics core.Diagnostics
	Logger      *slog.Logger
	Stats       StatsSink
}

// Options configures an Engine
type Options struct {
	Name         string // name the frame callback is registered under
	Version      int
	TickInterval time.Duration
	FOV          float64 // default field of view in radians
	CompassWidth float64
	Template     string
	PoolCapacity int
}

// MinTickInterval bounds the tick rate independent of the frame rate
const MinTickInterval = 20 * time.Millisecond

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Name:         "CompassPins",
		Version:      Version,
		TickInterval: MinTickInterval,
		FOV:          math.Pi * 0.6,
		CompassWidth: 512,
		Template:     "CompassPin",
	}
}

// Engine is the compass pin registry.
type Engine struct {
	opts   Options
	deps   Dependencies
	logger *slog.Logger

	layouts    *pins.Layouts
	manager    *pins.Manager
	producers  map[string]Producer
	dispatcher *dispatcher.Dispatcher

	coefficient float64
	lastMapID   string

	lastTickMs int64
	ticked     bool
	slot       *Slot
	scheduler  core.Scheduler
}

// New creates an Engine. Observer and Toolkit are required.
func New(deps Dependencies, opts Options) (*Engine, error) {
	if deps.Toolkit == nil {
		return nil, fmt.Errorf("compass: toolkit is required")
	}
	if deps.Observer == nil {
		return nil, fmt.Errorf("compass: observer is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	def := DefaultOptions()
	if opts.Name == "" {
		opts.Name = def.Name
	}
	if opts.TickInterval < MinTickInterval {
		opts.TickInterval = MinTickInterval
	}
	if opts.FOV <= 0 {
		opts.FOV = def.FOV
	}
	if opts.CompassWidth <= 0 {
		opts.CompassWidth = def.CompassWidth
	}
	if opts.Template == "" {
		opts.Template = def.Template
	}

	logger := deps.Logger.With("engine", opts.Name, "version", opts.Version)

	e := &Engine{
		opts:        opts,
		deps:        deps,
		logger:      logger,
		layouts:     pins.NewLayouts(opts.FOV),
		producers:   make(map[string]Producer),
		coefficient: 1,
	}

	m, err := pins.NewManager(e.layouts, deps.Toolkit, deps.Diagnostics, logger, pins.Options{
		Template:     opts.Template,
		CompassWidth: opts.CompassWidth,
		PoolCapacity: opts.PoolCapacity,
	})
	if err != nil {
		return nil, fmt.Errorf("creating pin manager: %w", err)
	}
	e.manager = m

	d, err := dispatcher.New(logger)
	if err != nil {
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}
	e.dispatcher = d
	e.registerCommands()

	if deps.Maps != nil {
		e.RefreshDistanceCoefficient()
	}

	return e, nil
}

// Name returns the name the engine registers its frame callback under
func (e *Engine) Name() string { return e.opts.Name }

// Version returns the engine version used by the install guard
func (e *Engine) Version() int { return e.opts.Version }

// Manager returns the pin manager producers write to.
func (e *Engine) Manager() *pins.Manager { return e.manager }

// AddPinType registers a pin type with its producer and layout. Duplicate
// names, nil producers and invalid layouts are ignored; registration happens
// at startup and callers do not depend on feedback.
func (e *Engine) AddPinType(pinType string, producer Producer, layout core.Layout) {
	if producer == nil {
		e.logger.Debug("pin type rejected", "pinType", pinType, "reason", "nil producer")
		return
	}
	if err := e.layouts.Add(pinType, layout); err != nil {
		e.logger.Debug("pin type rejected", "pinType", pinType, "error", err)
		return
	}
	e.producers[pinType] = producer
	e.logger.Debug("pin type registered", "pinType", pinType)
}

// HasPinType reports whether pinType is registered
func (e *Engine) HasPinType(pinType string) bool {
	_, ok := e.producers[pinType]
	return ok
}

// PinTypes returns the registered pin types in registration order.
func (e *Engine) PinTypes() []string {
	return e.layouts.Names()
}

// RefreshPins clears and re-produces the pins of the given types. Without
// arguments every pin is cleared and every producer runs. Unknown types are
// ignored.
func (e *Engine) RefreshPins(pinTypes ...string) {
	if len(pinTypes) == 0 {
		e.manager.RemovePins()
		for _, name := range e.layouts.Names() {
			e.produce(name)
		}
		return
	}

	for _, name := range pinTypes {
		if !e.HasPinType(name) {
			continue
		}
		e.manager.RemovePins(name)
		e.produce(name)
	}
}

func (e *Engine) produce(pinType string) {
	producer, ok := e.producers[pinType]
	if !ok {
		return
	}
	before := e.manager.Len()
	producer(e.manager)
	e.logger.Debug("pins produced", "pinType", pinType, "records", e.manager.Len()-before)
}
