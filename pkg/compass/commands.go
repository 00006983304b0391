package compass

import (
	"fmt"
	"time"

	"github.com/OCAP2/compass/internal/dispatcher"
	"github.com/OCAP2/compass/pkg/core"
)

// Host commands
const (
	CommandMapChanged         = ":MAP:CHANGED:"
	CommandRefreshPins        = ":PINS:REFRESH:"
	CommandRefreshCoefficient = ":COEFFICIENT:REFRESH:"
)

const commandQueueLimit = 64

func (e *Engine) registerCommands() {
	e.dispatcher.Register(CommandMapChanged, func(ev dispatcher.Event) (any, error) {
		if len(ev.Args) == 0 {
			return nil, fmt.Errorf("missing map id")
		}
		e.OnMapChanged(ev.Args[0])
		return nil, nil
	}, dispatcher.Deferred(commandQueueLimit), dispatcher.Logged())

	e.dispatcher.Register(CommandRefreshPins, func(ev dispatcher.Event) (any, error) {
		e.RefreshPins(ev.Args...)
		return nil, nil
	}, dispatcher.Deferred(commandQueueLimit), dispatcher.Logged())

	e.dispatcher.Register(CommandRefreshCoefficient, func(ev dispatcher.Event) (any, error) {
		e.RefreshDistanceCoefficient()
		return nil, nil
	}, dispatcher.Deferred(commandQueueLimit))
}

// Dispatch queues a host command. It is safe to call from any goroutine; the
// command runs at the start of the next tick.
func (e *Engine) Dispatch(command string, args ...string) (any, error) {
	return e.dispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
}

// Subscribe listens for map changes on src. src must deliver on the frame
// goroutine; other hosts should Dispatch CommandMapChanged instead.
func (e *Engine) Subscribe(src core.MapChangeSource) {
	src.SubscribeMapChanged(e.OnMapChanged)
}

// OnMapChanged rescales distances and rebuilds every pin when the displayed
// map differs from the last one seen.
func (e *Engine) OnMapChanged(mapID string) {
	if mapID == e.lastMapID {
		return
	}
	e.logger.Info("map changed", "from", e.lastMapID, "to", mapID)
	e.RefreshDistanceCoefficient()
	e.RefreshPins()
	e.lastMapID = mapID
}

// MapID returns the last map id seen
func (e *Engine) MapID() string {
	return e.lastMapID
}
