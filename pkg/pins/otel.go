package pins

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/compass/pkg/pins"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// metrics mirrors manager state into atomics so gauge callbacks never touch
// the single threaded record table.
type metrics struct {
	acquired metric.Int64Counter
	released metric.Int64Counter
	failures metric.Int64Counter

	visible   atomic.Int64
	poolInUse atomic.Int64
	records   atomic.Int64

	registration metric.Registration
}

// close unregisters the gauge callback
func (mt *metrics) close() error {
	if mt.registration == nil {
		return nil
	}
	err := mt.registration.Unregister()
	mt.registration = nil
	return err
}

func newMetrics() (*metrics, error) {
	m := meter()
	mt := &metrics{}

	var err error
	mt.acquired, err = m.Int64Counter(
		"compass.pool.acquired",
		metric.WithDescription("Controls handed to a new pin"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating acquired counter: %w", err)
	}

	mt.released, err = m.Int64Counter(
		"compass.pool.released",
		metric.WithDescription("Controls returned to the pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating released counter: %w", err)
	}

	mt.failures, err = m.Int64Counter(
		"compass.pool.failures",
		metric.WithDescription("Pins skipped because no control was available"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	visible, err := m.Int64ObservableGauge(
		"compass.pins.visible",
		metric.WithDescription("Pins drawn on the compass after the last update"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating visible gauge: %w", err)
	}

	inUse, err := m.Int64ObservableGauge(
		"compass.pool.in_use",
		metric.WithDescription("Controls currently attached to a pin"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating in use gauge: %w", err)
	}

	records, err := m.Int64ObservableGauge(
		"compass.pins.records",
		metric.WithDescription("Tracked points of interest"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating records gauge: %w", err)
	}

	mt.registration, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(visible, mt.visible.Load())
			o.ObserveInt64(inUse, mt.poolInUse.Load())
			o.ObserveInt64(records, mt.records.Load())
			return nil
		},
		visible, inUse, records,
	)
	if err != nil {
		return nil, fmt.Errorf("registering gauge callback: %w", err)
	}

	return mt, nil
}
