// Package monitor aggregates compass tick statistics and exports them
// periodically.
package monitor

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/compass/pkg/pins"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the InfluxDB measurement tick windows are written to
const Measurement = "compass_tick"

// PointWriter receives one point per window
type PointWriter interface {
	WritePoint(point *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Writer     PointWriter // optional
	Logger     *slog.Logger
	StatusPath string // optional, rewritten after every window
	Engine     string // tag value identifying the engine
}

// Window summarizes the ticks recorded since the last flush
type Window struct {
	Start     time.Time     `json:"start"`
	Ticks     int           `json:"ticks"`
	TotalTime time.Duration `json:"totalTime"`
	MaxTime   time.Duration `json:"maxTime"`
	Last      pins.Stats    `json:"last"`
}

// Average returns the mean tick duration
func (w Window) Average() time.Duration {
	if w.Ticks == 0 {
		return 0
	}
	return w.TotalTime / time.Duration(w.Ticks)
}

// Service implements compass.StatsSink.
type Service struct {
	deps Dependencies

	mu        sync.Mutex
	window    Window
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		deps:   deps,
		window: Window{Start: time.Now()},
	}
}

// RecordTick adds one tick to the current window. It is called on the frame
// goroutine and only takes the window lock.
func (s *Service) RecordTick(stats pins.Stats, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window.Ticks++
	s.window.TotalTime += elapsed
	if elapsed > s.window.MaxTime {
		s.window.MaxTime = elapsed
	}
	s.window.Last = stats
}

// Snapshot returns the current window without resetting it
func (s *Service) Snapshot() Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// Flush closes the current window and exports it. Empty windows are not
// exported.
func (s *Service) Flush(now time.Time) Window {
	s.mu.Lock()
	w := s.window
	s.window = Window{Start: now}
	s.mu.Unlock()

	if w.Ticks == 0 {
		return w
	}

	if s.deps.Writer != nil {
		if err := s.deps.Writer.WritePoint(s.point(w, now)); err != nil {
			s.deps.Logger.Error("Error writing tick window", "error", err)
		}
	}
	if s.deps.StatusPath != "" {
		s.writeStatus(w)
	}
	return w
}

func (s *Service) point(w Window, now time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(Measurement,
		map[string]string{"engine": s.deps.Engine},
		map[string]any{
			"ticks":       w.Ticks,
			"avg_ms":      float64(w.Average()) / float64(time.Millisecond),
			"max_ms":      float64(w.MaxTime) / float64(time.Millisecond),
			"records":     w.Last.Records,
			"attached":    w.Last.Attached,
			"visible":     w.Last.Visible,
			"pool_size":   w.Last.PoolSize,
			"pool_in_use": w.Last.PoolInUse,
		},
		now,
	)
}

func (s *Service) writeStatus(w Window) {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		s.deps.Logger.Error("Error encoding status", "error", err)
		return
	}
	if err := os.WriteFile(s.deps.StatusPath, append(data, '\n'), 0644); err != nil {
		s.deps.Logger.Error("Error writing status file", "path", s.deps.StatusPath, "error", err)
	}
}

// IsRunning returns whether the export loop is running
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Start flushes a window every interval until Stop.
func (s *Service) Start(interval time.Duration) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.deps.Logger.Debug("Starting tick monitor", "interval", interval)
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				s.Flush(now)
			}
		}
	}()
}

// Stop ends the export loop and flushes what was recorded since the last
// window.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
	s.Flush(time.Now())
}
