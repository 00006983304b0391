package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// DiagnosticSink prints engine diagnostics as single human readable lines.
// It implements core.Diagnostics. Bursts are sampled so a broken control
// template cannot flood the console.
type DiagnosticSink struct {
	logger zerolog.Logger
}

// NewDiagnosticSink writes to out. noColor disables ANSI colors, as used for
// log files.
func NewDiagnosticSink(out io.Writer, noColor bool) *DiagnosticSink {
	cw := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	logger := zerolog.New(cw).With().Timestamp().Str("source", "compass").Logger().
		Sample(&zerolog.BurstSampler{
			// allow max 10 entries per 10 seconds, then 1 in 50
			Burst:       10,
			Period:      10 * time.Second,
			NextSampler: &zerolog.BasicSampler{N: 50},
		})
	return &DiagnosticSink{logger: logger}
}

// Report prints msg at warn level
func (d *DiagnosticSink) Report(msg string) {
	d.logger.Warn().Msg(msg)
}
