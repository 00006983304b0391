package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Outputs lists the sinks a SlogManager writes to. Nil writers are skipped.
type Outputs struct {
	Console io.Writer
	File    io.Writer
	// Graylog receives one JSON record per write, see OpenGraylog.
	Graylog io.Writer
}

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
	context     ContextProvider
}

// NewSlogManager creates a new slog-based logging manager. context, if not
// nil, is evaluated for every record.
func NewSlogManager(context ContextProvider) *SlogManager {
	return &SlogManager{context: context}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func utcTime(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
		}
	}
	return a
}

// Setup builds the handler chain for out. If provider is nil, OTel logging is
// disabled. Calling Setup again replaces the previous chain.
func (m *SlogManager) Setup(out Outputs, level string, provider *sdklog.LoggerProvider) {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: utcTime,
	}
	m.logProvider = provider

	var handlers []slog.Handler
	if out.Console != nil {
		handlers = append(handlers, slog.NewTextHandler(out.Console, opts))
	}
	if out.File != nil {
		handlers = append(handlers, slog.NewTextHandler(out.File, opts))
	}
	if out.Graylog != nil {
		handlers = append(handlers, slog.NewJSONHandler(out.Graylog, opts))
	}
	if provider != nil {
		handlers = append(handlers, otelslog.NewHandler("compass", otelslog.WithLoggerProvider(provider)))
	}

	var h slog.Handler = NewMultiHandler(handlers...)
	if m.context != nil {
		h = NewContextHandler(h, m.context)
	}

	m.logger = slog.New(h)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
