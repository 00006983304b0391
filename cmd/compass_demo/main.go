// compass_demo hosts the compass engine in an ebiten window. Pins come from
// the SQL catalog and their layouts from the YAML layouts file.
//
// Usage:
//
//	compass_demo [configDir]        run the demo
//	compass_demo seed [configDir]   fill the catalog with demo points
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/compass/internal/catalog"
	"github.com/OCAP2/compass/internal/config"
	"github.com/OCAP2/compass/internal/database"
	"github.com/OCAP2/compass/internal/influx"
	"github.com/OCAP2/compass/internal/layouts"
	"github.com/OCAP2/compass/internal/logging"
	"github.com/OCAP2/compass/internal/monitor"
	intOtel "github.com/OCAP2/compass/internal/otel"
	"github.com/OCAP2/compass/pkg/compass"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const appName = "compass_demo"

var (
	SessionStartTime = time.Now()

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	engine *compass.Engine
)

func main() {
	args := os.Args[1:]
	seed := len(args) > 0 && strings.ToLower(args[0]) == "seed"
	if seed {
		args = args[1:]
	}
	configDir := "."
	if len(args) > 0 {
		configDir = args[0]
	}

	configErr := config.Load(configDir)
	if configErr != nil {
		config.SetDefaults()
	}

	logFile := setupLogging()
	if logFile != nil {
		defer logFile.Close()
	}
	defer shutdownOTel()
	if configErr != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", configErr)
	}

	db, err := database.Open(config.GetCatalogConfig(), Logger)
	if err != nil {
		Logger.Error("Failed to open catalog", "error", err)
		os.Exit(1)
	}
	cat, err := catalog.New(db, Logger)
	if err != nil {
		Logger.Error("Failed to set up catalog", "error", err)
		os.Exit(1)
	}

	if seed {
		if err := seedCatalog(context.Background(), cat, 40); err != nil {
			Logger.Error("Failed to seed catalog", "error", err)
			os.Exit(1)
		}
		Logger.Info("Catalog seeded")
		return
	}

	if err := run(configDir, cat); err != nil {
		Logger.Error("Demo stopped", "error", err)
		os.Exit(1)
	}
}

func setupLogging() *os.File {
	SlogManager = logging.NewSlogManager(func() []slog.Attr {
		if engine == nil {
			return nil
		}
		return engine.LogAttrs()
	})
	SlogManager.Setup(logging.Outputs{Console: os.Stdout}, viper.GetString("logLevel"), nil)
	Logger = SlogManager.Logger()

	logFile, err := logging.OpenLogFile(viper.GetString("logsDir"), appName, SessionStartTime)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err)
	}

	out := logging.Outputs{Console: os.Stdout}
	if logFile != nil {
		out.File = logFile
	}

	if viper.GetBool("graylog.enabled") {
		gw, err := logging.OpenGraylog(viper.GetString("graylog.address"))
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err)
		} else {
			out.Graylog = gw
		}
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var otelWriter io.Writer
		if logFile != nil {
			otelWriter = logFile
		}
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        true,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: compass.Version,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      otelWriter,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(out, viper.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()
	if logFile != nil {
		Logger.Info("Logging to file", "path", logFile.Name())
	}
	return logFile
}

func shutdownOTel() {
	if OTelProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := OTelProvider.Shutdown(ctx); err != nil {
		Logger.Error("Failed to shut down OTel provider", "error", err)
	}
}

func run(configDir string, cat *catalog.Catalog) error {
	w := newWorld()
	tk := &toolkit{}

	monitorService, closeInflux := setupMonitor()
	defer closeInflux()

	opts := config.EngineOptions()
	var err error
	engine, err = compass.New(compass.Dependencies{
		Toolkit:     tk,
		Observer:    w,
		Maps:        w,
		Diagnostics: logging.NewDiagnosticSink(os.Stderr, false),
		Logger:      Logger,
		Stats:       monitorService,
	}, opts)
	if err != nil {
		return err
	}

	slot := &compass.Slot{}
	if !slot.Install(engine) {
		return errors.New("engine rejected by slot")
	}

	lf, err := loadLayouts(configDir)
	if err != nil {
		return err
	}
	producers := make(map[string]compass.Producer, len(lf.Types))
	for _, t := range lf.Types {
		producers[t.Name] = cat.Producer(t.Name, w.MapID)
	}
	names, err := lf.Register(engine, producers)
	if err != nil {
		return err
	}
	Logger.Info("Pin types registered", "types", names)

	engine.Subscribe(w)
	engine.OnMapChanged(w.MapID())
	engine.Start(w)
	defer func() {
		if err := engine.Close(); err != nil {
			Logger.Warn("Compass teardown incomplete", "error", err)
		}
	}()

	monitorService.Start(10 * time.Second)
	defer monitorService.Stop()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Compass Pins")

	err = ebiten.RunGame(&Game{engine: engine, world: w, toolkit: tk, monitor: monitorService, width: opts.CompassWidth})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// loadLayouts reads the configured layouts file, writing the demo layouts
// first when it does not exist.
func loadLayouts(configDir string) (*layouts.File, error) {
	path := viper.GetString("layouts.file")
	if !filepath.IsAbs(path) {
		path = filepath.Join(configDir, path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(demoLayouts), 0644); err != nil {
			return nil, err
		}
		Logger.Info("Wrote demo layouts", "path", path)
	}
	return layouts.Load(path)
}

func setupMonitor() (*monitor.Service, func()) {
	deps := monitor.Dependencies{
		Logger:     Logger,
		StatusPath: filepath.Join(viper.GetString("logsDir"), "status.json"),
		Engine:     appName,
	}

	ic := config.GetInfluxConfig()
	if !ic.Enabled {
		return monitor.NewService(deps), func() {}
	}

	backup := filepath.Join(viper.GetString("logsDir"),
		appName+"_"+SessionStartTime.Format("20060102_150405")+".lp.gz")
	im := influx.NewManager(ic, Logger, backup)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := im.Connect(ctx); err != nil {
		Logger.Error("Failed to set up InfluxDB export", "error", err)
		return monitor.NewService(deps), func() {}
	}
	deps.Writer = im
	return monitor.NewService(deps), func() {
		if err := im.Close(); err != nil {
			Logger.Error("Failed to close InfluxDB export", "error", err)
		}
	}
}
