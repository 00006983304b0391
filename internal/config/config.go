package config

import (
	"fmt"
	"math"
	"time"

	"github.com/OCAP2/compass/pkg/compass"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory
const FileName = "compass.cfg.json"

// CatalogConfig selects the point-of-interest catalog backend
type CatalogConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// SQLiteConfig holds sqlite catalog settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// PostgresConfig holds postgres catalog settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// InfluxConfig holds the tick statistics exporter settings
type InfluxConfig struct {
	Enabled  bool
	Protocol string
	Host     string
	Port     string
	Token    string
	Org      string
	Bucket   string
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// SetDefaults registers the default for every known key. Load calls it; hosts
// running without a config file can call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./compasslogs")

	viper.SetDefault("compass.tickInterval", "20ms")
	viper.SetDefault("compass.fov", math.Pi*0.6)
	viper.SetDefault("compass.width", 512)
	viper.SetDefault("compass.poolCapacity", 0)
	viper.SetDefault("compass.template", "CompassPin")

	viper.SetDefault("layouts.file", "layouts.yaml")

	viper.SetDefault("catalog.type", "sqlite")
	viper.SetDefault("catalog.sqlite.path", "pins.db")
	viper.SetDefault("catalog.postgres.host", "localhost")
	viper.SetDefault("catalog.postgres.port", "5432")
	viper.SetDefault("catalog.postgres.username", "postgres")
	viper.SetDefault("catalog.postgres.password", "postgres")
	viper.SetDefault("catalog.postgres.database", "compass")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "compass-metrics")
	viper.SetDefault("influx.bucket", "compass_ticks")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "compass")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// EngineOptions returns the compass engine options from the compass section.
func EngineOptions() compass.Options {
	opts := compass.DefaultOptions()
	if d := viper.GetDuration("compass.tickInterval"); d > 0 {
		opts.TickInterval = d
	}
	if fov := viper.GetFloat64("compass.fov"); fov > 0 {
		opts.FOV = fov
	}
	if w := viper.GetFloat64("compass.width"); w > 0 {
		opts.CompassWidth = w
	}
	if tpl := viper.GetString("compass.template"); tpl != "" {
		opts.Template = tpl
	}
	opts.PoolCapacity = viper.GetInt("compass.poolCapacity")
	return opts
}

// GetCatalogConfig returns the catalog backend configuration.
func GetCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Type: viper.GetString("catalog.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("catalog.sqlite.path"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("catalog.postgres.host"),
			Port:     viper.GetString("catalog.postgres.port"),
			Username: viper.GetString("catalog.postgres.username"),
			Password: viper.GetString("catalog.postgres.password"),
			Database: viper.GetString("catalog.postgres.database"),
		},
	}
}

// GetInfluxConfig returns the InfluxDB exporter configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
