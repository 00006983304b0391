package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/compass/internal/config"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
)

// ErrDisabled is returned by Connect when influx.enabled is false
var ErrDisabled = errors.New("influx export disabled")

// Manager writes tick statistics to one InfluxDB bucket, or to a gzipped
// line protocol backup file while the server is unreachable.
type Manager struct {
	cfg        config.InfluxConfig
	logger     *slog.Logger
	backupPath string

	mu           sync.Mutex
	client       influxdb2.Client
	writer       influxdb2_api.WriteAPI
	backupFile   *os.File
	backupWriter *gzip.Writer
	valid        bool
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, logger *slog.Logger, backupPath string) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:        cfg,
		logger:     logger.With("component", "influx"),
		backupPath: backupPath,
	}
}

// URL returns the server address built from the config
func (m *Manager) URL() string {
	return fmt.Sprintf("%s://%s:%s", m.cfg.Protocol, m.cfg.Host, m.cfg.Port)
}

// Connect establishes a connection to InfluxDB. When the server does not
// answer, points go to the backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.client = influxdb2.NewClientWithOptions(m.URL(), m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := m.client.Ping(ctx)
	if err != nil || !running {
		m.valid = false
		m.logger.Warn("InfluxDB unreachable, writing to backup file", "url", m.URL(), "backupPath", m.backupPath, "error", err)
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.writer = m.client.WriteAPI(m.cfg.Org, m.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.logger.Error("Error sending data to InfluxDB", "bucket", m.cfg.Bucket, "error", writeErr)
		}
	}(m.writer.Errors())

	m.valid = true
	m.logger.Info("InfluxDB client initialized", "url", m.URL(), "bucket", m.cfg.Bucket)
	return nil
}

func (m *Manager) openBackup() error {
	if m.backupWriter != nil {
		return nil
	}
	if m.backupPath == "" {
		return fmt.Errorf("influxDB unreachable and no backup path configured")
	}
	file, err := os.OpenFile(m.backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.backupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.logger.Info("Organization not found, creating", "org", m.cfg.Org)
		org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			return fmt.Errorf("error creating organization %s: %w", m.cfg.Org, err)
		}
	}

	if _, err = m.client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err == nil {
		return nil
	}
	m.logger.Info("Bucket not found, creating", "bucket", m.cfg.Bucket)

	// tick statistics are kept for 30 days
	rule := domain.RetentionRuleTypeExpire
	_, err = m.client.BucketsAPI().CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: 60 * 60 * 24 * 30,
	})
	if err != nil {
		return fmt.Errorf("error creating bucket %s: %w", m.cfg.Bucket, err)
	}
	return nil
}

// Valid reports whether points go to the server
func (m *Manager) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.valid
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid {
		m.writer.WritePoint(point)
		return nil
	}
	if m.backupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}

	// the encoded line already ends with a newline
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.backupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending points and releases the client and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writer != nil {
		m.writer.Flush()
	}
	if m.client != nil {
		m.client.Close()
	}
	var errs []error
	if m.backupWriter != nil {
		errs = append(errs, m.backupWriter.Close())
		errs = append(errs, m.backupFile.Close())
		m.backupWriter = nil
	}
	m.valid = false
	return errors.Join(errs...)
}
