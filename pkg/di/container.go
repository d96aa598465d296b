// Package di holds the collaborators shared by the stash commands
package di

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ssargent/stash/pkg/codec"
	"github.com/ssargent/stash/pkg/config"
	"github.com/ssargent/stash/pkg/journal"
	"github.com/ssargent/stash/pkg/logging"
	"github.com/ssargent/stash/pkg/metrics"
	"github.com/ssargent/stash/pkg/ring"
	"github.com/ssargent/stash/pkg/store"
	"github.com/ssargent/stash/pkg/wellknown"
)

// Container builds each dependency on first use and keeps it until Close
type Container struct {
	config *config.Config
	output io.Writer

	mutex    sync.Mutex
	logger   *slog.Logger
	metrics  *prometheus.Registry
	recorder *metrics.Journal
	registry *codec.Registry
	ring     *journal.Schema[ring.Accumulator]
	store    store.Store
}

// NewContainer creates a container for cfg. Logs go to stderr.
func NewContainer(cfg *config.Config) *Container {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Container{config: cfg, output: os.Stderr}
}

// Config returns the configuration the container was built from
func (c *Container) Config() *config.Config {
	return c.config
}

// SetLogOutput redirects logging; it must be called before the first Logger call
func (c *Container) SetLogOutput(w io.Writer) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.output = w
}

// Logger returns the configured logger
func (c *Container) Logger() *slog.Logger {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.loggerLocked()
}

func (c *Container) loggerLocked() *slog.Logger {
	if c.logger == nil {
		cfg := c.config.LoggingConfig()
		cfg.Output = c.output
		c.logger = logging.New(cfg)
	}
	return c.logger
}

// Metrics returns the process registry, with the Go runtime collectors registered
func (c *Container) Metrics() *prometheus.Registry {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.metricsLocked()
}

func (c *Container) metricsLocked() *prometheus.Registry {
	if c.metrics == nil {
		c.metrics = prometheus.NewRegistry()
		c.metrics.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c.metrics
}

// Recorder returns the journal recorder registered on Metrics
func (c *Container) Recorder() *metrics.Journal {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.recorder == nil {
		c.recorder = metrics.NewJournal(c.metricsLocked())
	}
	return c.recorder
}

// Registry returns the codec registry with the wellknown plugins
func (c *Container) Registry() *codec.Registry {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.registryLocked()
}

func (c *Container) registryLocked() *codec.Registry {
	if c.registry == nil {
		c.registry = codec.NewRegistry(codec.RegistryConfig{
			Plugins: wellknown.Codecs(),
			Logger:  c.loggerLocked(),
		})
	}
	return c.registry
}

// RingSchema returns the compiled ring schema
func (c *Container) RingSchema() (*journal.Schema[ring.Accumulator], error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.ring == nil {
		cfg := journal.DefaultSchemaConfig()
		cfg.Verify = c.config.Journal.Verify
		cfg.Registry = c.registryLocked()
		cfg.Logger = c.loggerLocked()
		schema, err := ring.Compile(cfg)
		if err != nil {
			return nil, err
		}
		c.ring = schema
	}
	return c.ring, nil
}

// JournalConfig returns the runtime collaborators for opening a journal
func (c *Container) JournalConfig() journal.Config {
	return journal.Config{
		Logger:  c.Logger(),
		Metrics: c.Recorder(),
	}
}

// Store opens the configured snapshot store
func (c *Container) Store() (store.Store, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.store == nil {
		sc := c.config.StoreConfig()
		sc.Logger = c.loggerLocked()
		st, err := store.Open(sc)
		if err != nil {
			return nil, err
		}
		c.store = st
	}
	return c.store, nil
}

// SetStore replaces the snapshot store (for testing)
func (c *Container) SetStore(st store.Store) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.store = st
}

// Close releases the store
func (c *Container) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}
