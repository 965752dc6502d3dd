package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/catalog"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
)

// CatalogReloader handles periodic reloading of the service catalog
type CatalogReloader struct {
	loader        *catalog.Loader
	catalog       *catalog.Catalog
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewCatalogReloader creates a new catalog reloader. A non-positive interval
// disables the periodic reload; manual triggers still work.
func NewCatalogReloader(
	catalogFile string,
	cat *catalog.Catalog,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *CatalogReloader {
	return &CatalogReloader{
		loader:        catalog.NewLoader(catalogFile),
		catalog:       cat,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the catalog and begins the periodic reload process
func (cr *CatalogReloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := cr.Reload(); err != nil {
		return fmt.Errorf("initial catalog reload failed: %w", err)
	}

	tick, stopTicker := tickerChan(cr.interval)
	go func() {
		defer stopTicker()
		for {
			select {
			case <-tick:
				if err := cr.Reload(); err != nil {
					cr.logger.Error("failed to reload catalog",
						logger.Error(err))
				}
			case <-cr.manualTrigger:
				cr.logger.Info("manual catalog reload triggered")
				if err := cr.Reload(); err != nil {
					cr.logger.Error("failed to reload catalog",
						logger.Error(err))
				}
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (cr *CatalogReloader) Stop() {
	close(cr.stopCh)
}

// Reload reads the catalog file and swaps the in-memory catalog. A file that
// fails to load or validate leaves the previous catalog in place.
func (cr *CatalogReloader) Reload() error {
	cr.logger.Debug("reloading catalog", logger.String("file", cr.loader.Path()))

	file, err := cr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	snapshot, err := catalog.Map(file)
	if err != nil {
		return fmt.Errorf("failed to map catalog: %w", err)
	}

	cr.catalog.Replace(snapshot)

	cr.logger.Info("catalog loaded",
		logger.Int("services", len(snapshot.Services)),
		logger.Int("addons", len(snapshot.Addons)),
		logger.Int("employees", len(snapshot.Employees)))

	return nil
}

// tickerChan returns a ticker channel for interval, or a nil channel that
// never fires when interval is not positive.
func tickerChan(interval time.Duration) (<-chan time.Time, func()) {
	if interval <= 0 {
		return nil, func() {}
	}
	ticker := time.NewTicker(interval)
	return ticker.C, ticker.Stop
}
