package catalog

import (
	"context"
	"sync"

	"pos-catalog-browser/internal/domain"

	"go.uber.org/zap"
)

// Catalog holds the single product snapshot shared by the grid and the sale workflow.
// Every successful load replaces the snapshot wholesale; a failed load only sets the error flag.
type Catalog struct {
	loader Loader
	logger *zap.Logger

	mu       sync.RWMutex
	products []domain.Product
	err      error
	loaded   bool
	version  uint64
}

// New creates an empty Catalog backed by loader.
func New(loader Loader, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{loader: loader, logger: logger}
}

// Reload fetches a new snapshot. On failure the previous snapshot is kept but Err reports
// the failure until the next successful load. The error is returned for logging only.
func (c *Catalog) Reload(ctx context.Context) error {
	products, err := c.loader.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = err
		c.logger.Warn("catalog reload failed", zap.Error(err))
		return err
	}
	c.products = products
	c.err = nil
	c.loaded = true
	c.version++
	c.logger.Info("catalog reloaded", zap.Int("products", len(products)), zap.Uint64("version", c.version))
	return nil
}

// Products returns a copy of the current snapshot, in the order the API returned it.
func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out
}

// Find looks a product up by id with a linear scan and returns a value copy.
func (c *Catalog) Find(id int64) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return domain.Product{}, false
}

// Err is the failure of the most recent load, nil after a successful one.
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Loaded reports whether any load has succeeded yet.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Version increases with every successful reload.
func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}
