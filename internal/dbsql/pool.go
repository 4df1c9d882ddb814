package dbsql

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/config"
)

// Pool caches clients per (host, token, warehouse_id) tuple. Two
// sessions resolving to the same tuple share one HTTP client and its
// connection pool; sessions with different tuples never share anything.
type Pool struct {
	mu      sync.Mutex
	clients map[string]*Client

	config   *config.Config
	logger   *zap.Logger
	version  string
	recorder StatementRecorder
}

// NewPool creates an empty client pool. The recorder, when non-nil, is
// shared by every client the pool creates.
func NewPool(cfg *config.Config, logger *zap.Logger, recorder StatementRecorder, version string) *Pool {
	return &Pool{
		clients:  make(map[string]*Client),
		config:   cfg,
		logger:   logger,
		version:  version,
		recorder: recorder,
	}
}

// Get returns the client for a connection tuple, creating it on first
// use. The pool key hashes the token so raw credential values never sit
// in map keys.
func (p *Pool) Get(host, token, warehouseID string) (*Client, error) {
	key := poolKey(host, token, warehouseID)

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[key]; ok {
		return c, nil
	}

	c, err := New(p.config, p.logger, p.recorder, host, token, warehouseID, p.version)
	if err != nil {
		return nil, err
	}
	p.clients[key] = c

	p.logger.Debug("Created SQL warehouse client",
		zap.String("host", host),
		zap.String("warehouse_id", warehouseID),
	)
	return c, nil
}

// Close closes every pooled client
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, c := range p.clients {
		if err := c.Close(); err != nil {
			p.logger.Warn("Failed to close client", zap.Error(err))
		}
		delete(p.clients, key)
	}
	return nil
}

// Len returns the number of pooled clients
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.clients)
}

func poolKey(host, token, warehouseID string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%s|%x|%s", host, sum[:8], warehouseID)
}
