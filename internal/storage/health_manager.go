package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
	HealthStatusUnknown   = "unknown"

	defaultHealthInterval = 30 * time.Second
	healthCheckTimeout    = 5 * time.Second
)

// Health is the last observed state of the session store
type Health struct {
	Backend   string    `json:"backend"`
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// HealthManager periodically pings a store and keeps the result in memory
type HealthManager struct {
	mu       sync.RWMutex
	store    Store
	interval time.Duration
	health   Health
	logger   *zap.SugaredLogger
}

// NewHealthManager creates a health manager for store. A non-positive interval uses the default.
func NewHealthManager(store Store, interval time.Duration, logger *zap.SugaredLogger) *HealthManager {
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	return &HealthManager{
		store:    store,
		interval: interval,
		logger:   logger,
		health:   Health{Backend: store.Backend(), Status: HealthStatusUnknown},
	}
}

// Check pings the store once and records the outcome
func (hm *HealthManager) Check(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	h := Health{Backend: hm.store.Backend(), LastCheck: time.Now()}
	if err := hm.store.Ping(ctx); err != nil {
		h.Status = HealthStatusUnhealthy
		h.Message = "store ping failed"
		h.Error = err.Error()
	} else {
		h.Status = HealthStatusHealthy
		h.Message = "store reachable"
	}

	hm.mu.Lock()
	prev := hm.health.Status
	hm.health = h
	hm.mu.Unlock()

	if prev != h.Status {
		if h.Status == HealthStatusHealthy {
			hm.logger.Infof("%s store is healthy", h.Backend)
		} else {
			hm.logger.Warnf("%s store is unhealthy: %s", h.Backend, h.Error)
		}
	}
	return h
}

// Start runs an immediate check and then one per interval until ctx is cancelled
func (hm *HealthManager) Start(ctx context.Context, wg *sync.WaitGroup) {
	hm.Check(ctx)

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(hm.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				hm.Check(ctx)
			}
		}
	}()
}

// Current returns a copy of the last recorded health
func (hm *HealthManager) Current() Health {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return hm.health
}

// IsHealthy reports whether the last check passed and is no older than maxAge
func (hm *HealthManager) IsHealthy(maxAge time.Duration) bool {
	h := hm.Current()
	if h.Status != HealthStatusHealthy {
		return false
	}
	return time.Since(h.LastCheck) <= maxAge
}
