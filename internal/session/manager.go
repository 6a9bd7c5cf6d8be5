package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultTabTTL mirrors the service's retention window: a resume is
// deleted ten minutes after its last use.
const DefaultTabTTL = 10 * time.Minute

// DefaultCleanupInterval is how often expired tabs are purged.
const DefaultCleanupInterval = time.Minute

// Manager holds one Controller per browser tab. Idle tabs expire after the
// TTL; an expired tab's in-flight requests are aborted.
type Manager struct {
	tabs     *cache.Cache
	reviewer Reviewer
	logger   *zap.Logger
}

// NewManager creates a tab registry. Non-positive durations use defaults.
func NewManager(reviewer Reviewer, ttl, cleanupInterval time.Duration, logger *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTabTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		tabs:     cache.New(ttl, cleanupInterval),
		reviewer: reviewer,
		logger:   logger,
	}
	m.tabs.OnEvicted(func(id string, v interface{}) {
		ctrl := v.(*Controller)
		ctrl.Close()
		m.logger.Info("tab released",
			zap.String("tab", shortID(id)),
			zap.Duration("idle", time.Since(ctrl.idleSince()).Round(time.Second)))
	})
	return m
}

// Create registers a new tab with a fresh identifier.
func (m *Manager) Create() *Controller {
	id := uuid.New().String()
	ctrl := NewController(id, m.reviewer, m.logger)
	m.tabs.Set(id, ctrl, cache.DefaultExpiration)
	m.logger.Info("tab created", zap.String("tab", shortID(id)))
	return ctrl
}

// Get returns the tab's controller and extends its lifetime.
func (m *Manager) Get(id string) (*Controller, bool) {
	if id == "" {
		return nil, false
	}
	v, found := m.tabs.Get(id)
	if !found {
		return nil, false
	}
	ctrl := v.(*Controller)
	m.tabs.Set(id, ctrl, cache.DefaultExpiration)
	return ctrl, true
}

// GetOrCreate returns the tab's controller, creating a new tab when id is
// unknown or expired. The boolean reports whether a tab was created.
func (m *Manager) GetOrCreate(id string) (*Controller, bool) {
	if ctrl, ok := m.Get(id); ok {
		return ctrl, false
	}
	return m.Create(), true
}

// Delete releases a tab immediately.
func (m *Manager) Delete(id string) {
	m.tabs.Delete(id)
}

// Count returns the number of live tabs, expired ones included until purged.
func (m *Manager) Count() int {
	return m.tabs.ItemCount()
}

// Close releases every tab.
func (m *Manager) Close() {
	for id := range m.tabs.Items() {
		m.tabs.Delete(id)
	}
}
