package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager stacks the memory tier on top of the disk tier. Reads check L1
// then L2 and promote L2 hits; writes go to both tiers. It is safe for
// concurrent use.
type Manager struct {
	l1     *MemoryCache
	l2     *DiskCache
	logger *log.Logger

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates both tiers.
type ManagerStats struct {
	L1Hits     int64
	L2Hits     int64
	Misses     int64
	Promotions int64

	Memory Stats
	Disk   Stats
}

// HitRate returns the share of lookups served by either tier.
func (s ManagerStats) HitRate() float64 {
	total := s.L1Hits + s.L2Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.L1Hits+s.L2Hits) / float64(total)
}

// NewManager opens the disk tier in cfg.Dir and creates the memory tier.
func NewManager(cfg Config, logger *log.Logger) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if logger == nil {
		logger = log.Default()
	}

	l2, err := NewDiskCache(cfg.Dir, cfg.DiskCapacity, cfg.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}

	if cfg.TTL > 0 {
		if removed := l2.RemoveOlderThan(time.Now().Add(-cfg.TTL)); removed > 0 {
			logger.Debug("Expired cached audio", "removed", removed)
		}
	}

	return &Manager{
		l1:     NewMemoryCache(cfg.MemoryCapacity),
		l2:     l2,
		logger: logger,
	}, nil
}

// Get looks key up in L1, then L2. An L2 hit is copied into L1.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.l1.Get(key); ok {
		m.count(func(s *ManagerStats) { s.L1Hits++ })
		return data, true
	}

	if data, ok := m.l2.Get(key); ok {
		m.count(func(s *ManagerStats) { s.L2Hits++ })
		if err := m.l1.Put(key, data); err == nil {
			m.count(func(s *ManagerStats) { s.Promotions++ })
		}
		return data, true
	}

	m.count(func(s *ManagerStats) { s.Misses++ })
	return nil, false
}

// Put stores value in both tiers. An item too large for one tier is
// still stored in the other; only disk write failures are returned.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.l1.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		return fmt.Errorf("L1 cache error: %w", err)
	}

	if err := m.l2.Put(key, value); err != nil {
		if errors.Is(err, ErrItemTooLarge) {
			m.logger.Debug("Audio too large for disk cache", "bytes", len(value))
			return nil
		}
		return fmt.Errorf("L2 cache error: %w", err)
	}
	return nil
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) error {
	return errors.Join(m.l1.Delete(key), m.l2.Delete(key))
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	return errors.Join(m.l1.Clear(), m.l2.Clear())
}

// Contains reports whether either tier holds key.
func (m *Manager) Contains(key string) bool {
	return m.l1.Contains(key) || m.l2.Contains(key)
}

// Stats returns a snapshot of both tiers and the lookup counters.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	s := m.stats
	m.mu.Unlock()

	s.Memory = m.l1.Stats()
	s.Disk = m.l2.Stats()
	return s
}

// Close persists the disk index.
func (m *Manager) Close() error {
	if err := m.l2.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}

func (m *Manager) count(f func(*ManagerStats)) {
	m.mu.Lock()
	f(&m.stats)
	m.mu.Unlock()
}
