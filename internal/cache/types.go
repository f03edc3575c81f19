package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when a stored item cannot be decoded
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level identifies a cache tier.
type Level int

const (
	// LevelMemory is the in-memory tier.
	LevelMemory Level = iota

	// LevelDisk is the persistent tier.
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "L1-Memory"
	case LevelDisk:
		return "L2-Disk"
	default:
		return "Unknown"
	}
}

// Stats holds counters for one tier.
type Stats struct {
	Capacity  int64 // Maximum size in bytes
	Size      int64 // Current size in bytes
	Items     int64 // Number of stored items
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Config configures a Manager.
type Config struct {
	MemoryCapacity   int64  // L1 bytes
	DiskCapacity     int64  // L2 bytes, measured after compression
	Dir              string // L2 directory
	CompressionLevel int    // zstd level, 0 stores items uncompressed

	// TTL drops disk entries older than this when the cache opens. Zero
	// keeps everything.
	TTL time.Duration
}

// Cache is the contract shared by both tiers.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Contains(key string) bool
	Size() int64
	Stats() Stats
}

// Key derives the cache key of a synthesized piece. Every field that
// changes the audio takes part in the key.
func Key(engine, voice, language, format, text string) string {
	h := sha256.New()
	for _, part := range []string{engine, voice, strings.ToLower(language), strings.ToLower(format)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
