// Package engines holds the speech synthesis backends and the wrappers
// that compose them.
package engines

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/parley/internal/cache"
	"github.com/dgnsrekt/parley/tts"
)

// Store is the part of a cache the Cached wrapper needs.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// Cached serves repeated requests from a Store and only forwards misses to
// the wrapped synthesizer. Failed syntheses are never stored.
type Cached struct {
	inner  tts.Synthesizer
	store  Store
	logger *log.Logger
}

// NewCached wraps inner with store.
func NewCached(inner tts.Synthesizer, store Store, logger *log.Logger) *Cached {
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{inner: inner, store: store, logger: logger}
}

// Name returns the wrapped engine's name, so cache keys and logs stay the
// same with or without the cache.
func (c *Cached) Name() string {
	return c.inner.Name()
}

// MaxTextLength returns the wrapped engine's limit.
func (c *Cached) MaxTextLength() int {
	return c.inner.MaxTextLength()
}

// Synthesize returns cached audio for req when present.
func (c *Cached) Synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	key := cache.Key(c.inner.Name(), req.VoiceID, req.LanguageCode, req.OutputFormat, req.Text)

	if audio, ok := c.store.Get(key); ok {
		c.logger.Debug("Audio cache hit", "voice", req.VoiceID, "bytes", len(audio))
		return audio, nil
	}

	audio, err := c.inner.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.store.Put(key, audio); err != nil {
		c.logger.Warn("Failed to cache audio", "error", err)
	}
	return audio, nil
}

var _ tts.Synthesizer = (*Cached)(nil)
