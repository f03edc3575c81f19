// Package mock provides a scripted speech engine for tests and dry runs.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/parley/tts"
)

// MockEngine implements tts.Synthesizer and tts.VoiceCatalog without a
// network. The audio for a request is the request text in brackets, so
// tests can read back what was spoken and in what order.
type MockEngine struct {
	mu sync.Mutex

	delay         time.Duration
	maxTextLength int
	voices        tts.VoiceMap

	// Control for testing
	shouldFail   bool
	failOn       int
	failureError error

	requests []tts.Request
}

// New creates a mock engine with a small voice catalog.
func New() *MockEngine {
	return &MockEngine{
		maxTextLength: 3000,
		voices: tts.VoiceMap{
			"en-US": {"Joanna", "Matthew"},
			"en-GB": {"Amy"},
			"es-ES": {"Lucia"},
		},
	}
}

// Name identifies the engine.
func (e *MockEngine) Name() string {
	return "mock"
}

// MaxTextLength returns the configured input limit.
func (e *MockEngine) MaxTextLength() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxTextLength
}

// Synthesize records req and returns its bracketed text.
func (e *MockEngine) Synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	call := len(e.requests)
	delay := e.delay
	fail := e.shouldFail || (e.failOn > 0 && call == e.failOn)
	err := e.failureError
	e.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if fail {
		return nil, err
	}
	return []byte("[" + req.Text + "]"), nil
}

// Voices returns the mock catalog.
func (e *MockEngine) Voices(ctx context.Context) (tts.VoiceMap, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shouldFail {
		return nil, e.failureError
	}
	m := make(tts.VoiceMap, len(e.voices))
	for lang, ids := range e.voices {
		for _, id := range ids {
			m.Add(lang, id)
		}
	}
	return m, nil
}

// Test control methods

// SetDelay sets a per-call latency.
func (e *MockEngine) SetDelay(delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = delay
}

// SetMaxTextLength changes the reported input limit.
func (e *MockEngine) SetMaxTextLength(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxTextLength = n
}

// SetVoices replaces the catalog.
func (e *MockEngine) SetVoices(voices tts.VoiceMap) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voices = voices
}

// SetFailure makes every call fail with err.
func (e *MockEngine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shouldFail = true
	e.failureError = err
}

// FailOn makes only the n-th Synthesize call (1-based) fail with err.
func (e *MockEngine) FailOn(n int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failOn = n
	e.failureError = err
}

// ClearFailure resets the engine to normal operation.
func (e *MockEngine) ClearFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shouldFail = false
	e.failOn = 0
	e.failureError = nil
}

// CallCount returns the number of Synthesize calls.
func (e *MockEngine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

// Requests returns a copy of every request received, in order.
func (e *MockEngine) Requests() []tts.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tts.Request(nil), e.requests...)
}

var (
	_ tts.Synthesizer  = (*MockEngine)(nil)
	_ tts.VoiceCatalog = (*MockEngine)(nil)
)
