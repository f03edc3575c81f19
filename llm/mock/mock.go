// Package mock provides a scripted text generator for tests and dry runs.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/dgnsrekt/parley/llm"
)

// Generator replays a fixed list of fragments for every prompt.
type Generator struct {
	mu sync.Mutex

	fragments []string
	err       error // returned by Generate
	streamErr error // returned by Next after the fragments

	prompts []string
}

// New returns a generator that streams fragments.
func New(fragments ...string) *Generator {
	return &Generator{fragments: fragments}
}

// Generate records prompt and returns a stream over the scripted fragments.
func (g *Generator) Generate(ctx context.Context, prompt string) (llm.Stream, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return nil, g.err
	}
	return &Stream{fragments: append([]string(nil), g.fragments...), err: g.streamErr}, nil
}

// SetFailure makes Generate fail with err.
func (g *Generator) SetFailure(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// SetStreamFailure makes the stream fail with err once the fragments are
// delivered.
func (g *Generator) SetStreamFailure(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.streamErr = err
}

// Prompts returns every prompt received.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// Stream is a scripted llm.Stream.
type Stream struct {
	fragments []string
	err       error
	pulled    int
	closed    bool
}

// Next returns the next fragment, then the scripted error or io.EOF.
func (s *Stream) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.pulled == len(s.fragments) {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	f := s.fragments[s.pulled]
	s.pulled++
	return f, nil
}

// Close marks the stream closed.
func (s *Stream) Close() error {
	s.closed = true
	return nil
}

var _ llm.Generator = (*Generator)(nil)
