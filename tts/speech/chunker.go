// Package speech splits long text into pieces a synthesis engine accepts and
// synthesizes them in order.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/parley/tts"
)

// Split breaks text into pieces of at most maxLen characters, cutting only
// at whitespace. Runs of whitespace collapse to a single space. A word
// longer than maxLen is kept whole as its own piece.
func Split(text string, maxLen int) ([]string, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("%w: got %d", tts.ErrInvalidMaxLength, maxLen)
	}

	var (
		pieces  []string
		current strings.Builder
		length  int
	)
	for _, word := range strings.Fields(text) {
		n := utf8.RuneCountInString(word)
		if length > 0 && length+1+n > maxLen {
			pieces = append(pieces, current.String())
			current.Reset()
			length = 0
		}
		if length > 0 {
			current.WriteByte(' ')
			length++
		}
		current.WriteString(word)
		length += n
	}
	if length > 0 {
		pieces = append(pieces, current.String())
	}

	return pieces, nil
}

// Chunker synthesizes text of any length through a length-bounded
// synthesis call.
type Chunker struct {
	MaxLen     int
	Synthesize tts.SynthesizeFunc
	Logger     *log.Logger
}

// New returns a Chunker for synth with the given piece length.
func New(maxLen int, synth tts.SynthesizeFunc) *Chunker {
	return &Chunker{MaxLen: maxLen, Synthesize: synth}
}

// WriteTo splits text and synthesizes the pieces one after another,
// writing each result to w before the next call starts. The first failure
// stops the run with a *tts.SynthesisError; audio already written to w
// stays there.
func (c *Chunker) WriteTo(ctx context.Context, w io.Writer, text string) (int64, error) {
	pieces, err := Split(text, c.MaxLen)
	if err != nil {
		return 0, err
	}

	logger := c.Logger
	if logger == nil {
		logger = log.Default()
	}

	var written int64
	for i, piece := range pieces {
		if err := ctx.Err(); err != nil {
			return written, &tts.SynthesisError{Piece: i, Pieces: len(pieces), Err: err}
		}

		audio, err := c.Synthesize(ctx, piece)
		if err != nil {
			logger.Error("Synthesis failed", "piece", i+1, "pieces", len(pieces), "error", err)
			return written, &tts.SynthesisError{Piece: i, Pieces: len(pieces), Err: err}
		}

		n, err := w.Write(audio)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("writing audio for piece %d/%d: %w", i+1, len(pieces), err)
		}
		logger.Debug("Piece synthesized", "piece", i+1, "pieces", len(pieces), "chars", utf8.RuneCountInString(piece), "bytes", n)
	}

	return written, nil
}

// Synthesize writes the audio for text to w. See Chunker.WriteTo.
func Synthesize(ctx context.Context, w io.Writer, text string, maxLen int, synth tts.SynthesizeFunc) (int64, error) {
	return New(maxLen, synth).WriteTo(ctx, w, text)
}

// SynthesizeBytes returns the concatenated audio for text. On failure the
// audio of the pieces that did succeed is returned with the error.
func SynthesizeBytes(ctx context.Context, text string, maxLen int, synth tts.SynthesizeFunc) ([]byte, error) {
	var buf bytes.Buffer
	_, err := Synthesize(ctx, &buf, text, maxLen, synth)
	return buf.Bytes(), err
}
