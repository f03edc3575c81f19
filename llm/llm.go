// Package llm builds Bedrock request bodies and decodes response chunks for
// the model families parley knows how to talk to.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Stream is a pull iterator over generated text fragments. Next blocks
// until the backend delivers the next fragment and returns io.EOF once the
// generation is complete.
type Stream interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// Generator starts a generation for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Stream, error)
}

// Params are the inference parameters shared by every family. A zero
// MaxTokens leaves the limit to the model where the family allows it.
type Params struct {
	MaxTokens     int
	Temperature   float64
	TopP          float64
	StopSequences []string

	// Stream marks the body for InvokeModelWithResponseStream. Only
	// families that need an explicit flag look at it.
	Stream bool
}

// Error types.
var (
	// ErrUnsupportedModelFamily is matched by every UnsupportedModelFamilyError.
	ErrUnsupportedModelFamily = errors.New("unsupported model family")

	// ErrMalformedChunk indicates a response chunk that is not valid JSON.
	ErrMalformedChunk = errors.New("malformed response chunk")
)

// UnsupportedModelFamilyError reports a model id whose provider prefix has
// no request builder.
type UnsupportedModelFamilyError struct {
	ModelID string
	Family  string
}

func (e *UnsupportedModelFamilyError) Error() string {
	return fmt.Sprintf("unsupported model family %q (model %s)", e.Family, e.ModelID)
}

func (e *UnsupportedModelFamilyError) Is(target error) bool {
	return target == ErrUnsupportedModelFamily
}

// Collect drains s and returns the concatenated fragments. The stream is
// closed before returning.
func Collect(ctx context.Context, s Stream) (string, error) {
	defer s.Close()

	var sb strings.Builder
	for {
		fragment, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(fragment)
	}
}
