package tts

import (
	"errors"
	"fmt"
)

// Common errors for the speech side.
var (
	// Synthesis errors
	ErrSynthesisFailed  = errors.New("speech synthesis failed")
	ErrEmptyText        = errors.New("empty text provided")
	ErrInvalidMaxLength = errors.New("maximum piece length must be positive")
	ErrTextTooLong      = errors.New("text exceeds engine input limit")

	// Voice errors
	ErrVoiceNotFound = errors.New("requested voice not found")
	ErrNoVoices      = errors.New("no voices available for language")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// SynthesisError reports which piece of a longer text failed to
// synthesize. It matches ErrSynthesisFailed and the underlying cause with
// errors.Is.
type SynthesisError struct {
	Engine string // Engine that produced the error
	Piece  int    // Zero-based index of the failing piece
	Pieces int    // Total number of pieces in the request
	Err    error  // The underlying error
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: piece %d/%d", ErrSynthesisFailed, e.Piece+1, e.Pieces)
	}
	return fmt.Sprintf("%s: piece %d/%d: %v", ErrSynthesisFailed, e.Piece+1, e.Pieces, e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *SynthesisError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSynthesisFailed}
	}
	return []error{ErrSynthesisFailed, e.Err}
}

// Written returns the number of pieces that were fully synthesized before
// the failure.
func (e *SynthesisError) Written() int {
	return e.Piece
}
