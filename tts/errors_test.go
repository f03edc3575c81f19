package tts

import (
	"errors"
	"strings"
	"testing"
)

// TestErrorDefinitions tests that all error variables are properly defined.
func TestErrorDefinitions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrSynthesisFailed", ErrSynthesisFailed, "speech synthesis failed"},
		{"ErrEmptyText", ErrEmptyText, "empty text provided"},
		{"ErrInvalidMaxLength", ErrInvalidMaxLength, "maximum piece length must be positive"},
		{"ErrTextTooLong", ErrTextTooLong, "text exceeds engine input limit"},
		{"ErrVoiceNotFound", ErrVoiceNotFound, "requested voice not found"},
		{"ErrNoVoices", ErrNoVoices, "no voices available for language"},
		{"ErrInvalidConfig", ErrInvalidConfig, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("%s message = %q, want %q", tt.name, tt.err.Error(), tt.msg)
			}
		})
	}
}

func TestSynthesisError(t *testing.T) {
	cause := errors.New("ThrottlingException: rate exceeded")

	tests := []struct {
		name     string
		err      *SynthesisError
		contains []string
		isCause  bool
	}{
		{
			name:     "with cause",
			err:      &SynthesisError{Engine: "polly/neural", Piece: 1, Pieces: 3, Err: cause},
			contains: []string{"speech synthesis failed", "piece 2/3", "rate exceeded"},
			isCause:  true,
		},
		{
			name:     "without cause",
			err:      &SynthesisError{Piece: 0, Pieces: 1},
			contains: []string{"speech synthesis failed", "piece 1/1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error %q does not contain %q", msg, want)
				}
			}

			if !errors.Is(tt.err, ErrSynthesisFailed) {
				t.Error("SynthesisError should match ErrSynthesisFailed")
			}
			if got := errors.Is(tt.err, cause); got != tt.isCause {
				t.Errorf("errors.Is(cause) = %v, want %v", got, tt.isCause)
			}
			if tt.err.Written() != tt.err.Piece {
				t.Errorf("Written = %d, want %d", tt.err.Written(), tt.err.Piece)
			}
		})
	}
}

func TestSynthesisErrorAs(t *testing.T) {
	var err error = &SynthesisError{Piece: 2, Pieces: 4, Err: ErrTextTooLong}

	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatal("errors.As should find *SynthesisError")
	}
	if synthErr.Pieces != 4 {
		t.Errorf("Pieces = %d, want 4", synthErr.Pieces)
	}
	if !errors.Is(err, ErrTextTooLong) {
		t.Error("Cause sentinel should be reachable")
	}
}
