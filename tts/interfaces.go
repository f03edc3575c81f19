// Package tts defines the speech side of parley: the synthesis and voice
// catalog collaborators, the errors they surface and their configuration.
package tts

import (
	"context"
	"sort"
)

// Synthesizer converts a bounded piece of text to encoded audio.
type Synthesizer interface {
	// Synthesize returns the audio for req. Implementations must not retry;
	// the caller decides what a failure means for the rest of the request.
	Synthesize(ctx context.Context, req Request) ([]byte, error)

	// Name identifies the engine in logs and cache keys.
	Name() string

	// MaxTextLength is the largest input, in characters, a single call accepts.
	MaxTextLength() int
}

// VoiceCatalog lists the voices a synthesis service offers.
type VoiceCatalog interface {
	Voices(ctx context.Context) (VoiceMap, error)
}

// Request describes a single synthesis call.
type Request struct {
	Text         string // Text to speak, at most MaxTextLength characters
	VoiceID      string // Engine voice identifier (e.g. "Joanna")
	LanguageCode string // BCP-47 style language code (e.g. "en-US")
	OutputFormat string // Encoded output format (e.g. "mp3")
}

// SynthesizeFunc adapts a synthesizer call with fixed voice settings to a
// function of the text piece alone.
type SynthesizeFunc func(ctx context.Context, piece string) ([]byte, error)

// Bind fixes voice, language and format for s and returns a SynthesizeFunc.
func Bind(s Synthesizer, voiceID, languageCode, outputFormat string) SynthesizeFunc {
	return func(ctx context.Context, piece string) ([]byte, error) {
		return s.Synthesize(ctx, Request{
			Text:         piece,
			VoiceID:      voiceID,
			LanguageCode: languageCode,
			OutputFormat: outputFormat,
		})
	}
}

// Voice represents a synthesis voice.
type Voice struct {
	ID       string // Voice identifier
	Name     string // Human-readable name
	Language string // Language code (e.g., "en-US")
	Gender   string // Voice gender
}

// VoiceMap maps a language code to the ordered set of voice ids available
// for it.
type VoiceMap map[string][]string

// Add appends id to the voices of language unless it is already present.
func (m VoiceMap) Add(language, id string) {
	for _, v := range m[language] {
		if v == id {
			return
		}
	}
	m[language] = append(m[language], id)
}

// Languages returns the language codes in the map, sorted.
func (m VoiceMap) Languages() []string {
	langs := make([]string, 0, len(m))
	for l := range m {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Has reports whether id is a voice of language.
func (m VoiceMap) Has(language, id string) bool {
	for _, v := range m[language] {
		if v == id {
			return true
		}
	}
	return false
}
