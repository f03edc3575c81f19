package tts_test

import (
	"context"
	"slices"
	"testing"

	"github.com/dgnsrekt/parley/tts"
	"github.com/dgnsrekt/parley/tts/engines/mock"
)

// TestSynthesizerInterface verifies the mock satisfies both collaborators.
func TestSynthesizerInterface(t *testing.T) {
	var _ tts.Synthesizer = mock.New()
	var _ tts.VoiceCatalog = mock.New()
}

func TestBind(t *testing.T) {
	engine := mock.New()
	synth := tts.Bind(engine, "Lucia", "es-ES", "ogg_vorbis")

	audio, err := synth(context.Background(), "Hola")
	if err != nil {
		t.Fatalf("Bound synthesize failed: %v", err)
	}
	if string(audio) != "[Hola]" {
		t.Errorf("Unexpected audio %q", audio)
	}

	reqs := engine.Requests()
	if len(reqs) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(reqs))
	}
	want := tts.Request{Text: "Hola", VoiceID: "Lucia", LanguageCode: "es-ES", OutputFormat: "ogg_vorbis"}
	if reqs[0] != want {
		t.Errorf("Request = %+v, want %+v", reqs[0], want)
	}
}

func TestVoiceMap(t *testing.T) {
	m := tts.VoiceMap{}
	m.Add("es-MX", "Mia")
	m.Add("en-US", "Joanna")
	m.Add("en-US", "Matthew")
	m.Add("en-US", "Joanna")

	if got := m["en-US"]; !slices.Equal(got, []string{"Joanna", "Matthew"}) {
		t.Errorf("Voices = %v, duplicates must be dropped in order", got)
	}
	if got := m.Languages(); !slices.Equal(got, []string{"en-US", "es-MX"}) {
		t.Errorf("Languages = %v, want sorted", got)
	}
	if !m.Has("es-MX", "Mia") || m.Has("es-MX", "Joanna") {
		t.Error("Has reports the wrong membership")
	}
}
