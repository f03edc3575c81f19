package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	llmmock "github.com/dgnsrekt/parley/llm/mock"
	"github.com/dgnsrekt/parley/tts"
	"github.com/dgnsrekt/parley/tts/engines/mock"
)

// fakeTranslator prefixes text with the target code.
type fakeTranslator struct {
	calls [][3]string
	err   error
}

func (f *fakeTranslator) Translate(_ context.Context, text, source, target string) (string, error) {
	f.calls = append(f.calls, [3]string{text, source, target})
	if f.err != nil {
		return "", f.err
	}
	return target + ":" + text, nil
}

type fixture struct {
	dir        string
	translator *fakeTranslator
	generator  *llmmock.Generator
	engine     *mock.MockEngine
	pipeline   *Pipeline
	events     []Event
}

func newFixture(t *testing.T, streamSpeech bool, fragments ...string) *fixture {
	t.Helper()
	f := &fixture{
		dir:        t.TempDir(),
		translator: &fakeTranslator{},
		generator:  llmmock.New(fragments...),
		engine:     mock.New(),
	}
	f.pipeline = New(f.translator, f.generator, f.engine, Config{
		OutputDir:    f.dir,
		Extension:    "mp3",
		StreamSpeech: streamSpeech,
	})
	f.pipeline.OnProgress(func(e Event) { f.events = append(f.events, e) })
	return f
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		t.Fatalf("Reading %s: %v", name, err)
	}
	return string(data)
}

func (f *fixture) stages() []Stage {
	var stages []Stage
	for _, e := range f.events {
		if e.Unit == 0 {
			stages = append(stages, e.Stage)
		}
	}
	return stages
}

func TestProcessStreamsEnglishSpeech(t *testing.T) {
	f := newFixture(t, true, "Hi", " friend.", " Bye")

	res, err := f.pipeline.Process(context.Background(), Request{
		Text:           "Hello there",
		InputLanguage:  "auto",
		OutputLanguage: "en-US",
		VoiceID:        "Joanna",
		OutputFormat:   "mp3",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !res.Streamed || res.Units != 2 {
		t.Errorf("Streamed/Units = %v/%d", res.Streamed, res.Units)
	}
	if res.Response != "Hi friend.  Bye." {
		t.Errorf("Response = %q", res.Response)
	}
	if res.RequestID == "" {
		t.Error("Expected a request id")
	}
	if len(f.translator.calls) != 0 {
		t.Errorf("No translation expected, got %v", f.translator.calls)
	}

	if got := f.read(t, "input.mp3"); got != "[Hello there]" {
		t.Errorf("input.mp3 = %q", got)
	}
	if got := f.read(t, "response.mp3"); got != "[Hi friend.][Bye.]" {
		t.Errorf("response.mp3 = %q", got)
	}
	if res.ResponseBytes != int64(len("[Hi friend.][Bye.]")) {
		t.Errorf("ResponseBytes = %d", res.ResponseBytes)
	}

	reqs := f.engine.Requests()
	if reqs[0].LanguageCode != "en-US" || reqs[0].VoiceID != "Joanna" || reqs[0].OutputFormat != "mp3" {
		t.Errorf("Unexpected input request %+v", reqs[0])
	}

	expected := []Stage{StageSpeakingInput, StageGenerating, StageSpeakingResponse, StageDone}
	if !slices.Equal(f.stages(), expected) {
		t.Errorf("Stages = %v, want %v", f.stages(), expected)
	}

	var units []string
	for _, e := range f.events {
		if e.Unit > 0 {
			units = append(units, e.Text)
		}
	}
	if !slices.Equal(units, []string{"Hi friend. ", " Bye."}) {
		t.Errorf("Unit events = %q", units)
	}
}

func TestProcessTranslatesBothWays(t *testing.T) {
	f := newFixture(t, true, "Answer", ".")

	res, err := f.pipeline.Process(context.Background(), Request{
		Text:           "Hola",
		InputLanguage:  "es-ES",
		OutputLanguage: "de-DE",
		VoiceID:        "Vicki",
		OutputFormat:   "mp3",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if res.Streamed {
		t.Error("Non-English output must not be streamed")
	}
	if res.Transcript != "en:Hola" {
		t.Errorf("Transcript = %q", res.Transcript)
	}
	if res.TranslatedResponse != "de:Answer. " {
		t.Errorf("TranslatedResponse = %q", res.TranslatedResponse)
	}

	expectedCalls := [][3]string{
		{"Hola", "es", "en"},
		{"Answer. ", "en", "de"},
	}
	if !slices.Equal(f.translator.calls, expectedCalls) {
		t.Errorf("Translator calls = %v", f.translator.calls)
	}
	if prompts := f.generator.Prompts(); len(prompts) != 1 || prompts[0] != "en:Hola" {
		t.Errorf("Prompts = %q", prompts)
	}

	if got := f.read(t, "response.mp3"); got != "[de:Answer.]" {
		t.Errorf("response.mp3 = %q", got)
	}
	reqs := f.engine.Requests()
	if reqs[0].LanguageCode != "es-ES" || reqs[1].LanguageCode != "de-DE" {
		t.Errorf("Language codes = %q, %q", reqs[0].LanguageCode, reqs[1].LanguageCode)
	}

	expected := []Stage{StageTranslating, StageSpeakingInput, StageGenerating, StageTranslatingResponse, StageSpeakingResponse, StageDone}
	if !slices.Equal(f.stages(), expected) {
		t.Errorf("Stages = %v, want %v", f.stages(), expected)
	}
}

func TestProcessBufferedEnglish(t *testing.T) {
	f := newFixture(t, false, "One. Two", ".")

	res, err := f.pipeline.Process(context.Background(), Request{
		Text:           "Count",
		InputLanguage:  "auto",
		OutputLanguage: "en-GB",
		VoiceID:        "Amy",
		OutputFormat:   "mp3",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if res.Streamed {
		t.Error("Streaming disabled by configuration")
	}
	if len(f.translator.calls) != 0 {
		t.Errorf("English output needs no translation, got %v", f.translator.calls)
	}
	if got := f.read(t, "response.mp3"); got != "[One. Two.]" {
		t.Errorf("response.mp3 = %q", got)
	}
}

func TestProcessSplitsLongText(t *testing.T) {
	f := newFixture(t, false, "ok.")
	f.pipeline.cfg.MaxTextLength = 11

	_, err := f.pipeline.Process(context.Background(), Request{
		Text:           "one two three four",
		InputLanguage:  "auto",
		OutputLanguage: "en-US",
		OutputFormat:   "mp3",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got := f.read(t, "input.mp3"); got != "[one two][three four]" {
		t.Errorf("input.mp3 = %q", got)
	}
}

func TestProcessFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		setup     func(f *fixture)
		req       Request
		stage     Stage
		wantFiles map[string]string
		generated bool
	}{
		{
			name:  "input translation",
			setup: func(f *fixture) { f.translator.err = boom },
			req:   Request{Text: "Hola", InputLanguage: "es-ES", OutputLanguage: "en-US"},
			stage: StageTranslating,
		},
		{
			name:      "input synthesis stops before generation",
			setup:     func(f *fixture) { f.engine.FailOn(1, boom) },
			req:       Request{Text: "Hello", InputLanguage: "auto", OutputLanguage: "en-US"},
			stage:     StageSpeakingInput,
			wantFiles: map[string]string{"input.mp3": ""},
		},
		{
			name:      "generation",
			setup:     func(f *fixture) { f.generator.SetFailure(boom) },
			req:       Request{Text: "Hello", InputLanguage: "auto", OutputLanguage: "en-US"},
			stage:     StageGenerating,
			wantFiles: map[string]string{"input.mp3": "[Hello]"},
			generated: true,
		},
		{
			name:      "stream error while speaking",
			setup:     func(f *fixture) { f.generator.SetStreamFailure(boom) },
			req:       Request{Text: "Hello", InputLanguage: "auto", OutputLanguage: "en-US"},
			stage:     StageGenerating,
			wantFiles: map[string]string{"input.mp3": "[Hello]", "response.mp3": "[One.][Two.][Three.]"},
			generated: true,
		},
		{
			name:      "response synthesis keeps earlier sentences",
			setup:     func(f *fixture) { f.engine.FailOn(3, boom) },
			req:       Request{Text: "Hello", InputLanguage: "auto", OutputLanguage: "en-US"},
			stage:     StageSpeakingResponse,
			wantFiles: map[string]string{"input.mp3": "[Hello]", "response.mp3": "[One.]"},
			generated: true,
		},
		{
			name:      "response translation",
			setup:     func(f *fixture) { f.translator.err = boom },
			req:       Request{Text: "Hello", InputLanguage: "auto", OutputLanguage: "fr-FR"},
			stage:     StageTranslatingResponse,
			wantFiles: map[string]string{"input.mp3": "[Hello]"},
			generated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true, "One.", " Two.", " Three.")
			tt.setup(f)
			tt.req.VoiceID = "Joanna"
			tt.req.OutputFormat = "mp3"

			_, err := f.pipeline.Process(context.Background(), tt.req)
			if !errors.Is(err, boom) {
				t.Fatalf("Expected boom, got %v", err)
			}

			var stageErr *StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("Expected *StageError, got %T", err)
			}
			if stageErr.Stage != tt.stage {
				t.Errorf("Stage = %s, want %s", stageErr.Stage, tt.stage)
			}

			for name, want := range tt.wantFiles {
				if got := f.read(t, name); got != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
			if got := len(f.generator.Prompts()) > 0; got != tt.generated {
				t.Errorf("Generated = %v, want %v", got, tt.generated)
			}

			if last := f.stages(); len(last) > 0 && last[len(last)-1] == StageDone {
				t.Error("A failed request must not report done")
			}
		})
	}
}

func TestProcessSynthesisErrorDetails(t *testing.T) {
	f := newFixture(t, true, "One.")
	f.engine.FailOn(1, errors.New("throttled"))

	_, err := f.pipeline.Process(context.Background(), Request{Text: "Hello", InputLanguage: "auto", OutputLanguage: "en-US"})
	if !errors.Is(err, tts.ErrSynthesisFailed) {
		t.Fatalf("Expected ErrSynthesisFailed, got %v", err)
	}
}

func TestProcessEmptyTranscript(t *testing.T) {
	f := newFixture(t, true)
	if _, err := f.pipeline.Process(context.Background(), Request{Text: "  "}); !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("Expected ErrEmptyTranscript, got %v", err)
	}
	if f.engine.CallCount() != 0 {
		t.Error("Nothing should be synthesized")
	}
}

func TestProcessCanceled(t *testing.T) {
	f := newFixture(t, true, "One.")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Process(ctx, Request{Text: "Hello", InputLanguage: "auto", OutputLanguage: "en-US"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
