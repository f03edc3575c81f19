// Package pipeline runs one voice interaction: translate the transcript,
// speak it, generate a response, resegment it into sentences, translate it
// back and speak it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dgnsrekt/parley/internal/lang"
	"github.com/dgnsrekt/parley/llm"
	"github.com/dgnsrekt/parley/tts"
	"github.com/dgnsrekt/parley/tts/sentence"
	"github.com/dgnsrekt/parley/tts/speech"
)

// ErrEmptyTranscript is returned for a request without text.
var ErrEmptyTranscript = errors.New("transcript is empty")

// Translator translates text between translation service codes.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Config controls a Pipeline.
type Config struct {
	OutputDir string
	Extension string // Audio file extension, e.g. "mp3"

	// MaxTextLength caps speech pieces below the engine's own limit. Zero
	// uses the engine limit.
	MaxTextLength int

	// StreamSpeech synthesizes English responses sentence by sentence
	// while the model is still generating.
	StreamSpeech bool

	Logger *log.Logger
}

// Request is one interaction.
type Request struct {
	Text           string
	InputLanguage  string // Speech language code or lang.Auto
	OutputLanguage string // Speech language code
	VoiceID        string
	OutputFormat   string // Engine output format, e.g. "mp3"
}

// Result describes a completed interaction.
type Result struct {
	RequestID          string
	Transcript         string // Text that was spoken and sent to the model
	Response           string // Model response as resegmented units
	TranslatedResponse string // Response in the output language
	Units              int
	Streamed           bool // Response was spoken while it was generated

	InputAudio    string
	InputBytes    int64
	ResponseAudio string
	ResponseBytes int64
}

// Event reports progress of a request.
type Event struct {
	RequestID string
	Stage     Stage
	Unit      int    // 1-based sentence unit, set while streaming speech
	Text      string // Unit text while streaming speech
}

// ProgressFunc receives progress events. It runs on the processing
// goroutine and should return quickly.
type ProgressFunc func(Event)

// Pipeline wires translation, generation and synthesis together.
type Pipeline struct {
	translator Translator
	generator  llm.Generator
	synth      tts.Synthesizer
	cfg        Config
	logger     *log.Logger
	progress   ProgressFunc
}

// New creates a Pipeline.
func New(translator Translator, generator llm.Generator, synth tts.Synthesizer, cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.Extension == "" {
		cfg.Extension = "mp3"
	}
	return &Pipeline{
		translator: translator,
		generator:  generator,
		synth:      synth,
		cfg:        cfg,
		logger:     logger,
	}
}

// OnProgress registers a progress callback.
func (p *Pipeline) OnProgress(fn ProgressFunc) {
	p.progress = fn
}

// run holds the state of one Process call.
type run struct {
	*Pipeline
	id     string
	req    Request
	sm     *StateMachine
	logger *log.Logger
	maxLen int
	result *Result
}

// Process runs req to completion. It stops at the first failure and
// returns a *StageError naming the stage; audio files written up to that
// point are left in place.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyTranscript
	}

	id := uuid.NewString()
	r := &run{
		Pipeline: p,
		id:       id,
		req:      req,
		sm:       NewStateMachine(),
		logger:   p.logger.With("request", id),
		maxLen:   p.pieceLength(),
		result:   &Result{RequestID: id},
	}
	for _, stage := range []Stage{
		StageTranslating, StageSpeakingInput, StageGenerating,
		StageTranslatingResponse, StageSpeakingResponse, StageDone,
	} {
		r.sm.OnEnter(stage, func() { r.report(Event{Stage: stage}) })
	}

	if err := r.execute(ctx); err != nil {
		var stageErr *StageError
		if !errors.As(err, &stageErr) {
			stageErr = &StageError{Stage: r.sm.Current(), Err: err}
		}
		r.sm.Transition(StageFailed)
		r.logger.Error("Request failed", "stage", stageErr.Stage, "error", stageErr.Err)
		return r.result, stageErr
	}

	r.sm.Transition(StageDone)
	r.logger.Info("Request complete",
		"units", r.result.Units,
		"streamed", r.result.Streamed,
		"input_bytes", r.result.InputBytes,
		"response_bytes", r.result.ResponseBytes)
	return r.result, nil
}

func (p *Pipeline) pieceLength() int {
	limit := p.synth.MaxTextLength()
	if p.cfg.MaxTextLength > 0 && (limit <= 0 || p.cfg.MaxTextLength < limit) {
		return p.cfg.MaxTextLength
	}
	return limit
}

func (r *run) report(e Event) {
	if r.progress == nil {
		return
	}
	e.RequestID = r.id
	r.progress(e)
}

func (r *run) enter(stage Stage) error {
	if !r.sm.Transition(stage) {
		return fmt.Errorf("invalid stage transition %s -> %s", r.sm.Current(), stage)
	}
	return nil
}

func (r *run) execute(ctx context.Context) error {
	transcript := r.req.Text
	if !strings.EqualFold(r.req.InputLanguage, lang.Auto) {
		if err := r.enter(StageTranslating); err != nil {
			return err
		}
		translated, err := r.translator.Translate(ctx, transcript, lang.TranslateCode(r.req.InputLanguage), "en")
		if err != nil {
			return err
		}
		transcript = translated
	}
	r.result.Transcript = transcript

	if err := r.enter(StageSpeakingInput); err != nil {
		return err
	}
	path, n, err := r.speakToFile(ctx, "input", transcript, lang.SpeechCode(r.req.InputLanguage))
	r.result.InputAudio, r.result.InputBytes = path, n
	if err != nil {
		return err
	}

	if err := r.enter(StageGenerating); err != nil {
		return err
	}
	stream, err := r.generator.Generate(ctx, transcript)
	if err != nil {
		return err
	}
	defer stream.Close()

	units := sentence.NewStream(stream)
	if r.cfg.StreamSpeech && lang.IsEnglish(r.req.OutputLanguage) {
		return r.streamResponse(ctx, units)
	}
	return r.bufferedResponse(ctx, units)
}

// streamResponse speaks each unit as soon as it is complete. The stage
// stays at speaking-response while generation continues in the background
// of each Next call, so a stream failure is attributed to generating.
func (r *run) streamResponse(ctx context.Context, units *sentence.Stream) error {
	r.result.Streamed = true

	f, path, err := r.create("response")
	if err != nil {
		return err
	}
	defer f.Close()
	r.result.ResponseAudio = path

	if err := r.enter(StageSpeakingResponse); err != nil {
		return err
	}

	synth := tts.Bind(r.synth, r.req.VoiceID, lang.Canonical(r.req.OutputLanguage), r.req.OutputFormat)
	var response strings.Builder
	for {
		unit, _, err := units.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &StageError{Stage: StageGenerating, Err: err}
		}

		response.WriteString(unit)
		r.result.Units++
		r.report(Event{Stage: StageSpeakingResponse, Unit: r.result.Units, Text: unit})

		if sentence.IsBlank(unit) {
			continue
		}
		n, err := r.chunker(synth).WriteTo(ctx, f, unit)
		r.result.ResponseBytes += n
		if err != nil {
			return err
		}
	}

	r.result.Response = response.String()
	r.result.TranslatedResponse = r.result.Response
	return f.Close()
}

// bufferedResponse collects the whole response, translates it and speaks
// it in one go.
func (r *run) bufferedResponse(ctx context.Context, units *sentence.Stream) error {
	var response strings.Builder
	for {
		unit, _, err := units.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		response.WriteString(unit)
		r.result.Units++
	}
	r.result.Response = response.String()
	r.logger.Debug("Response generated", "units", r.result.Units, "chars", response.Len())

	translated := r.result.Response
	target := lang.TranslateCode(r.req.OutputLanguage)
	if target != "en" {
		if err := r.enter(StageTranslatingResponse); err != nil {
			return err
		}
		var err error
		translated, err = r.translator.Translate(ctx, r.result.Response, "en", target)
		if err != nil {
			return err
		}
	}
	r.result.TranslatedResponse = translated

	if err := r.enter(StageSpeakingResponse); err != nil {
		return err
	}
	path, n, err := r.speakToFile(ctx, "response", translated, lang.Canonical(r.req.OutputLanguage))
	r.result.ResponseAudio, r.result.ResponseBytes = path, n
	return err
}

// speakToFile synthesizes text into <output_dir>/<name>.<ext>.
func (r *run) speakToFile(ctx context.Context, name, text, languageCode string) (string, int64, error) {
	f, path, err := r.create(name)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	synth := tts.Bind(r.synth, r.req.VoiceID, languageCode, r.req.OutputFormat)
	n, err := r.chunker(synth).WriteTo(ctx, f, text)
	if err != nil {
		return path, n, err
	}
	r.logger.Debug("Audio written", "file", path, "bytes", n)
	return path, n, f.Close()
}

func (r *run) chunker(synth tts.SynthesizeFunc) *speech.Chunker {
	return &speech.Chunker{MaxLen: r.maxLen, Synthesize: synth, Logger: r.logger}
}

func (r *run) create(name string) (*os.File, string, error) {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(r.cfg.OutputDir, name+"."+r.cfg.Extension)
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("creating audio file: %w", err)
	}
	return f, path, nil
}
