// Package polly synthesizes speech and lists voices with Amazon Polly.
package polly

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	awspolly "github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/parley/internal/awserr"
	"github.com/dgnsrekt/parley/tts"
)

// MaxTextLength is the largest input Polly accepts in one request.
const MaxTextLength = 3000

// Client is the subset of the Polly API used by this package.
// *polly.Client satisfies it.
type Client interface {
	SynthesizeSpeech(ctx context.Context, params *awspolly.SynthesizeSpeechInput, optFns ...func(*awspolly.Options)) (*awspolly.SynthesizeSpeechOutput, error)
	DescribeVoices(ctx context.Context, params *awspolly.DescribeVoicesInput, optFns ...func(*awspolly.Options)) (*awspolly.DescribeVoicesOutput, error)
}

// Config holds configuration for the Polly synthesizer.
type Config struct {
	// Engine is the Polly engine: standard, neural, long-form or generative.
	Engine string

	// RequestsPerSecond paces SynthesizeSpeech calls. Zero disables pacing.
	RequestsPerSecond float64

	Logger *log.Logger
}

// Synthesizer implements tts.Synthesizer with Amazon Polly.
type Synthesizer struct {
	client  Client
	engine  types.Engine
	limiter *rate.Limiter
	logger  *log.Logger
}

// New creates a Polly synthesizer.
func New(client Client, cfg Config) *Synthesizer {
	if cfg.Engine == "" {
		cfg.Engine = string(types.EngineNeural)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Synthesizer{
		client:  client,
		engine:  types.Engine(strings.ToLower(cfg.Engine)),
		limiter: limiter,
		logger:  cfg.Logger.With("engine", "polly"),
	}
}

// Name identifies the engine.
func (s *Synthesizer) Name() string {
	return "polly/" + string(s.engine)
}

// MaxTextLength returns the Polly request limit.
func (s *Synthesizer) MaxTextLength() int {
	return MaxTextLength
}

// Synthesize converts one piece of text to audio. It never retries.
func (s *Synthesizer) Synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, tts.ErrEmptyText
	}
	if n := utf8.RuneCountInString(req.Text); n > MaxTextLength {
		return nil, fmt.Errorf("%w: %d characters (max %d)", tts.ErrTextTooLong, n, MaxTextLength)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}
	}

	out, err := s.client.SynthesizeSpeech(ctx, &awspolly.SynthesizeSpeechInput{
		Text:         aws.String(req.Text),
		VoiceId:      types.VoiceId(req.VoiceID),
		LanguageCode: types.LanguageCode(req.LanguageCode),
		OutputFormat: types.OutputFormat(req.OutputFormat),
		Engine:       s.engine,
	})
	if err != nil {
		s.logger.Error("SynthesizeSpeech failed", "voice", req.VoiceID, "code", awserr.Code(err), "error", err)
		return nil, awserr.Wrap("polly SynthesizeSpeech", err)
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("reading audio stream: %w", err)
	}

	s.logger.Debug("Synthesized",
		"voice", req.VoiceID,
		"language", req.LanguageCode,
		"chars", utf8.RuneCountInString(req.Text),
		"bytes", len(audio),
		"content_type", aws.ToString(out.ContentType))

	return audio, nil
}

// Catalog implements tts.VoiceCatalog with Polly DescribeVoices.
type Catalog struct {
	client Client

	// Engine, when set, restricts the catalog to voices supporting it.
	Engine string
}

// NewCatalog returns a voice catalog over client.
func NewCatalog(client Client) *Catalog {
	return &Catalog{client: client}
}

// List returns every voice, following DescribeVoices pagination.
func (c *Catalog) List(ctx context.Context) ([]tts.Voice, error) {
	var (
		voices []tts.Voice
		token  *string
	)
	for {
		out, err := c.client.DescribeVoices(ctx, &awspolly.DescribeVoicesInput{
			Engine:    types.Engine(c.Engine),
			NextToken: token,
		})
		if err != nil {
			return nil, awserr.Wrap("polly DescribeVoices", err)
		}

		for _, v := range out.Voices {
			voices = append(voices, tts.Voice{
				ID:       string(v.Id),
				Name:     aws.ToString(v.Name),
				Language: string(v.LanguageCode),
				Gender:   string(v.Gender),
			})
		}

		token = out.NextToken
		if aws.ToString(token) == "" {
			return voices, nil
		}
	}
}

// Voices maps every language code to its voice ids, in the order Polly
// lists them and without duplicates.
func (c *Catalog) Voices(ctx context.Context) (tts.VoiceMap, error) {
	voices, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	m := make(tts.VoiceMap)
	for _, v := range voices {
		m.Add(v.Language, v.ID)
	}
	return m, nil
}

var (
	_ tts.Synthesizer  = (*Synthesizer)(nil)
	_ tts.VoiceCatalog = (*Catalog)(nil)
)
